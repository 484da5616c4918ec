// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package texcalc provides the texcalc runtime.
package texcalc

// DefaultOperator is the operator name recognized when none is configured.
const DefaultOperator = "CALC"

// DefaultCommandTemplate runs a Wolfram Language script on each expression.
// {} is replaced by the expression.
const DefaultCommandTemplate = `wolframscript -file ~/.texcalc/EvaluateExpression.wls {}`

// EnvEvaluator overrides DefaultCommandTemplate when set.
const EnvEvaluator = "TEXCALC_EVALUATOR"

// OutputSuffix is appended to the input path to name the output document.
const OutputSuffix = ".out"
