package evaluator

import "context"

// Mock is an in-process evaluator for testing.
// Responses are parsed like real evaluator output, so a response carrying
// "Error" fails the evaluation.
type Mock struct {
	Responses map[string]string
	Handler   func(expression string) string
	Calls     []string
}

// NewMock creates a mock answering from a fixed table.
func NewMock(responses map[string]string) *Mock {
	return &Mock{Responses: responses}
}

// NewMockHandler creates a mock with a custom handler.
func NewMockHandler(handler func(expression string) string) *Mock {
	return &Mock{Handler: handler}
}

// Evaluate returns the canned response for expression.
func (m *Mock) Evaluate(ctx context.Context, expression string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.Calls = append(m.Calls, expression)
	if m.Handler != nil {
		return ParseOutput(expression, m.Handler(expression))
	}
	out, ok := m.Responses[expression]
	if !ok {
		return "", &EvalError{Expr: expression, Output: "no response configured"}
	}
	return ParseOutput(expression, out)
}
