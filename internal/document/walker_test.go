package document

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nickandperla.net/texcalc/internal/diag"
	"nickandperla.net/texcalc/internal/evaluator"
	"nickandperla.net/texcalc/internal/expand"
	"nickandperla.net/texcalc/internal/vars"
)

type fixture struct {
	walker   *Walker
	registry *vars.Registry
	mock     *evaluator.Mock
	log      *bytes.Buffer
}

func newFixture(responses map[string]string) *fixture {
	log := &bytes.Buffer{}
	rep := diag.New(log, diag.WithColor(diag.ColorNever))
	reg := vars.New(vars.WithChangeFunc(rep.Changed))
	mock := evaluator.NewMock(responses)
	p := expand.NewPipeline(
		expand.Substitute(reg, "CALC"),
		expand.Calculate(mock, "CALC", rep.Evaluated),
	)
	return &fixture{
		walker:   New(p, reg, WithReporter(rep)),
		registry: reg,
		mock:     mock,
		log:      log,
	}
}

func (f *fixture) walk(t *testing.T, doc string) (string, Stats, error) {
	t.Helper()
	var out bytes.Buffer
	stats, err := f.walker.Walk(context.Background(), strings.NewReader(doc), &out)
	return out.String(), stats, err
}

func TestWalkSingleLineBlock(t *testing.T) {
	f := newFixture(map[string]string{"2+2": "4\n"})
	out, stats, err := f.walk(t, "line1\n\\[CALC(2+2)\\]\nline2\n")
	require.NoError(t, err)
	assert.Equal(t, "line1\n\\[2+2 = 4\\]\nline2\n", out)
	assert.Equal(t, 3, stats.Lines)
	assert.Equal(t, 1, stats.Expressions)
	assert.Equal(t, 1, stats.Expanded)
	assert.Equal(t, int64(len(out)), stats.Bytes)
	assert.Contains(t, f.log.String(), "Evaluated: 2+2 = 4")
}

func TestWalkSubstitutesDiscoveredVariables(t *testing.T) {
	f := newFixture(map[string]string{"5+1": "6\n"})
	out, stats, err := f.walk(t, "\\[x = 5\\]\n\\[CALC(x+1)\\]\n")
	require.NoError(t, err)
	assert.Equal(t, "\\[x = 5\\]\n\\[x+1 = 5+1 = 6\\]\n", out)
	assert.Equal(t, []string{"5+1"}, f.mock.Calls)
	assert.Equal(t, "5", f.registry.Value("x"))
	assert.Equal(t, 2, stats.NewVariables) // x and x+1
	assert.Equal(t, 0, f.registry.NewCount())
	assert.Contains(t, f.log.String(), "Recognized variables:")
}

func TestWalkFailureKeepsOriginalAndContinues(t *testing.T) {
	f := newFixture(map[string]string{"1/0": "Error: division by zero", "2+2": "4"})
	out, stats, err := f.walk(t, "\\[CALC(1/0)\\]\n\\[CALC(2+2)\\]\n")
	require.NoError(t, err)
	assert.Equal(t, "\\[CALC(1/0)\\]\n\\[2+2 = 4\\]\n", out)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Expanded)
	assert.Contains(t, f.log.String(), "Can't evaluate CALC(1/0), skipping...")
}

func TestWalkUnterminatedCallIsSkipped(t *testing.T) {
	f := newFixture(nil)
	out, stats, err := f.walk(t, "\\[CALC(1+(2)\\]\n")
	require.NoError(t, err)
	assert.Equal(t, "\\[CALC(1+(2)\\]\n", out)
	assert.Equal(t, 1, stats.Skipped)
}

func TestWalkEndWithoutStartIsFatal(t *testing.T) {
	f := newFixture(nil)
	out, _, err := f.walk(t, "intro\nx = 1 \\]\nafter\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnbalancedBlock))
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, "intro\n", out)
}

func TestWalkMultiLineBlock(t *testing.T) {
	f := newFixture(map[string]string{"1 +\n2": "3\n"})
	doc := "before\n\\[\nCALC(1 +\n2)\n\\]\nafter\n"
	out, stats, err := f.walk(t, doc)
	require.NoError(t, err)
	assert.Equal(t, "before\n\\[\n1 +\n2 = 3\n\\]\nafter\n", out)
	assert.Equal(t, 1, stats.Expanded)
	assert.Equal(t, []string{"1 +\n2"}, f.mock.Calls)
}

func TestWalkKeepsTextAroundMarkers(t *testing.T) {
	f := newFixture(map[string]string{"2*3": "6"})
	out, _, err := f.walk(t, "Area: \\[CALC(2*3)\\] m^2\n")
	require.NoError(t, err)
	assert.Equal(t, "Area: \\[2*3 = 6\\] m^2\n", out)
}

func TestWalkCloseAndReopenOnOneLine(t *testing.T) {
	f := newFixture(map[string]string{"1+1": "2", "2+2": "4"})
	out, stats, err := f.walk(t, "\\[CALC(1+1)\n\\] and \\[CALC(2+2)\n\\]\n")
	require.NoError(t, err)
	assert.Equal(t, "\\[1+1 = 2\n\\] and \\[2+2 = 4\n\\]\n", out)
	assert.Equal(t, 2, stats.Expanded)
}

func TestWalkClosesAndOpensBlocksLeftToRight(t *testing.T) {
	f := newFixture(map[string]string{"1+1": "2", "2+2": "4"})
	out, stats, err := f.walk(t, "\\[CALC(1+1)\\] and \\[CALC(2+2)\nmore\\]\nafter\n")
	require.NoError(t, err)
	assert.Equal(t, "\\[1+1 = 2\\] and \\[2+2 = 4\nmore\\]\nafter\n", out)
	assert.Equal(t, 2, stats.Expanded)
	assert.Equal(t, []string{"1+1", "2+2"}, f.mock.Calls)
}

func TestWalkEndBeforeStartOnOneLineIsFatal(t *testing.T) {
	f := newFixture(map[string]string{"1+1": "2"})
	out, _, err := f.walk(t, "x \\] y \\[CALC(1+1)\\]\n")
	assert.ErrorIs(t, err, ErrUnbalancedBlock)
	assert.Contains(t, err.Error(), "line 1")
	assert.Empty(t, out)
	assert.Empty(t, f.mock.Calls)
}

func TestWalkNestedMarkersStayInsideBlock(t *testing.T) {
	f := newFixture(map[string]string{"1+1": "2"})
	out, stats, err := f.walk(t, "\\[ a\n\\[CALC(1+1)\\]\nb \\]\n")
	require.NoError(t, err)
	assert.Equal(t, "\\[ a\n\\[1+1 = 2\\]\nb \\]\n", out)
	assert.Equal(t, 1, stats.Expressions)
}

func TestWalkUnclosedBlockAfterExpandedOne(t *testing.T) {
	f := newFixture(map[string]string{"1+1": "2"})
	out, stats, err := f.walk(t, "\\[CALC(1+1)\\] then \\[CALC(3)\nend\n")
	require.NoError(t, err)
	assert.Equal(t, "\\[1+1 = 2\\] then \\[CALC(3)\nend\n", out)
	assert.Equal(t, 1, stats.Expanded)
	assert.Contains(t, f.log.String(), "block opened on line 1 is never closed")
}

func TestWalkUnclosedBlockWrittenBack(t *testing.T) {
	f := newFixture(nil)
	out, stats, err := f.walk(t, "a\n\\[ CALC(1)\nb\n")
	require.NoError(t, err)
	assert.Equal(t, "a\n\\[ CALC(1)\nb\n", out)
	assert.Equal(t, 0, stats.Expressions)
	assert.Contains(t, f.log.String(), "never closed")
}

func TestWalkLastLineWithoutNewline(t *testing.T) {
	f := newFixture(map[string]string{"2+2": "4"})
	out, _, err := f.walk(t, "a\n\\[CALC(2+2)\\]")
	require.NoError(t, err)
	assert.Equal(t, "a\n\\[2+2 = 4\\]\n", out)
}

func TestWalkHintsMisspelledOperator(t *testing.T) {
	f := newFixture(nil)
	out, _, err := f.walk(t, "\\[calc(2+2)\\]\n")
	require.NoError(t, err)
	assert.Equal(t, "\\[calc(2+2)\\]\n", out)
	assert.Contains(t, f.log.String(), "did you mean CALC(")
}

func TestWalkReportsChangedVariable(t *testing.T) {
	f := newFixture(nil)
	_, _, err := f.walk(t, "\\[x = 5\\]\n\\[x = 7\\]\n")
	require.NoError(t, err)
	assert.Equal(t, "7", f.registry.Value("x"))
	assert.Contains(t, f.log.String(), "Variable x changed from 5 to 7")
}

func TestWalkCancelled(t *testing.T) {
	f := newFixture(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	_, err := f.walker.Walk(ctx, strings.NewReader("a\n"), &out)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecoderHandlesBOM(t *testing.T) {
	f := newFixture(map[string]string{"2+2": "4"})

	utf8BOM := "\xef\xbb\xbf\\[CALC(2+2)\\]\n"
	out, _, err := f.walk(t, utf8BOM)
	require.NoError(t, err)
	assert.Equal(t, "\\[2+2 = 4\\]\n", out)

	// "a\n" in UTF-16LE with BOM
	utf16 := string([]byte{0xff, 0xfe, 'a', 0, '\n', 0})
	out, _, err = f.walk(t, utf16)
	require.NoError(t, err)
	assert.Equal(t, "a\n", out)
}
