package calc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridcalc/internal/grid"
)

// cells resolves references from a name -> value map; unknown names are 0.
func cells(values map[string]float64) ResolveFunc {
	return func(a grid.Address) (float64, error) {
		return values[a.Key().String()], nil
	}
}

func TestEvaluateLiterals(t *testing.T) {
	tests := map[string]float64{
		"2":               2,
		"=2":              2,
		"(2)":             2,
		"2+3":             5,
		"2+2.5":           4.5,
		"2+2*3":           8,
		"(2+2)*3":         12,
		"2+(2+2)+2":       8,
		"10-4-3":          3,
		"12/3/2":          2,
		"2^3":             8,
		"2^3^2":           64,
		"-2^2":            4,
		"2*-3":            -6,
		"+5":              5,
		"--5":             5,
		"25%":             0.25,
		"50%*4":           2,
		"1E+3":            1000,
		"5>3":             1,
		"5<3":             0,
		"3>=3":            1,
		"3<=2":            0,
		"3=3":             1,
		"3<>3":            0,
		"1+2>2":           1,
		"TRUE":            1,
		"FALSE+1":         1,
		" = 1 + 2 ":       3,
		"SUM(1,2,3)":      6,
		"sum(1,2,3)":      6,
		"SUM()":           0,
		"MAX(4,9,2)":      9,
		"MIN(4,9,2)":      2,
		"MIN()":           0,
		"AVERAGE(10,1)":   5.5,
		"AVERAGE()":       0,
		"IF(5>3,10,20)":   10,
		"IF(5<3,10,20)":   20,
		"IF(0,10)":        0,
		"IF(1=1,1,2)":     1,
		"COUNT(1,2,3)":    3,
		"ROUND(2.346,2)":  2.35,
		"ROUND(2.345,2)":  2.35,
		"ROUND(-2.345,2)": -2.35,
		"ROUND(-2.5)":     -3,
		"ROUND(1234,-2)":  1200,
		"AND(1,1)":        1,
		"AND(1,0)":        0,
		"AND()":           1,
		"OR(0,0)":         0,
		"OR(0,1)":         1,
		"NOT(0)":          1,
		"ABS(-4)":         4,
		"SUM(1,MAX(4,3))": 5,
	}
	for expr, want := range tests {
		t.Run(expr, func(t *testing.T) {
			got, err := Evaluate(expr, nil)
			require.NoError(t, err)
			assert.InDelta(t, want, got, 1e-9)
		})
	}
}

func TestEvaluateReferences(t *testing.T) {
	r := cells(map[string]float64{"A1": 1, "A2": 2, "B1": 3, "B4": 50})
	tests := map[string]float64{
		"A1":                1,
		"-A1":               -1,
		"A1+B1":             4,
		"$A$1+b$1":          4,
		"B4*1.1":            55,
		"SUM(A1:A2)":        3,
		"SUM(A2:A1)":        3,
		"SUM(A1:B2)":        6,
		"SUM(A1:A2,B1)":     6,
		"MAX(A1:A2,B1:B2)":  3,
		"AVERAGE(A1:A2,B1)": 2,
		"COUNT(A1:B2)":      4,
		"Z99*2":             0,
		"B1%":               0.03,
	}
	for expr, want := range tests {
		t.Run(expr, func(t *testing.T) {
			got, err := Evaluate(expr, r)
			require.NoError(t, err)
			assert.InDelta(t, want, got, 1e-9)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		expr string
		kind error
	}{
		{"10/0", ErrDivisionByZero},
		{"1/(2-2)", ErrDivisionByZero},
		{"0^-1", ErrDivisionByZero},
		{"FOO(1)", ErrUnknownFunction},
		{"sum(1,bar(2))", ErrUnknownFunction},
		{"", ErrInvalidExpression},
		{"=", ErrInvalidExpression},
		{"(1+2", ErrInvalidExpression},
		{"1+", ErrInvalidExpression},
		{"*3", ErrInvalidExpression},
		{"SUM(1,,2)", ErrInvalidExpression},
		{"\"text\"", ErrInvalidExpression},
		{"1 & 2", ErrInvalidExpression},
		{"hello", ErrInvalidExpression},
		{"A1:B2", ErrInvalidExpression},
		{"IF(1)", ErrInvalidExpression},
		{"NOT(1,2)", ErrInvalidExpression},
		{"A1:XFD1048576", ErrInvalidExpression},
		{"{1,2}", ErrInvalidExpression},
		{"SUM({1,2})", ErrInvalidExpression},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := Evaluate(tt.expr, cells(nil))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestIfEvaluatesOnlySelectedBranch(t *testing.T) {
	calls := 0
	r := func(a grid.Address) (float64, error) {
		calls++
		return 0, ErrDivisionByZero
	}
	got, err := Evaluate("IF(1,7,A1)", r)
	require.NoError(t, err)
	assert.Equal(t, 7.0, got)
	assert.Zero(t, calls)

	_, err = Evaluate("IF(0,7,A1)", r)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestResolverErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")
	_, err := Evaluate("1+SUM(A1,2)", func(grid.Address) (float64, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}

func TestSyntaxErrorDetail(t *testing.T) {
	_, err := Parse("=NOPE(1)")
	var syn *SyntaxError
	require.ErrorAs(t, err, &syn)
	assert.Equal(t, ErrUnknownFunction, syn.Kind)
	assert.Contains(t, syn.Error(), "NOPE")
}

func TestSyntaxErrorNamesStrayToken(t *testing.T) {
	tests := []struct {
		expr   string
		detail string
	}{
		{"=(1,2)", "unexpected argument separator"},
		{"=1)", "unexpected closing parenthesis"},
		{"=1+", "unexpected end of expression"},
		{"=1+)", "empty operand"},
		{"=(1+2", "unbalanced parentheses"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := Parse(tt.expr)
			var syn *SyntaxError
			require.ErrorAs(t, err, &syn)
			assert.Equal(t, ErrInvalidExpression, syn.Kind)
			assert.Equal(t, tt.detail, syn.Detail)
		})
	}
}

func TestReferences(t *testing.T) {
	node, err := Parse("=A1+SUM($B$1:B2)*IF(C3,1,D4)")
	require.NoError(t, err)
	var names []string
	for _, a := range References(node) {
		names = append(names, a.Key().String())
	}
	assert.Equal(t, []string{"A1", "B1", "B2", "C3", "D4"}, names)
	assert.Nil(t, References(nil))
}

func TestIsFunction(t *testing.T) {
	assert.True(t, IsFunction("average"))
	assert.False(t, IsFunction("VLOOKUP"))
}

func TestCode(t *testing.T) {
	assert.Equal(t, "", Code(nil))
	assert.Equal(t, "#DIV/0", Code(ErrDivisionByZero))
	assert.Equal(t, "#CYCLE", Code(&CycleError{Path: []grid.Address{{}, {}}}))
	assert.Equal(t, "#NAME?", Code(ErrUnknownFunction))
	assert.Equal(t, "#ERR", Code(ErrInvalidExpression))
	assert.Equal(t, "#REF", Code(grid.ErrMalformedAddress))
}

func TestCycleErrorMessage(t *testing.T) {
	err := &CycleError{Path: []grid.Address{
		grid.MustParseAddress("A1"), grid.MustParseAddress("B1"), grid.MustParseAddress("$A$1"),
	}}
	assert.Equal(t, "circular reference: A1 -> B1 -> A1", err.Error())
	assert.ErrorIs(t, err, ErrCircularReference)
}
