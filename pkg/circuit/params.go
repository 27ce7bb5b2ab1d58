package circuit

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

// piRadians converts between QASM radians and tket half-turns.
const piRadians = math.Pi

var paramEnv = map[string]any{"pi": math.Pi}

// evalParam evaluates a numeric parameter expression such as "pi/2" or
// "-3*pi/4".
func evalParam(src string) (float64, error) {
	src = strings.TrimSpace(src)
	if v, err := strconv.ParseFloat(src, 64); err == nil {
		return v, nil
	}
	out, err := expr.Eval(src, paramEnv)
	if err != nil {
		return 0, fmt.Errorf("%w: parameter %q: %v", ErrSyntax, src, err)
	}
	switch v := out.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%w: parameter %q is not numeric", ErrSyntax, src)
	}
}

// formatHalfTurns renders a half-turn angle as a radian QASM expression.
func formatHalfTurns(h float64) string {
	if h < 0 {
		return "-pi*" + strconv.FormatFloat(-h, 'g', -1, 64)
	}
	return "pi*" + strconv.FormatFloat(h, 'g', -1, 64)
}

// splitTopLevel splits s on commas that are not nested inside parentheses.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
