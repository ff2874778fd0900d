package mathsolver

import (
	"fmt"
	"math"
	"strconv"
)

// evalNumeric computes the numeric value of an expression without x.
// Trigonometric functions take degrees and their inverses return
// degrees, matching how schoolwork states them.
func evalNumeric(e Expr) (float64, error) {
	switch n := e.(type) {
	case *Num:
		return n.Val, nil

	case *Var:
		return 0, fmt.Errorf("expression contains x")

	case *Neg:
		v, err := evalNumeric(n.X)
		if err != nil {
			return 0, err
		}
		return -v, nil

	case *Binary:
		l, err := evalNumeric(n.L)
		if err != nil {
			return 0, err
		}
		r, err := evalNumeric(n.R)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case '+':
			return l + r, nil
		case '-':
			return l - r, nil
		case '*':
			return l * r, nil
		case '/':
			if r == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return l / r, nil
		case '^':
			return math.Pow(l, r), nil
		}
		return 0, fmt.Errorf("unknown operator %q", string(n.Op))

	case *Call:
		args := make([]float64, len(n.Args))
		for i, a := range n.Args {
			v, err := evalNumeric(a)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return callNumeric(n.Fn, args)
	}
	return 0, fmt.Errorf("unsupported expression")
}

func callNumeric(fn string, args []float64) (float64, error) {
	a := args[0]
	switch fn {
	case "sin":
		return math.Sin(a * math.Pi / 180), nil
	case "cos":
		return math.Cos(a * math.Pi / 180), nil
	case "tan":
		return math.Tan(a * math.Pi / 180), nil
	case "asin":
		if a < -1 || a > 1 {
			return 0, fmt.Errorf("asin argument out of range")
		}
		return math.Asin(a) * 180 / math.Pi, nil
	case "acos":
		if a < -1 || a > 1 {
			return 0, fmt.Errorf("acos argument out of range")
		}
		return math.Acos(a) * 180 / math.Pi, nil
	case "atan":
		return math.Atan(a) * 180 / math.Pi, nil
	case "sqrt":
		if a < 0 {
			return 0, fmt.Errorf("sqrt of negative number")
		}
		return math.Sqrt(a), nil
	case "log":
		if a <= 0 {
			return 0, fmt.Errorf("log of non-positive number")
		}
		return math.Log10(a), nil
	case "ln":
		if a <= 0 {
			return 0, fmt.Errorf("ln of non-positive number")
		}
		return math.Log(a), nil
	case "pow":
		return math.Pow(a, args[1]), nil
	}
	return 0, fmt.Errorf("unknown function %q", fn)
}

// formatNumber rounds to 6 decimal places and trims trailing zeros.
func formatNumber(v float64) string {
	rounded := math.Round(v*1e6) / 1e6
	if rounded == 0 {
		// Avoid "-0"
		rounded = 0
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}
