package mathsolver

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Evaluate computes a plain numeric expression. It reports ok=false
// when the text does not parse or cannot be reduced to a number, so
// the caller can fall through to other handlers.
func Evaluate(question string) (string, bool) {
	expr, err := Parse(Normalize(question))
	if err != nil {
		return "", false
	}
	v, err := evalNumeric(expr)
	if err != nil {
		return "", false
	}
	return "The result is " + formatNumber(v), true
}

// Explain handles questions that ask for a worked answer: derivatives,
// integrals and equations in x. It reports ok=false when the question
// is not one of those.
func Explain(question string) (string, bool) {
	q := Normalize(question)

	switch {
	case strings.Contains(q, "differentiate"),
		strings.Contains(q, "derivative"),
		strings.Contains(q, "d/dx"),
		strings.Contains(q, "dy/dx"):
		return explainDerivative(q)

	case strings.Contains(q, "integrate"), strings.Contains(q, "integral"):
		return explainIntegral(q)

	case strings.Contains(q, "="):
		return explainEquation(q)
	}
	return "", false
}

// extractTarget pulls the expression out of a phrased request, e.g.
// "differentiate x^2" or "find the derivative of sin(x)".
func extractTarget(q string, keywords ...string) string {
	if i := strings.LastIndex(q, " of "); i >= 0 {
		q = q[i+len(" of "):]
	} else {
		for _, kw := range keywords {
			if i := strings.Index(q, kw); i >= 0 {
				q = q[i+len(kw):]
				break
			}
		}
	}
	q = strings.TrimSpace(q)
	q = strings.TrimSuffix(q, "?")
	q = strings.TrimSuffix(q, ".")
	return strings.TrimSpace(q)
}

func explainDerivative(q string) (string, bool) {
	target := extractTarget(q, "differentiate", "derivative", "d/dx", "dy/dx")
	expr, err := Parse(target)
	if err != nil {
		return "", false
	}
	d, err := Differentiate(expr)
	if err != nil {
		return "", false
	}
	d = Simplify(d)
	return fmt.Sprintf("The derivative of %s with respect to x is: %s", expr, d), true
}

func explainIntegral(q string) (string, bool) {
	target := extractTarget(q, "integrate", "integral")
	expr, err := Parse(target)
	if err != nil {
		return "", false
	}
	in, err := Integrate(expr)
	if err != nil {
		return "", false
	}
	in = Simplify(in)
	return fmt.Sprintf("The integral of %s with respect to x is: %s + C", expr, in), true
}

func explainEquation(q string) (string, bool) {
	parts := strings.SplitN(q, "=", 2)
	if len(parts) != 2 {
		return "", false
	}
	lhsText := trimEquationNoise(parts[0])
	rhsText := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(parts[1]), "?"))

	lhs, err := Parse(lhsText)
	if err != nil {
		return "", false
	}
	rhs, err := Parse(rhsText)
	if err != nil {
		return "", false
	}

	roots, err := solvePolynomial(&Binary{Op: '-', L: lhs, R: rhs})
	if err != nil {
		return "", false
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Step 1: Start with the equation %s = %s\n", lhs, rhs)
	fmt.Fprintf(&b, "Step 2: Move every term to one side: (%s) - (%s) = 0\n", lhs, rhs)
	b.WriteString("Step 3: Simplify and solve for x\n")
	b.WriteString(formatRoots(roots))
	return b.String(), true
}

// trimEquationNoise drops leading words like "solve" or "find x if"
// from the left-hand side of an equation.
func trimEquationNoise(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"solve the equation", "solve for x", "solve", "find the roots of", "find x if", "find x when", "what is x if", "roots of"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
		}
	}
	s = strings.TrimPrefix(s, ":")
	return strings.TrimSpace(s)
}

func formatRoots(roots []float64) string {
	switch len(roots) {
	case 0:
		return "No real solution found."
	case 1:
		return fmt.Sprintf("The value of x is %s.", formatNumber(roots[0]))
	default:
		parts := make([]string, len(roots))
		for i, r := range roots {
			parts[i] = formatNumber(r)
		}
		return "Possible values of x are: " + strings.Join(parts, ", ")
	}
}

// polynomial maps exponent to coefficient.
type polynomial map[int]float64

// solvePolynomial finds the real roots of e = 0 for degree <= 2.
func solvePolynomial(e Expr) ([]float64, error) {
	p, err := toPolynomial(e)
	if err != nil {
		return nil, err
	}
	for exp, c := range p {
		if c == 0 {
			delete(p, exp)
		}
	}

	degree := 0
	for exp := range p {
		if exp > degree {
			degree = exp
		}
	}

	switch degree {
	case 0:
		return nil, nil
	case 1:
		// a*x + b = 0
		return []float64{-p[0] / p[1]}, nil
	case 2:
		a, b, c := p[2], p[1], p[0]
		disc := b*b - 4*a*c
		if disc < 0 {
			return nil, nil
		}
		if disc == 0 {
			return []float64{-b / (2 * a)}, nil
		}
		s := math.Sqrt(disc)
		roots := []float64{(-b - s) / (2 * a), (-b + s) / (2 * a)}
		sort.Float64s(roots)
		return roots, nil
	}
	return nil, fmt.Errorf("degree %d is not supported", degree)
}

// toPolynomial flattens an expression into coefficients of powers of
// x, refusing anything non-polynomial (functions, x in a denominator
// or exponent).
func toPolynomial(e Expr) (polynomial, error) {
	switch n := e.(type) {
	case *Num:
		return polynomial{0: n.Val}, nil

	case *Var:
		return polynomial{1: 1}, nil

	case *Neg:
		p, err := toPolynomial(n.X)
		if err != nil {
			return nil, err
		}
		out := polynomial{}
		for exp, c := range p {
			out[exp] = -c
		}
		return out, nil

	case *Binary:
		switch n.Op {
		case '+', '-':
			l, err := toPolynomial(n.L)
			if err != nil {
				return nil, err
			}
			r, err := toPolynomial(n.R)
			if err != nil {
				return nil, err
			}
			sign := 1.0
			if n.Op == '-' {
				sign = -1
			}
			for exp, c := range r {
				l[exp] += sign * c
			}
			return l, nil

		case '*':
			l, err := toPolynomial(n.L)
			if err != nil {
				return nil, err
			}
			r, err := toPolynomial(n.R)
			if err != nil {
				return nil, err
			}
			out := polynomial{}
			for e1, c1 := range l {
				for e2, c2 := range r {
					out[e1+e2] += c1 * c2
				}
			}
			return out, nil

		case '/':
			if containsVar(n.R) {
				return nil, fmt.Errorf("x in denominator")
			}
			d, err := evalNumeric(n.R)
			if err != nil {
				return nil, err
			}
			if d == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			l, err := toPolynomial(n.L)
			if err != nil {
				return nil, err
			}
			out := polynomial{}
			for exp, c := range l {
				out[exp] = c / d
			}
			return out, nil

		case '^':
			if containsVar(n.R) {
				return nil, fmt.Errorf("x in exponent")
			}
			pv, err := evalNumeric(n.R)
			if err != nil {
				return nil, err
			}
			exp := int(pv)
			if float64(exp) != pv || exp < 0 {
				return nil, fmt.Errorf("non-integer exponent")
			}
			base, err := toPolynomial(n.L)
			if err != nil {
				return nil, err
			}
			out := polynomial{0: 1}
			for i := 0; i < exp; i++ {
				next := polynomial{}
				for e1, c1 := range out {
					for e2, c2 := range base {
						next[e1+e2] += c1 * c2
					}
				}
				out = next
			}
			return out, nil
		}
		return nil, fmt.Errorf("unknown operator %q", string(n.Op))
	}
	return nil, fmt.Errorf("not a polynomial")
}
