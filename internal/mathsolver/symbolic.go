package mathsolver

import (
	"fmt"
	"math"
	"strings"
)

// Operator precedence levels for rendering.
const (
	precSum = iota + 1
	precProduct
	precUnary
	precPower
	precAtom
)

func precedence(e Expr) int {
	switch n := e.(type) {
	case *Binary:
		switch n.Op {
		case '+', '-':
			return precSum
		case '*', '/':
			return precProduct
		case '^':
			return precPower
		}
	case *Neg:
		return precUnary
	}
	return precAtom
}

func render(e Expr, parentPrec int) string {
	s := e.String()
	if precedence(e) < parentPrec {
		return "(" + s + ")"
	}
	return s
}

func (n *Num) String() string {
	if n.Val < 0 {
		return "(" + formatNumber(n.Val) + ")"
	}
	return formatNumber(n.Val)
}

func (v *Var) String() string { return "x" }

func (n *Neg) String() string { return "-" + render(n.X, precUnary) }

func (b *Binary) String() string {
	switch b.Op {
	case '+':
		return render(b.L, precSum) + " + " + render(b.R, precSum)
	case '-':
		return render(b.L, precSum) + " - " + render(b.R, precSum+1)
	case '*':
		return render(b.L, precProduct) + "*" + render(b.R, precProduct)
	case '/':
		return render(b.L, precProduct) + "/" + render(b.R, precProduct+1)
	case '^':
		return render(b.L, precPower+1) + "^" + render(b.R, precPower)
	}
	return "?"
}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Fn + "(" + strings.Join(args, ", ") + ")"
}

// containsVar reports whether e mentions x.
func containsVar(e Expr) bool {
	switch n := e.(type) {
	case *Var:
		return true
	case *Neg:
		return containsVar(n.X)
	case *Binary:
		return containsVar(n.L) || containsVar(n.R)
	case *Call:
		for _, a := range n.Args {
			if containsVar(a) {
				return true
			}
		}
	}
	return false
}

// Simplify folds constants and removes arithmetic identities.
// It is a presentation pass, not a full CAS normaliser.
func Simplify(e Expr) Expr {
	switch n := e.(type) {
	case *Neg:
		x := Simplify(n.X)
		if num, ok := x.(*Num); ok {
			return &Num{Val: -num.Val}
		}
		if inner, ok := x.(*Neg); ok {
			return inner.X
		}
		return &Neg{X: x}

	case *Binary:
		l := Simplify(n.L)
		r := Simplify(n.R)
		ln, lIsNum := l.(*Num)
		rn, rIsNum := r.(*Num)

		if lIsNum && rIsNum {
			if v, err := evalNumeric(&Binary{Op: n.Op, L: ln, R: rn}); err == nil {
				return &Num{Val: v}
			}
		}

		switch n.Op {
		case '+':
			if lIsNum && ln.Val == 0 {
				return r
			}
			if rIsNum && rn.Val == 0 {
				return l
			}
		case '-':
			if rIsNum && rn.Val == 0 {
				return l
			}
			if lIsNum && ln.Val == 0 {
				return Simplify(&Neg{X: r})
			}
		case '*':
			if lIsNum {
				if ln.Val == 0 {
					return &Num{Val: 0}
				}
				if ln.Val == 1 {
					return r
				}
			}
			if rIsNum {
				if rn.Val == 0 {
					return &Num{Val: 0}
				}
				if rn.Val == 1 {
					return l
				}
			}
		case '/':
			if lIsNum && ln.Val == 0 {
				return &Num{Val: 0}
			}
			if rIsNum && rn.Val == 1 {
				return l
			}
		case '^':
			if rIsNum {
				if rn.Val == 0 {
					return &Num{Val: 1}
				}
				if rn.Val == 1 {
					return l
				}
			}
		}
		return &Binary{Op: n.Op, L: l, R: r}

	case *Call:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = Simplify(a)
		}
		return &Call{Fn: n.Fn, Args: args}
	}
	return e
}

// Differentiate returns d/dx of e.
func Differentiate(e Expr) (Expr, error) {
	switch n := e.(type) {
	case *Num:
		return &Num{Val: 0}, nil

	case *Var:
		return &Num{Val: 1}, nil

	case *Neg:
		d, err := Differentiate(n.X)
		if err != nil {
			return nil, err
		}
		return &Neg{X: d}, nil

	case *Binary:
		return diffBinary(n)

	case *Call:
		return diffCall(n)
	}
	return nil, fmt.Errorf("cannot differentiate expression")
}

func diffBinary(n *Binary) (Expr, error) {
	switch n.Op {
	case '+', '-':
		dl, err := Differentiate(n.L)
		if err != nil {
			return nil, err
		}
		dr, err := Differentiate(n.R)
		if err != nil {
			return nil, err
		}
		return &Binary{Op: n.Op, L: dl, R: dr}, nil

	case '*':
		dl, err := Differentiate(n.L)
		if err != nil {
			return nil, err
		}
		dr, err := Differentiate(n.R)
		if err != nil {
			return nil, err
		}
		// u'v + uv'
		return &Binary{Op: '+',
			L: &Binary{Op: '*', L: dl, R: n.R},
			R: &Binary{Op: '*', L: n.L, R: dr},
		}, nil

	case '/':
		dl, err := Differentiate(n.L)
		if err != nil {
			return nil, err
		}
		dr, err := Differentiate(n.R)
		if err != nil {
			return nil, err
		}
		// (u'v - uv') / v^2
		return &Binary{Op: '/',
			L: &Binary{Op: '-',
				L: &Binary{Op: '*', L: dl, R: n.R},
				R: &Binary{Op: '*', L: n.L, R: dr},
			},
			R: &Binary{Op: '^', L: n.R, R: &Num{Val: 2}},
		}, nil

	case '^':
		// u^c: c*u^(c-1)*u'
		if !containsVar(n.R) {
			c, err := evalNumeric(n.R)
			if err != nil {
				return nil, err
			}
			du, err := Differentiate(n.L)
			if err != nil {
				return nil, err
			}
			return &Binary{Op: '*',
				L: &Binary{Op: '*',
					L: &Num{Val: c},
					R: &Binary{Op: '^', L: n.L, R: &Num{Val: c - 1}},
				},
				R: du,
			}, nil
		}
		// a^u: a^u * ln(a) * u'
		if !containsVar(n.L) {
			a, err := evalNumeric(n.L)
			if err != nil {
				return nil, err
			}
			if a <= 0 {
				return nil, fmt.Errorf("cannot differentiate %s^u", formatNumber(a))
			}
			du, err := Differentiate(n.R)
			if err != nil {
				return nil, err
			}
			return &Binary{Op: '*',
				L: &Binary{Op: '*', L: n, R: &Num{Val: math.Log(a)}},
				R: du,
			}, nil
		}
		return nil, fmt.Errorf("cannot differentiate u^v with x in both base and exponent")
	}
	return nil, fmt.Errorf("unknown operator %q", string(n.Op))
}

func diffCall(n *Call) (Expr, error) {
	if n.Fn == "pow" {
		return diffBinary(&Binary{Op: '^', L: n.Args[0], R: n.Args[1]})
	}

	u := n.Args[0]
	du, err := Differentiate(u)
	if err != nil {
		return nil, err
	}

	var outer Expr
	switch n.Fn {
	case "sin":
		outer = &Call{Fn: "cos", Args: []Expr{u}}
	case "cos":
		outer = &Neg{X: &Call{Fn: "sin", Args: []Expr{u}}}
	case "tan":
		// 1 + tan(u)^2
		outer = &Binary{Op: '+',
			L: &Num{Val: 1},
			R: &Binary{Op: '^', L: &Call{Fn: "tan", Args: []Expr{u}}, R: &Num{Val: 2}},
		}
	case "sqrt":
		// 1 / (2*sqrt(u))
		outer = &Binary{Op: '/',
			L: &Num{Val: 1},
			R: &Binary{Op: '*', L: &Num{Val: 2}, R: &Call{Fn: "sqrt", Args: []Expr{u}}},
		}
	case "ln":
		outer = &Binary{Op: '/', L: &Num{Val: 1}, R: u}
	case "log":
		outer = &Binary{Op: '/', L: &Num{Val: 1}, R: &Binary{Op: '*', L: u, R: &Num{Val: math.Ln10}}}
	case "atan":
		outer = &Binary{Op: '/',
			L: &Num{Val: 1},
			R: &Binary{Op: '+', L: &Num{Val: 1}, R: &Binary{Op: '^', L: u, R: &Num{Val: 2}}},
		}
	case "asin":
		outer = &Binary{Op: '/',
			L: &Num{Val: 1},
			R: &Call{Fn: "sqrt", Args: []Expr{
				&Binary{Op: '-', L: &Num{Val: 1}, R: &Binary{Op: '^', L: u, R: &Num{Val: 2}}},
			}},
		}
	case "acos":
		d, err := diffCall(&Call{Fn: "asin", Args: []Expr{u}})
		if err != nil {
			return nil, err
		}
		return &Neg{X: d}, nil
	default:
		return nil, fmt.Errorf("cannot differentiate %s", n.Fn)
	}

	return &Binary{Op: '*', L: outer, R: du}, nil
}

// Integrate returns the antiderivative of e with respect to x, without
// the constant of integration. Supported forms are polynomial terms,
// constant multiples/quotients, sin(x), cos(x) and sqrt(x).
func Integrate(e Expr) (Expr, error) {
	switch n := e.(type) {
	case *Num:
		return &Binary{Op: '*', L: n, R: &Var{}}, nil

	case *Var:
		return &Binary{Op: '/',
			L: &Binary{Op: '^', L: &Var{}, R: &Num{Val: 2}},
			R: &Num{Val: 2},
		}, nil

	case *Neg:
		in, err := Integrate(n.X)
		if err != nil {
			return nil, err
		}
		return &Neg{X: in}, nil

	case *Binary:
		return integrateBinary(n)

	case *Call:
		if len(n.Args) != 1 {
			return nil, fmt.Errorf("cannot integrate %s", n.Fn)
		}
		if _, isX := n.Args[0].(*Var); !isX {
			return nil, fmt.Errorf("cannot integrate %s of a compound argument", n.Fn)
		}
		switch n.Fn {
		case "sin":
			return &Neg{X: &Call{Fn: "cos", Args: n.Args}}, nil
		case "cos":
			return &Call{Fn: "sin", Args: n.Args}, nil
		case "sqrt":
			return integratePower(0.5)
		}
		return nil, fmt.Errorf("cannot integrate %s", n.Fn)
	}
	return nil, fmt.Errorf("cannot integrate expression")
}

func integrateBinary(n *Binary) (Expr, error) {
	switch n.Op {
	case '+', '-':
		il, err := Integrate(n.L)
		if err != nil {
			return nil, err
		}
		ir, err := Integrate(n.R)
		if err != nil {
			return nil, err
		}
		return &Binary{Op: n.Op, L: il, R: ir}, nil

	case '*':
		if !containsVar(n.L) {
			ir, err := Integrate(n.R)
			if err != nil {
				return nil, err
			}
			return &Binary{Op: '*', L: n.L, R: ir}, nil
		}
		if !containsVar(n.R) {
			il, err := Integrate(n.L)
			if err != nil {
				return nil, err
			}
			return &Binary{Op: '*', L: il, R: n.R}, nil
		}
		return nil, fmt.Errorf("cannot integrate a product of x terms")

	case '/':
		if !containsVar(n.R) {
			il, err := Integrate(n.L)
			if err != nil {
				return nil, err
			}
			return &Binary{Op: '/', L: il, R: n.R}, nil
		}
		// c/x
		if !containsVar(n.L) {
			if _, isX := n.R.(*Var); isX {
				return &Binary{Op: '*', L: n.L, R: &Call{Fn: "ln", Args: []Expr{&Var{}}}}, nil
			}
		}
		return nil, fmt.Errorf("cannot integrate quotient")

	case '^':
		if _, isX := n.L.(*Var); isX && !containsVar(n.R) {
			p, err := evalNumeric(n.R)
			if err != nil {
				return nil, err
			}
			if p == -1 {
				return &Call{Fn: "ln", Args: []Expr{&Var{}}}, nil
			}
			return integratePower(p)
		}
		return nil, fmt.Errorf("cannot integrate power")
	}
	return nil, fmt.Errorf("unknown operator %q", string(n.Op))
}

// integratePower returns the antiderivative of x^p for p != -1.
func integratePower(p float64) (Expr, error) {
	return &Binary{Op: '/',
		L: &Binary{Op: '^', L: &Var{}, R: &Num{Val: p + 1}},
		R: &Num{Val: p + 1},
	}, nil
}
