package rule

import (
	"fmt"
)

// Context provides the values a rule is evaluated against.
type Context struct {
	Values map[string]string // rendered configuration values
	Env    string            // value of execution.env
}

// Evaluate evaluates r against ctx.
//
// Comparisons compare rendered values as strings. A bare operand holds
// when its value is neither empty nor "false".
func Evaluate(r Rule, ctx Context) Result {
	passed, left, right, msg := evalExpr(r.Expr, ctx)
	return Result{
		Name:       r.Name,
		Rule:       r.Source,
		Passed:     passed,
		LeftValue:  left,
		RightValue: right,
		Message:    msg,
	}
}

// EvaluateAll evaluates every rule, in order, and returns all results.
func EvaluateAll(rules []Rule, ctx Context) []Result {
	results := make([]Result, 0, len(rules))
	for _, r := range rules {
		results = append(results, Evaluate(r, ctx))
	}
	return results
}

// Violations returns the failed results.
func Violations(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func evalExpr(expr Expr, ctx Context) (passed bool, left, right, message string) {
	switch e := expr.(type) {
	case Implication:
		return evalImplication(e, ctx)
	case Comparison:
		return evalComparison(e, ctx)
	case Ref, EnvRef, Literal:
		val := value(e, ctx)
		passed = truthy(val)
		if !passed {
			message = fmt.Sprintf("'%s' is not set", Format(e))
		}
		return passed, val, "", message
	default:
		return false, "", "", "unknown expression type"
	}
}

func evalImplication(impl Implication, ctx Context) (passed bool, left, right, message string) {
	antPassed, antLeft, antRight, _ := evalExpr(impl.Antecedent, ctx)
	conPassed, conLeft, conRight, _ := evalExpr(impl.Consequent, ctx)

	passed = !antPassed || conPassed

	left = antLeft
	if left == "" {
		left = antRight
	}
	right = conLeft
	if right == "" {
		right = conRight
	}

	if !passed {
		message = fmt.Sprintf("condition '%s' is true but '%s' is false",
			Format(impl.Antecedent), Format(impl.Consequent))
	}
	return passed, left, right, message
}

func evalComparison(comp Comparison, ctx Context) (passed bool, left, right, message string) {
	left = value(comp.Left, ctx)
	right = value(comp.Right, ctx)

	switch comp.Operator {
	case OpEqual:
		passed = left == right
		if !passed {
			message = fmt.Sprintf("'%s' != '%s'", left, right)
		}
	case OpNotEqual:
		passed = left != right
		if !passed {
			message = fmt.Sprintf("'%s' == '%s'", left, right)
		}
	default:
		message = fmt.Sprintf("unknown operator: %s", comp.Operator)
	}
	return passed, left, right, message
}

func value(expr Expr, ctx Context) string {
	switch e := expr.(type) {
	case Ref:
		return ctx.Values[e.Name]
	case EnvRef:
		return ctx.Env
	case Literal:
		return e.Value
	case Comparison, Implication:
		passed, _, _, _ := evalExpr(e, ctx)
		if passed {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func truthy(s string) bool {
	return s != "" && s != "false"
}
