// Package rule checks constraints that span several configuration entries,
// such as "sink.class == \"sink.Jdbc\" => sink.db.url != \"\"". Rules are
// declared next to the entries in a schema and evaluated against the
// rendered values of a resolved configuration.
package rule

// Expr is a node of a parsed rule.
type Expr interface {
	isExpr()
}

// Op is a comparison operator.
type Op string

const (
	OpEqual    Op = "=="
	OpNotEqual Op = "!="
)

// Implication is A => B: it holds when A is false or B is true.
type Implication struct {
	Antecedent Expr
	Consequent Expr
}

func (Implication) isExpr() {}

// Comparison is A == B or A != B over rendered values.
type Comparison struct {
	Left     Expr
	Right    Expr
	Operator Op
}

func (Comparison) isExpr() {}

// Ref refers to a configuration entry by name.
type Ref struct {
	Name string
}

func (Ref) isExpr() {}

// EnvRef is execution.env, the deployment environment the configuration
// is checked for (CONFDEF_ENV in the CLI).
type EnvRef struct{}

func (EnvRef) isExpr() {}

// Literal is a quoted string or a number.
type Literal struct {
	Value string
}

func (Literal) isExpr() {}

// Rule is a named, parsed rule.
type Rule struct {
	Name   string
	Source string // the rule as written
	Expr   Expr
}

// Result is the outcome of evaluating one rule.
type Result struct {
	Name       string `json:"name"`
	Rule       string `json:"rule"`
	Passed     bool   `json:"passed"`
	LeftValue  string `json:"leftValue"`
	RightValue string `json:"rightValue"`
	Message    string `json:"message,omitempty"`
}
