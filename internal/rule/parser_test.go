package rule

import (
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Expr
	}{
		{
			name: "equality with string literal",
			src:  `sink.class == "sink.Jdbc"`,
			want: Comparison{Left: Ref{Name: "sink.class"}, Right: Literal{Value: "sink.Jdbc"}, Operator: OpEqual},
		},
		{
			name: "single quotes",
			src:  `sink.class != 'sink.Console'`,
			want: Comparison{Left: Ref{Name: "sink.class"}, Right: Literal{Value: "sink.Console"}, Operator: OpNotEqual},
		},
		{
			name: "negative number",
			src:  `retries != -1`,
			want: Comparison{Left: Ref{Name: "retries"}, Right: Literal{Value: "-1"}, Operator: OpNotEqual},
		},
		{
			name: "execution env",
			src:  `execution.env == "prod"`,
			want: Comparison{Left: EnvRef{}, Right: Literal{Value: "prod"}, Operator: OpEqual},
		},
		{
			name: "implication",
			src:  `execution.env == "prod" => checkpointing.interval == 60000`,
			want: Implication{
				Antecedent: Comparison{Left: EnvRef{}, Right: Literal{Value: "prod"}, Operator: OpEqual},
				Consequent: Comparison{Left: Ref{Name: "checkpointing.interval"}, Right: Literal{Value: "60000"}, Operator: OpEqual},
			},
		},
		{
			name: "unicode arrow and bare operand",
			src:  `sink.enabled ⇒ sink.db-url`,
			want: Implication{Antecedent: Ref{Name: "sink.enabled"}, Consequent: Ref{Name: "sink.db-url"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse("r", tt.src, nil)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(r.Expr, tt.want) {
				t.Errorf("Parse() = %#v, want %#v", r.Expr, tt.want)
			}
			if r.Name != "r" || r.Source != strings.TrimSpace(tt.src) {
				t.Errorf("Name/Source = %q/%q", r.Name, r.Source)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", "   "},
		{"unterminated string", `a == "prod`},
		{"dangling operator", `a ==`},
		{"dangling implication", `a == "x" =>`},
		{"trailing token", `a == b c`},
		{"trailing dot", `a. == b`},
		{"unexpected character", `a > 1`},
		{"double implication", `a => b => c`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse("r", tt.src, nil); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", tt.src)
			}
		})
	}
}

func TestParse_UndefinedRefs(t *testing.T) {
	names := []string{"sink.class", "sink.db.url"}

	if _, err := Parse("r", `sink.class == "x" => sink.db.url != ""`, names); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := Parse("r", `execution.env == "prod" => sink.class != ""`, names); err != nil {
		t.Fatalf("execution.env is not an entry: %v", err)
	}

	_, err := Parse("r", `retries == 1 => parallelism == 2`, names)
	if err == nil {
		t.Fatal("expected undefined reference error")
	}
	if !strings.Contains(err.Error(), "parallelism, retries") {
		t.Errorf("error = %v", err)
	}
}

func TestRefs(t *testing.T) {
	r, err := Parse("r", `b == a => execution.env != b`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := Refs(r.Expr); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Refs() = %v", got)
	}
}

func genName() gopter.Gen {
	return gen.SliceOfN(2, gen.Identifier()).Map(func(parts []string) string {
		return strings.Join(parts, ".")
	})
}

func genOperand() gopter.Gen {
	return gen.OneGenOf(
		genName().Map(func(n string) Expr { return Ref{Name: n} }),
		gen.AlphaString().Map(func(s string) Expr { return Literal{Value: s} }),
		gen.Int64().Map(func(n int64) Expr { return Literal{Value: strconv.FormatInt(n, 10)} }),
		gen.Const(Expr(EnvRef{})),
	)
}

func genComparison() gopter.Gen {
	return gopter.CombineGens(genOperand(), genOperand(), gen.Bool()).Map(func(vals []interface{}) Expr {
		op := OpEqual
		if vals[2].(bool) {
			op = OpNotEqual
		}
		return Comparison{Left: vals[0].(Expr), Right: vals[1].(Expr), Operator: op}
	})
}

// For any rule, formatting and parsing again yields the same expression.
func TestFormatParse_RoundTrip_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("parse(format(e)) == e", prop.ForAll(
		func(ant, con Expr, implication bool) bool {
			expr := con
			if implication {
				expr = Implication{Antecedent: ant, Consequent: con}
			}
			r, err := Parse("r", Format(expr), nil)
			if err != nil {
				t.Logf("parse %q: %v", Format(expr), err)
				return false
			}
			return reflect.DeepEqual(r.Expr, expr)
		},
		genComparison(),
		genComparison(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
