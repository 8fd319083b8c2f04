// Package cel evaluates resolved queries against in-memory rows with CEL.
package cel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/draknorr/publisheriq-sub000/internal/query"
	"github.com/draknorr/publisheriq-sub000/pkg/model"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
)

// Matcher is a compiled query predicate.
type Matcher struct {
	expr string
	prg  cel.Program
}

// Compiler compiles queries into Matchers.
type Compiler struct {
	env *cel.Env
}

// NewCompiler creates a compiler over rows exposed as `doc`.
func NewCompiler() (*Compiler, error) {
	env, err := cel.NewEnv(
		cel.Variable("doc", cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
		ext.Strings(),
	)
	if err != nil {
		return nil, fmt.Errorf("CEL environment error: %w", err)
	}
	return &Compiler{env: env}, nil
}

// Compile builds a Matcher for q. A query without predicates matches all rows.
func (c *Compiler) Compile(q model.Query) (*Matcher, error) {
	expr, err := Expression(q)
	if err != nil {
		return nil, err
	}
	ast, issues := c.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compile error: %w", issues.Err())
	}
	prg, err := c.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program creation error: %w", err)
	}
	return &Matcher{expr: expr, prg: prg}, nil
}

// Expression returns the CEL source.
func (m *Matcher) Expression() string { return m.expr }

// Match evaluates the predicate against row.
func (m *Matcher) Match(row map[string]interface{}) (bool, error) {
	out, _, err := m.prg.Eval(map[string]interface{}{"doc": row})
	if err != nil {
		return false, err
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL result is not boolean: %T", out.Value())
	}
	return result, nil
}

// Filter returns the rows matching the predicate, in input order.
func (m *Matcher) Filter(rows []map[string]interface{}) ([]map[string]interface{}, error) {
	var out []map[string]interface{}
	for _, row := range rows {
		ok, err := m.Match(row)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, row)
		}
	}
	return out, nil
}

// Expression renders q as a CEL boolean expression. Rows missing a filtered
// column never match.
func Expression(q model.Query) (string, error) {
	var parts []string
	if q.Type != "" {
		parts = append(parts, guard(query.ColumnType, fmt.Sprintf("%s == %s", field(query.ColumnType), strconv.Quote(q.Type))))
	}
	for _, f := range q.Filters {
		expr, err := filterToExpression(f)
		if err != nil {
			return "", err
		}
		parts = append(parts, guard(f.Field, expr))
	}
	if len(parts) == 0 {
		return "true", nil
	}
	return strings.Join(parts, " && "), nil
}

func field(name string) string {
	return fmt.Sprintf("doc[%s]", strconv.Quote(name))
}

func guard(name, expr string) string {
	return fmt.Sprintf("(%s in doc && %s)", strconv.Quote(name), expr)
}

func filterToExpression(f model.Filter) (string, error) {
	col := field(f.Field)
	switch f.Op {
	case model.OpEq, model.OpGt, model.OpGte, model.OpLt, model.OpLte:
		val, err := formatValue(f.Value)
		if err != nil {
			return "", err
		}
		op := string(f.Op)
		if f.Op == model.OpEq {
			op = "=="
		}
		return fmt.Sprintf("%s %s %s", col, op, val), nil
	case model.OpIn:
		val, err := formatValue(f.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s in %s", col, val), nil
	case model.OpContainsAny:
		val, err := formatValue(f.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s.exists(x, x in %s)", col, val), nil
	case model.OpContainsAll:
		val, err := formatValue(f.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s.all(x, x in %s)", val, col), nil
	case model.OpSearch:
		s, ok := f.Value.(string)
		if !ok {
			return "", fmt.Errorf("search value for %s is not a string: %T", f.Field, f.Value)
		}
		return fmt.Sprintf("%s.lowerAscii().contains(%s)", col, strconv.Quote(strings.ToLower(s))), nil
	default:
		return "", fmt.Errorf("unsupported operator: %s", f.Op)
	}
}

func formatValue(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		s := strconv.FormatFloat(val, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s, nil
	case []string:
		quoted := make([]string, len(val))
		for i, s := range val {
			quoted[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(quoted, ", ") + "]", nil
	default:
		return "", fmt.Errorf("unsupported value type: %T", v)
	}
}
