package hook

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"

	"github.com/golobby/cast"
)

// Getter is implemented by values a selector can inspect.
type Getter interface {
	Get(key string) any
}

// Condition is one "field op value" term of a selector.
type Condition struct {
	Field    string
	Operator string
	Value    string
}

// Selector is a list of conditions that must all hold.
type Selector []Condition

var operators = []string{">=", "<=", "!=", "=", ">", "<"}

// ParseSelector parses "id>0, name!=home". An empty string yields an empty
// selector that matches everything.
func ParseSelector(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var sel Selector
	for _, term := range strings.Split(s, ",") {
		term = strings.TrimSpace(term)
		idx := strings.IndexAny(term, "=!<>")
		if idx <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSelector, term)
		}
		rest := term[idx:]
		op := ""
		for _, candidate := range operators {
			if strings.HasPrefix(rest, candidate) {
				op = candidate
				break
			}
		}
		if op == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSelector, term)
		}
		value := strings.TrimSpace(rest[len(op):])
		value = strings.Trim(value, `"'`)
		sel = append(sel, Condition{
			Field:    strings.TrimSpace(term[:idx]),
			Operator: op,
			Value:    value,
		})
	}
	return sel, nil
}

// Matches reports whether v satisfies every condition. Values that do not
// implement Getter only match the empty selector.
func (s Selector) Matches(v any) bool {
	if len(s) == 0 {
		return true
	}
	g, ok := v.(Getter)
	if !ok {
		return false
	}
	for _, c := range s {
		if !c.Matches(g.Get(c.Field)) {
			return false
		}
	}
	return true
}

func (s Selector) String() string {
	terms := make([]string, len(s))
	for i, c := range s {
		terms[i] = c.Field + c.Operator + c.Value
	}
	return strings.Join(terms, ", ")
}

// Matches compares actual against the condition value, converted to the type
// of actual.
func (c Condition) Matches(actual any) bool {
	if actual == nil {
		return compareOrdered("", c.Value, c.Operator)
	}

	want, err := cast.FromType(c.Value, reflect.TypeOf(actual))
	if err != nil {
		// not convertible: only textual equality is meaningful
		return compareOrdered(fmt.Sprint(actual), c.Value, c.Operator) && (c.Operator == "=" || c.Operator == "!=")
	}

	if a, ok := toFloat(actual); ok {
		w, _ := toFloat(want)
		return compareOrdered(a, w, c.Operator)
	}
	if a, ok := toString(actual); ok {
		w, _ := toString(want)
		return compareOrdered(a, w, c.Operator)
	}

	switch c.Operator {
	case "=":
		return reflect.DeepEqual(actual, want)
	case "!=":
		return !reflect.DeepEqual(actual, want)
	}
	return false
}

func compareOrdered[T cmp.Ordered](a, b T, op string) bool {
	r := cmp.Compare(a, b)
	switch op {
	case "=":
		return r == 0
	case "!=":
		return r != 0
	case ">":
		return r > 0
	case "<":
		return r < 0
	case ">=":
		return r >= 0
	case "<=":
		return r <= 0
	}
	return false
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func toString(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}
