package store

import (
	"fmt"
	"strings"
)

// Op is a comparison operator.
type Op string

const (
	OpEq   Op = "="
	OpLt   Op = "<"
	OpLte  Op = "<="
	OpGte  Op = ">="
	OpLike Op = "LIKE"
)

// Filter is one field comparison.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Condition is a conjunction of filters plus an ordering.
// A nil *Condition matches everything.
type Condition struct {
	filters []Filter
	order   string
	desc    bool
}

// Where starts an empty condition.
func Where() *Condition { return &Condition{} }

func (c *Condition) add(field string, op Op, v any) *Condition {
	c.filters = append(c.filters, Filter{Field: field, Op: op, Value: v})
	return c
}

// Eq adds field = v.
func (c *Condition) Eq(field string, v any) *Condition { return c.add(field, OpEq, v) }

// Lt adds field < v.
func (c *Condition) Lt(field string, v any) *Condition { return c.add(field, OpLt, v) }

// Lte adds field <= v.
func (c *Condition) Lte(field string, v any) *Condition { return c.add(field, OpLte, v) }

// Gte adds field >= v.
func (c *Condition) Gte(field string, v any) *Condition { return c.add(field, OpGte, v) }

// Like adds field LIKE pattern.
func (c *Condition) Like(field, pattern string) *Condition { return c.add(field, OpLike, pattern) }

// OrderBy sets the ordering field.
func (c *Condition) OrderBy(field string, desc bool) *Condition {
	c.order, c.desc = field, desc
	return c
}

// Filters returns a copy of the filters.
func (c *Condition) Filters() []Filter {
	if c == nil {
		return nil
	}
	return append([]Filter(nil), c.filters...)
}

// Placeholder renders the n-th (1-based) bind parameter.
type Placeholder func(n int) string

// Question renders "?" placeholders (sqlite).
func Question(int) string { return "?" }

// Dollar renders "$n" placeholders (postgres).
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// SQL renders the WHERE and ORDER BY clauses. columns maps field names to
// column names; a field missing from columns is an error. start is the index
// of the first placeholder. defaultOrder is used when no ordering was set.
func (c *Condition) SQL(columns map[string]string, ph Placeholder, start int, defaultOrder string) (where, order string, args []any, err error) {
	var parts []string
	if c != nil {
		for _, f := range c.filters {
			col, ok := columns[f.Field]
			if !ok {
				return "", "", nil, fmt.Errorf("store: unknown field %q", f.Field)
			}
			parts = append(parts, fmt.Sprintf("%s %s %s", col, f.Op, ph(start+len(args))))
			args = append(args, f.Value)
		}
	}
	if len(parts) > 0 {
		where = " WHERE " + strings.Join(parts, " AND ")
	}

	orderCol := defaultOrder
	desc := false
	if c != nil && c.order != "" {
		col, ok := columns[c.order]
		if !ok {
			return "", "", nil, fmt.Errorf("store: unknown order field %q", c.order)
		}
		orderCol, desc = col, c.desc
	}
	if orderCol != "" {
		order = " ORDER BY " + orderCol
		if desc {
			order += " DESC"
		}
	}
	return where, order, args, nil
}
