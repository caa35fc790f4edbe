package sqlgen

import (
	"errors"
	"strconv"
	"strings"
)

// Builder assembles SQL SELECT statements from structured input with a fixed
// clause order: SELECT, FROM (with the orders-to-customers join), WHERE,
// GROUP BY, ORDER BY, LIMIT. Construction is deterministic and side-effect
// free.
//
// The builder performs no escaping on condition strings: the argument
// extractor's generation constraints are the trust boundary for WHERE input.
type Builder struct {
	selectFields []string
	whereConds   []string
	groupBy      []string
	orderBy      []string
	limit        int
}

// ErrEmptySelect is returned by Build when no select fields were given.
var ErrEmptySelect = errors.New("SELECT clause is required")

// fromClause is the fixed source: orders joined to customers.
const fromClause = "FROM orders o LEFT JOIN customers c ON o.customer_id = c.customer_id"

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Select adds fields to the SELECT clause.
func (b *Builder) Select(fields []string) *Builder {
	b.selectFields = append(b.selectFields, fields...)
	return b
}

// Where adds conditions to the WHERE clause; they are joined with AND.
func (b *Builder) Where(conditions []string) *Builder {
	b.whereConds = append(b.whereConds, conditions...)
	return b
}

// GroupBy adds fields to the GROUP BY clause.
func (b *Builder) GroupBy(fields []string) *Builder {
	b.groupBy = append(b.groupBy, fields...)
	return b
}

// OrderBy adds fields to the ORDER BY clause.
func (b *Builder) OrderBy(fields []string) *Builder {
	b.orderBy = append(b.orderBy, fields...)
	return b
}

// Limit sets the LIMIT clause. Non-positive values leave the clause out.
func (b *Builder) Limit(count int) *Builder {
	b.limit = count
	return b
}

// Build assembles the final SQL string. It fails only when the SELECT
// clause is empty; identical input always yields byte-identical output.
func (b *Builder) Build() (string, error) {
	if len(b.selectFields) == 0 {
		return "", ErrEmptySelect
	}

	parts := []string{
		"SELECT", strings.Join(b.selectFields, ", "),
		fromClause,
	}

	if len(b.whereConds) > 0 {
		conds := make([]string, 0, len(b.whereConds))
		for _, cond := range b.whereConds {
			conds = append(conds, castJSONDateCondition(cond))
		}
		parts = append(parts, "WHERE", strings.Join(conds, " AND "))
	}

	if len(b.groupBy) > 0 {
		parts = append(parts, "GROUP BY", strings.Join(b.groupBy, ", "))
	}

	if len(b.orderBy) > 0 {
		parts = append(parts, "ORDER BY", strings.Join(b.orderBy, ", "))
	}

	if b.limit > 0 {
		parts = append(parts, "LIMIT", strconv.Itoa(b.limit))
	}

	return strings.Join(parts, " ") + ";", nil
}

// Reset returns the builder to its empty state for reuse.
func (b *Builder) Reset() *Builder {
	b.selectFields = nil
	b.whereConds = nil
	b.groupBy = nil
	b.orderBy = nil
	b.limit = 0
	return b
}

// castJSONDateCondition rewrites conditions that compare a JSON field
// extraction against a value, e.g.
//
//	o.action_json->>'shipped' >= '2025-05-01'
//
// into a date-cast comparison: (o.action_json->>'shipped')::date >= ...
// The action_json values are stored as text, so range filters need the
// cast to compare as calendar dates. Conditions not matching the pattern
// pass through unchanged.
func castJSONDateCondition(condition string) string {
	if !strings.Contains(condition, "->>") {
		return condition
	}
	hasComparison := false
	for _, op := range []string{">=", "<=", ">", "<"} {
		if strings.Contains(condition, op) {
			hasComparison = true
			break
		}
	}
	if !hasComparison {
		return condition
	}

	parts := strings.SplitN(condition, " ", 3)
	if len(parts) != 3 {
		return condition
	}
	return "(" + parts[0] + ")::date " + parts[1] + " " + parts[2]
}
