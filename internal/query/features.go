// Package query builds the composable list query shared by every collection
// endpoint: keyword search, field filters and pagination over a base SELECT.
// Stages are pure and only record intent; SQL and args materialize at Build.
package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"storefront-service/internal/apperr"
)

// Reserved parameter names stripped before filtering.
const (
	ParamKeyword = "keyword"
	ParamPage    = "page"
	ParamLimit   = "limit"
)

// Params holds raw request parameters. A value is either a scalar (equality
// match) or a map of range operators (gt, gte, lt, lte) to numeric operands.
type Params map[string]interface{}

var rangeOperators = map[string]string{
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
}

type condition struct {
	column   string
	operator string
	operand  interface{}
}

// Builder accumulates query features. The zero value is not usable; construct
// with New, naming the column keyword search applies to and the columns
// callers may filter on. Parameters naming other columns are ignored.
type Builder struct {
	searchColumn string
	allowed      map[string]bool
	keyword      string
	raw          Params
	page         int
	perPage      int
}

// New creates a builder. searchColumn receives the keyword constraint;
// filterable lists the columns open to equality and range filters.
func New(searchColumn string, filterable ...string) *Builder {
	allowed := make(map[string]bool, len(filterable))
	for _, c := range filterable {
		allowed[c] = true
	}
	return &Builder{searchColumn: searchColumn, allowed: allowed, page: 1}
}

// Search constrains results to rows whose search column contains keyword,
// case-insensitively. An empty keyword is a no-op.
func (b *Builder) Search(keyword string) *Builder {
	b.keyword = strings.TrimSpace(keyword)
	return b
}

// Filter records field constraints from params. Reserved parameters are
// stripped; validation of range operands is deferred to Build.
func (b *Builder) Filter(params Params) *Builder {
	if len(params) == 0 {
		return b
	}
	if b.raw == nil {
		b.raw = make(Params, len(params))
	}
	for k, v := range params {
		switch k {
		case ParamKeyword, ParamPage, ParamLimit:
			continue
		}
		b.raw[k] = v
	}
	return b
}

// Paginate records the 1-indexed page. Pages at or below zero fall back to
// the first page. The page is never capped against the result count; a page
// beyond the last yields an empty result set when executed.
func (b *Builder) Paginate(page, perPage int) *Builder {
	if page < 1 {
		page = 1
	}
	b.page = page
	b.perPage = perPage
	return b
}

// Query is the materialized statement, ready for the store to execute.
type Query struct {
	SQL  string
	Args []interface{}
}

// Build renders the recorded features onto baseSelect. Malformed range
// operands surface here as ValidationFailed, not at stage time.
func (b *Builder) Build(baseSelect string) (Query, error) {
	conds, err := b.conditions()
	if err != nil {
		return Query{}, err
	}

	var sb strings.Builder
	sb.WriteString(baseSelect)

	var args []interface{}
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		for i, c := range conds {
			if i > 0 {
				sb.WriteString(" AND ")
			}
			args = append(args, c.operand)
			fmt.Fprintf(&sb, "%s %s $%d", c.column, c.operator, len(args))
		}
	}

	sb.WriteString(" ORDER BY created_at DESC, id DESC")

	if b.perPage > 0 {
		args = append(args, b.perPage)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
		args = append(args, (b.page-1)*b.perPage)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	return Query{SQL: sb.String(), Args: args}, nil
}

// BuildCount renders only the filter conditions onto baseCount, for the
// total-count companion query. Pagination does not apply.
func (b *Builder) BuildCount(baseCount string) (Query, error) {
	conds, err := b.conditions()
	if err != nil {
		return Query{}, err
	}

	var sb strings.Builder
	sb.WriteString(baseCount)

	var args []interface{}
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		for i, c := range conds {
			if i > 0 {
				sb.WriteString(" AND ")
			}
			args = append(args, c.operand)
			fmt.Fprintf(&sb, "%s %s $%d", c.column, c.operator, len(args))
		}
	}

	return Query{SQL: sb.String(), Args: args}, nil
}

func (b *Builder) conditions() ([]condition, error) {
	var conds []condition

	if b.keyword != "" {
		conds = append(conds, condition{
			column:   b.searchColumn,
			operator: "ILIKE",
			operand:  "%" + b.keyword + "%",
		})
	}

	for field, value := range b.raw {
		if !b.allowed[field] {
			continue
		}
		switch v := value.(type) {
		case map[string]string:
			rc, err := rangeConditions(field, v)
			if err != nil {
				return nil, err
			}
			conds = append(conds, rc...)
		case map[string]interface{}:
			ops := make(map[string]string, len(v))
			for op, operand := range v {
				ops[op] = fmt.Sprintf("%v", operand)
			}
			rc, err := rangeConditions(field, ops)
			if err != nil {
				return nil, err
			}
			conds = append(conds, rc...)
		default:
			conds = append(conds, condition{column: field, operator: "=", operand: v})
		}
	}

	// Stable condition order for deterministic SQL.
	sortConditions(conds)
	return conds, nil
}

func rangeConditions(field string, ops map[string]string) ([]condition, error) {
	conds := make([]condition, 0, len(ops))
	for op, operand := range ops {
		sqlOp, ok := rangeOperators[op]
		if !ok {
			return nil, apperr.Validationf("unknown range operator %q on field %q", op, field)
		}
		n, err := strconv.ParseFloat(operand, 64)
		if err != nil {
			return nil, apperr.Validationf("non-numeric operand %q for %s.%s", operand, field, op)
		}
		conds = append(conds, condition{column: field, operator: sqlOp, operand: n})
	}
	sortConditions(conds)
	return conds, nil
}

func sortConditions(conds []condition) {
	sort.Slice(conds, func(i, j int) bool {
		if conds[i].column != conds[j].column {
			return conds[i].column < conds[j].column
		}
		return conds[i].operator < conds[j].operator
	})
}
