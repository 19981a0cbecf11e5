// Package listparams parses the sort, range and filter query parameters sent
// by react-admin list views and renders them as SQL clauses.
//
//	sort=["title","ASC"]  range=[0,9]  filter={"role":"student","id":[1,2]}
package listparams

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"study-backend/apperr"
)

const (
	DefaultLimit = 50
	dateSuffix   = "_date"
)

type Op int

const (
	OpIsNull Op = iota
	OpEq
	OpGte
	OpPrefix
	OpIn
)

type Condition struct {
	Column string
	Op     Op
	Value  interface{}
}

// Columns describes a table for list queries: the filterable/sortable column
// names and which of them hold classifier values.
type Columns struct {
	Names       []string
	Classifiers map[string]bool
}

func (c Columns) has(name string) bool {
	for _, n := range c.Names {
		if n == name {
			return true
		}
	}
	return false
}

type Params struct {
	Skip       int
	Limit      int
	SortColumn string
	SortDesc   bool
	Conditions []Condition
}

// Default is what an empty query string parses to.
func Default() Params {
	return Params{Limit: DefaultLimit, SortColumn: "id", SortDesc: true}
}

// Parse reads the raw sort, range and filter query values. Empty values keep
// the defaults. Errors are 400s ready to return from a handler.
func Parse(sortQ, rangeQ, filterQ string, cols Columns) (Params, error) {
	p := Default()

	if rangeQ != "" {
		var r []int
		if err := json.Unmarshal([]byte(rangeQ), &r); err != nil || len(r) != 2 {
			return p, apperr.BadRequest(fmt.Sprintf("Invalid range %s", rangeQ))
		}
		if r[0] < 0 || r[1] < r[0] || r[1]-r[0] == math.MaxInt {
			return p, apperr.BadRequest(fmt.Sprintf("Invalid range %s", rangeQ))
		}
		p.Skip, p.Limit = r[0], r[1]-r[0]+1
	}

	if sortQ != "" {
		var s []string
		if err := json.Unmarshal([]byte(sortQ), &s); err != nil || len(s) != 2 {
			return p, apperr.BadRequest(fmt.Sprintf("Invalid sort %s", sortQ))
		}
		switch strings.ToLower(s[1]) {
		case "asc":
			p.SortDesc = false
		case "desc":
			p.SortDesc = true
		default:
			return p, apperr.BadRequest(fmt.Sprintf("Invalid sort direction %s", s[1]))
		}
		if !cols.has(s[0]) {
			return p, apperr.BadRequest(fmt.Sprintf("Invalid sort field %s", s[0]))
		}
		p.SortColumn = s[0]
	}

	if filterQ != "" {
		conds, err := parseFilter(filterQ, cols)
		if err != nil {
			return p, err
		}
		p.Conditions = conds
	}
	return p, nil
}

func parseFilter(filterQ string, cols Columns) ([]Condition, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(filterQ)))
	dec.UseNumber()
	var ft map[string]interface{}
	if err := dec.Decode(&ft); err != nil {
		return nil, apperr.BadRequest(fmt.Sprintf("Invalid filters %s", filterQ))
	}

	keys := make([]string, 0, len(ft))
	for k := range ft {
		// react-admin sometimes sends positional keys; they carry no column.
		if isDigits(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]Condition, 0, len(keys))
	for _, k := range keys {
		if !cols.has(k) {
			return nil, apperr.BadRequest(fmt.Sprintf("Invalid filter field %s", k))
		}
		c, err := condition(k, ft[k], cols)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return conds, nil
}

func condition(col string, v interface{}, cols Columns) (Condition, error) {
	invalid := apperr.BadRequest(fmt.Sprintf("Invalid filters %s=%v", col, v))

	switch val := v.(type) {
	case nil:
		return Condition{Column: col, Op: OpIsNull}, nil
	case string:
		switch {
		case cols.Classifiers[col]:
			return Condition{Column: col, Op: OpEq, Value: val}, nil
		case strings.HasSuffix(col, dateSuffix):
			t, err := parseISO(val)
			if err != nil {
				return Condition{}, invalid
			}
			return Condition{Column: col, Op: OpGte, Value: t}, nil
		default:
			return Condition{Column: col, Op: OpPrefix, Value: val}, nil
		}
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return Condition{}, invalid
		}
		return Condition{Column: col, Op: OpEq, Value: n}, nil
	case bool:
		return Condition{Column: col, Op: OpEq, Value: val}, nil
	case []interface{}:
		if len(val) > 0 {
			if inner, ok := val[0].([]interface{}); ok {
				val = inner
			}
		}
		list, err := inList(val)
		if err != nil {
			return Condition{}, invalid
		}
		return Condition{Column: col, Op: OpIn, Value: list}, nil
	}
	return Condition{}, invalid
}

// inList returns []int64 when every element is an integer (or a string of
// digits) and []string otherwise.
func inList(vals []interface{}) (interface{}, error) {
	ints := make([]int64, 0, len(vals))
	allInts := true
	for _, x := range vals {
		switch xv := x.(type) {
		case json.Number:
			n, err := xv.Int64()
			if err != nil {
				return nil, err
			}
			ints = append(ints, n)
		case string:
			if !isDigits(xv) {
				allInts = false
				break
			}
			n, err := strconv.ParseInt(xv, 10, 64)
			if err != nil {
				return nil, err
			}
			ints = append(ints, n)
		default:
			return nil, fmt.Errorf("unsupported list element %T", x)
		}
	}
	if allInts {
		return ints, nil
	}
	strs := make([]string, 0, len(vals))
	for _, x := range vals {
		strs = append(strs, fmt.Sprint(x))
	}
	return strs, nil
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseISO(s string) (time.Time, error) {
	var err error
	for _, layout := range isoLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Where renders the conditions as a WHERE clause. Placeholders continue after
// the args already passed in. An empty condition list renders as "".
func (p Params) Where(args []interface{}) (string, []interface{}) {
	return WhereConditions(p.Conditions, args)
}

// WhereConditions renders an arbitrary condition list, for callers that add
// their own conditions to the parsed ones.
func WhereConditions(conds []Condition, args []interface{}) (string, []interface{}) {
	if len(conds) == 0 {
		return "", args
	}
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		switch c.Op {
		case OpIsNull:
			parts = append(parts, c.Column+" IS NULL")
			continue
		case OpIn:
			if empty(c.Value) {
				parts = append(parts, "FALSE")
				continue
			}
		}
		args = append(args, c.Value)
		ph := "$" + strconv.Itoa(len(args))
		switch c.Op {
		case OpEq:
			parts = append(parts, c.Column+" = "+ph)
		case OpGte:
			parts = append(parts, c.Column+" >= "+ph)
		case OpPrefix:
			args[len(args)-1] = escapeLike(c.Value.(string)) + "%"
			parts = append(parts, c.Column+"::text ILIKE "+ph)
		case OpIn:
			if _, ok := c.Value.([]string); ok {
				parts = append(parts, c.Column+"::text = ANY("+ph+")")
			} else {
				parts = append(parts, c.Column+" = ANY("+ph+")")
			}
		}
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// Tail renders ORDER BY, LIMIT and OFFSET. The sort column has been checked
// against the table's columns by Parse.
func (p Params) Tail() string {
	dir := "ASC"
	if p.SortDesc {
		dir = "DESC"
	}
	col := p.SortColumn
	if col == "" {
		col = "id"
	}
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return fmt.Sprintf(" ORDER BY %s %s LIMIT %d OFFSET %d", col, dir, limit, p.Skip)
}

// ContentRange is the react-admin Content-Range header value for a page.
func ContentRange(skip, n, total int) string {
	return fmt.Sprintf("%d-%d/%d", skip, skip+n, total)
}

func empty(v interface{}) bool {
	switch l := v.(type) {
	case []int64:
		return len(l) == 0
	case []string:
		return len(l) == 0
	}
	return false
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
