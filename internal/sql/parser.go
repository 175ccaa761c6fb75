package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blastrain/vitess-sqlparser/sqlparser"
)

// Query is a checksum request written as SQL:
//
//	SELECT * FROM raft_log WHERE k BETWEEN 2 AND 5 LIMIT 10
//
// Only inclusive bounds on a single key column are understood.
type Query struct {
	Table    string
	StartKey *string
	EndKey   *string
	Limit    int
}

// ParseQuery parses a SQL string into a Query.
func ParseQuery(sql string) (*Query, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, err
	}

	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, fmt.Errorf("unsupported statement type: %T", stmt)
	}
	return buildQuery(sel)
}

func buildQuery(stmt *sqlparser.Select) (*Query, error) {
	if len(stmt.From) != 1 {
		return nil, fmt.Errorf("exactly one table is required in FROM")
	}
	aliasedTable, ok := stmt.From[0].(*sqlparser.AliasedTableExpr)
	if !ok {
		return nil, fmt.Errorf("complex FROM clauses not supported")
	}

	q := &Query{}
	switch tn := aliasedTable.Expr.(type) {
	case sqlparser.TableName:
		q.Table = tn.Name.String()
	default:
		q.Table = sqlparser.String(aliasedTable.Expr)
	}

	if stmt.GroupBy != nil || stmt.Having != nil || stmt.OrderBy != nil {
		return nil, fmt.Errorf("GROUP BY, HAVING and ORDER BY are not supported; records are always walked in key order")
	}

	if stmt.Where != nil {
		b := &bounds{q: q}
		if err := b.add(stmt.Where.Expr); err != nil {
			return nil, err
		}
	}

	if stmt.Limit != nil {
		if stmt.Limit.Offset != nil {
			return nil, fmt.Errorf("OFFSET is not supported")
		}
		n, err := intLiteral(stmt.Limit.Rowcount)
		if err != nil {
			return nil, fmt.Errorf("LIMIT: %w", err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("LIMIT must be positive, got %d", n)
		}
		q.Limit = n
	}

	return q, nil
}

// bounds collects inclusive key bounds from a WHERE tree.
type bounds struct {
	q      *Query
	column string
}

func (b *bounds) add(expr sqlparser.Expr) error {
	switch e := expr.(type) {
	case *sqlparser.ParenExpr:
		return b.add(e.Expr)
	case *sqlparser.AndExpr:
		if err := b.add(e.Left); err != nil {
			return err
		}
		return b.add(e.Right)
	case *sqlparser.RangeCond:
		if e.Operator != sqlparser.BetweenStr {
			return fmt.Errorf("unsupported range operator %q", e.Operator)
		}
		if err := b.useColumn(e.Left); err != nil {
			return err
		}
		from, err := keyLiteral(e.From)
		if err != nil {
			return err
		}
		to, err := keyLiteral(e.To)
		if err != nil {
			return err
		}
		if err := b.setStart(from); err != nil {
			return err
		}
		return b.setEnd(to)
	case *sqlparser.ComparisonExpr:
		if err := b.useColumn(e.Left); err != nil {
			return err
		}
		val, err := keyLiteral(e.Right)
		if err != nil {
			return err
		}
		switch e.Operator {
		case sqlparser.GreaterEqualStr:
			return b.setStart(val)
		case sqlparser.LessEqualStr:
			return b.setEnd(val)
		case sqlparser.EqualStr:
			if err := b.setStart(val); err != nil {
				return err
			}
			return b.setEnd(val)
		case sqlparser.GreaterThanStr, sqlparser.LessThanStr:
			return fmt.Errorf("exclusive bound %q not supported; use >= or <=", e.Operator)
		default:
			return fmt.Errorf("unsupported operator %q", e.Operator)
		}
	default:
		return fmt.Errorf("unsupported WHERE expression: %s", sqlparser.String(expr))
	}
}

func (b *bounds) useColumn(expr sqlparser.Expr) error {
	col, ok := expr.(*sqlparser.ColName)
	if !ok {
		return fmt.Errorf("left side of a condition must be the key column, got %s", sqlparser.String(expr))
	}
	name := col.Name.Lowered()
	if b.column == "" {
		b.column = name
		return nil
	}
	if b.column != name {
		return fmt.Errorf("conditions mix columns %q and %q; only the key column can be bounded", b.column, name)
	}
	return nil
}

func (b *bounds) setStart(v string) error {
	if b.q.StartKey != nil {
		return fmt.Errorf("start key given more than once")
	}
	b.q.StartKey = &v
	return nil
}

func (b *bounds) setEnd(v string) error {
	if b.q.EndKey != nil {
		return fmt.Errorf("end key given more than once")
	}
	b.q.EndKey = &v
	return nil
}

// keyLiteral turns a SQL literal into the textual key form the table
// codecs accept: numbers stay numbers, strings pass through, and hex
// literals become 0x-prefixed strings.
func keyLiteral(expr sqlparser.Expr) (string, error) {
	val, ok := expr.(*sqlparser.SQLVal)
	if !ok {
		return "", fmt.Errorf("key bound must be a literal, got %s", sqlparser.String(expr))
	}
	switch val.Type {
	case sqlparser.IntVal, sqlparser.FloatVal, sqlparser.StrVal:
		return string(val.Val), nil
	case sqlparser.HexVal, sqlparser.HexNum:
		s := strings.ToLower(string(val.Val))
		if !strings.HasPrefix(s, "0x") {
			s = "0x" + s
		}
		return s, nil
	default:
		return "", fmt.Errorf("unsupported literal %s", sqlparser.String(expr))
	}
}

func intLiteral(expr sqlparser.Expr) (int, error) {
	val, ok := expr.(*sqlparser.SQLVal)
	if !ok || val.Type != sqlparser.IntVal {
		return 0, fmt.Errorf("expected an integer, got %s", sqlparser.String(expr))
	}
	return strconv.Atoi(string(val.Val))
}
