package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

// Policy decides what an insert does when the conflict key already exists.
type Policy int

const (
	// DoNothing keeps the stored row and reports no error.
	DoNothing Policy = iota
	// DoUpdate overwrites the listed columns with the incoming values.
	DoUpdate
)

// Conflict declares the conflict key of an upsert and how to resolve it.
type Conflict struct {
	Columns []string
	Policy  Policy
	Update  []string
}

// Ignore returns a conflict that never overwrites.
func Ignore(columns ...string) Conflict {
	return Conflict{Columns: columns, Policy: DoNothing}
}

// Overwrite returns a conflict that replaces update columns with the incoming row.
func Overwrite(columns []string, update ...string) Conflict {
	return Conflict{Columns: columns, Policy: DoUpdate, Update: update}
}

func (c Conflict) apply(q *bun.InsertQuery) *bun.InsertQuery {
	target := strings.Join(c.Columns, ", ")
	if c.Policy == DoNothing || len(c.Update) == 0 {
		return q.On(fmt.Sprintf("CONFLICT (%s) DO NOTHING", target))
	}

	q = q.On(fmt.Sprintf("CONFLICT (%s) DO UPDATE", target))
	for _, col := range c.Update {
		q = q.Set(fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	return q
}

// batchSize keeps statements well under SQLite and PostgreSQL bind limits.
const batchSize = 500

func chunk[T any](rows []T, size int) [][]T {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		out = append(out, rows[start:end])
	}
	return out
}

// insert writes rows in batches, applying the conflict when given, and
// returns how many rows the database reports as written.
func insert[T any](ctx context.Context, db bun.IDB, rows []T, conflict *Conflict) (int64, error) {
	var written int64
	for _, batch := range chunk(rows, batchSize) {
		q := db.NewInsert().Model(&batch)
		if conflict != nil {
			q = conflict.apply(q)
		}
		res, err := q.Exec(ctx)
		if err != nil {
			return written, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}
