package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/neolms-api/pkg/ordering"
)

// positionScope describes a table whose rows are ordered by position within a parent row.
type positionScope struct {
	table        string
	parentTable  string
	parentColumn string
}

var (
	chapterPositions = positionScope{table: "chapters", parentTable: "courses", parentColumn: "course_id"}
	lessonPositions  = positionScope{table: "lessons", parentTable: "chapters", parentColumn: "chapter_id"}
)

// lockParent takes a row lock on the parent so sibling mutations serialize.
func (s positionScope) lockParent(ctx context.Context, tx *sqlx.Tx, parentID string) error {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE id = $1 FOR UPDATE`, s.parentTable)
	var id string
	if err := tx.GetContext(ctx, &id, query, parentID); err != nil {
		if err == sql.ErrNoRows {
			return ErrParentNotFound
		}
		return fmt.Errorf("lock %s: %w", s.parentTable, err)
	}
	return nil
}

func (s positionScope) nextPosition(ctx context.Context, tx *sqlx.Tx, parentID string) (int, error) {
	query := fmt.Sprintf(`SELECT MAX(position) FROM %s WHERE %s = $1`, s.table, s.parentColumn)
	var max sql.NullInt64
	if err := tx.GetContext(ctx, &max, query, parentID); err != nil {
		return 0, fmt.Errorf("max %s position: %w", s.table, err)
	}
	var current *int
	if max.Valid {
		v := int(max.Int64)
		current = &v
	}
	return ordering.NextPosition(current), nil
}

func (s positionScope) siblings(ctx context.Context, tx *sqlx.Tx, parentID string) ([]ordering.Item, error) {
	query := fmt.Sprintf(`SELECT id, position FROM %s WHERE %s = $1 ORDER BY position ASC, created_at ASC`, s.table, s.parentColumn)
	var items []ordering.Item
	if err := tx.SelectContext(ctx, &items, query, parentID); err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table, err)
	}
	return items, nil
}

// deleteAndCompact removes targetID and renumbers the remaining siblings 1..N-1.
func (s positionScope) deleteAndCompact(ctx context.Context, tx *sqlx.Tx, parentID, targetID string) error {
	items, err := s.siblings(ctx, tx, parentID)
	if err != nil {
		return err
	}
	updates, err := ordering.Compact(items, targetID)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND %s = $2`, s.table, s.parentColumn)
	if _, err := tx.ExecContext(ctx, query, targetID, parentID); err != nil {
		return fmt.Errorf("delete %s: %w", s.table, err)
	}
	if len(updates) == 0 {
		return nil
	}
	return s.applyPositions(ctx, tx, parentID, updates)
}

// reorder validates a client ordering against the current children and writes it in one statement.
func (s positionScope) reorder(ctx context.Context, tx *sqlx.Tx, parentID string, items []ordering.Item) error {
	current, err := s.siblings(ctx, tx, parentID)
	if err != nil {
		return err
	}
	ids := make([]string, len(current))
	for i, it := range current {
		ids[i] = it.ID
	}
	if err := ordering.ValidateReorder(items, ids); err != nil {
		return err
	}
	return s.applyPositions(ctx, tx, parentID, items)
}

func (s positionScope) applyPositions(ctx context.Context, tx *sqlx.Tx, parentID string, items []ordering.Item) error {
	values := make([]string, 0, len(items))
	args := make([]interface{}, 0, len(items)*2+2)
	args = append(args, parentID, time.Now().UTC())
	for _, it := range items {
		values = append(values, fmt.Sprintf("($%d::uuid, $%d::int)", len(args)+1, len(args)+2))
		args = append(args, it.ID, it.Position)
	}
	query := fmt.Sprintf(`UPDATE %s AS t SET position = v.position, updated_at = $2 FROM (VALUES %s) AS v(id, position) WHERE t.id = v.id AND t.%s = $1`,
		s.table, strings.Join(values, ", "), s.parentColumn)

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s positions: %w", s.table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s positions: %w", s.table, err)
	}
	if affected != int64(len(items)) {
		return fmt.Errorf("%w: updated %d of %d %s", ordering.ErrUnknownID, affected, len(items), s.table)
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back when fn or commit fails.
func withTx(ctx context.Context, db *sqlx.DB, label string, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s transaction: %w", label, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", label, err)
	}
	return nil
}
