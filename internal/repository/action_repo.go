package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"shopfloor_dashboard/internal/models"

	"github.com/google/uuid"
)

// sqliteTimeLayout matches the SQLite TIMESTAMP text format and sorts lexically.
const sqliteTimeLayout = "2006-01-02 15:04:05.000"

const insertActionSQL = `INSERT INTO operator_actions (id, occurred_at, type, incident_id, user_id, outcome, error) VALUES (?, ?, ?, ?, ?, ?, ?)`

const selectActionsSQL = `SELECT id, occurred_at, type, incident_id, user_id, outcome, error FROM operator_actions`

type ActionSQLite struct {
	db *sql.DB
}

func NewActionSQLite(db *sql.DB) *ActionSQLite { return &ActionSQLite{db: db} }

var _ ActionRepo = (*ActionSQLite)(nil)

// Append inserts a new action. If ActionID or OccurredAt are empty, they're set.
func (r *ActionSQLite) Append(ctx context.Context, a models.OperatorAction) error {
	if a.ActionID == "" {
		a.ActionID = uuid.NewString()
	}
	if a.OccurredAt.IsZero() {
		a.OccurredAt = time.Now().UTC()
	}

	var errPtr *string
	if a.Error != "" {
		errPtr = &a.Error
	}

	_, err := r.db.ExecContext(ctx, insertActionSQL,
		a.ActionID,
		a.OccurredAt.UTC().Format(sqliteTimeLayout),
		a.Type,
		a.IncidentID,
		a.UserID,
		strings.ToLower(strings.TrimSpace(a.Outcome)),
		errPtr,
	)
	if err != nil {
		return fmt.Errorf("insert operator action %q: %w", a.ActionID, err)
	}
	return nil
}

// List returns actions filtered by [from, to] (inclusive) and/or outcome, newest first.
func (r *ActionSQLite) List(ctx context.Context, from, to time.Time, outcome string) ([]models.OperatorAction, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC().Format(sqliteTimeLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC().Format(sqliteTimeLayout))
	}
	if outcome = strings.ToLower(strings.TrimSpace(outcome)); outcome != "" {
		conds = append(conds, "outcome = ?")
		args = append(args, outcome)
	}

	q := selectActionsSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query operator actions: %w", err)
	}
	defer rows.Close()

	out := make([]models.OperatorAction, 0, 32)
	for rows.Next() {
		var (
			a      models.OperatorAction
			errStr sql.NullString
		)
		if err := rows.Scan(&a.ActionID, &a.OccurredAt, &a.Type, &a.IncidentID, &a.UserID, &a.Outcome, &errStr); err != nil {
			return nil, fmt.Errorf("scan operator action: %w", err)
		}
		a.OccurredAt = a.OccurredAt.UTC()
		if errStr.Valid {
			a.Error = errStr.String
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
