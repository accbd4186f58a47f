package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"shopfloor_dashboard/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newActionRepo(t *testing.T) (*ActionSQLite, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewActionSQLite(db), mock
}

var actionCols = []string{"id", "occurred_at", "type", "incident_id", "user_id", "outcome", "error"}

func TestActionAppend_Success_WithDefaults(t *testing.T) {
	t.Parallel()

	repo, mock := newActionRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(insertActionSQL)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(),
			"safety_resolve", "S-9", 3, "published",
			nil,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(ctx(t), models.OperatorAction{
		Type:       "safety_resolve",
		IncidentID: "S-9",
		UserID:     3,
		Outcome:    " Published ",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestActionAppend_KeepsGivenIDTimeAndError(t *testing.T) {
	t.Parallel()

	repo, mock := newActionRepo(t)
	at := time.Date(2025, 3, 4, 5, 6, 7, 8_000_000, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(insertActionSQL)).
		WithArgs("a-1", "2025-03-04 05:06:07.008", "safety_resolve", "S-1", 1, "failed", "backend down").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(ctx(t), models.OperatorAction{
		ActionID:   "a-1",
		OccurredAt: at,
		Type:       "safety_resolve",
		IncidentID: "S-1",
		UserID:     1,
		Outcome:    models.OutcomeFailed,
		Error:      "backend down",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestActionAppend_DBError(t *testing.T) {
	t.Parallel()

	repo, mock := newActionRepo(t)

	mock.ExpectExec("INSERT INTO operator_actions").
		WillReturnError(errors.New("down"))

	err := repo.Append(ctx(t), models.OperatorAction{Type: "safety_resolve", IncidentID: "S-1"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected error, got %v", err)
	}
}

func TestActionList_NoFilters(t *testing.T) {
	t.Parallel()

	repo, mock := newActionRepo(t)

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(actionCols).
		AddRow("2", now.Add(time.Minute), "safety_resolve", "S-2", 1, "failed", "timeout").
		AddRow("1", now, "safety_resolve", "S-1", 1, "published", nil)

	mock.ExpectQuery(regexp.QuoteMeta(selectActionsSQL + ` ORDER BY occurred_at DESC`)).
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2, got %d", len(got))
	}
	if got[0].ActionID != "2" || got[0].Error != "timeout" {
		t.Fatalf("unexpected first row: %+v", got[0])
	}
	if got[1].Error != "" {
		t.Fatalf("expected empty error for NULL column, got %q", got[1].Error)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestActionList_WithFilters(t *testing.T) {
	t.Parallel()

	repo, mock := newActionRepo(t)

	from := time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	query := selectActionsSQL + ` WHERE occurred_at >= ? AND occurred_at <= ? AND outcome = ? ORDER BY occurred_at DESC`
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("2025-01-01 11:00:00.000", "2025-01-01 12:00:00.000", "failed").
		WillReturnRows(sqlmock.NewRows(actionCols).
			AddRow("3", to, "safety_resolve", "S-3", 2, "failed", "boom"))

	got, err := repo.List(ctx(t), from, to, " FAILED ")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ActionID != "3" || got[0].UserID != 2 {
		t.Fatalf("unexpected results: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestActionList_ScanError(t *testing.T) {
	t.Parallel()

	repo, mock := newActionRepo(t)

	rows := sqlmock.NewRows(actionCols).
		AddRow("x", 123, "safety_resolve", "S-1", "not-an-int", "published", nil)
	mock.ExpectQuery(regexp.QuoteMeta(selectActionsSQL)).
		WillReturnRows(rows)

	if _, err := repo.List(ctx(t), time.Time{}, time.Time{}, ""); err == nil {
		t.Fatalf("expected scan error, got nil")
	}
}

func TestActionList_QueryError(t *testing.T) {
	t.Parallel()

	repo, mock := newActionRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectActionsSQL)).
		WillReturnError(sql.ErrConnDone)

	_, err := repo.List(ctx(t), time.Time{}, time.Time{}, "")
	if !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("expected wrapped ErrConnDone, got %v", err)
	}
}
