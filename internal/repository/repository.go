package repository

import (
	"context"
	"database/sql"
	"time"

	sd "shopfloor_dashboard"
	"shopfloor_dashboard/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*sd.User, error)
}

// ActionRepo is the audit trail of manual operator actions.
type ActionRepo interface {
	Append(ctx context.Context, a models.OperatorAction) error
	List(ctx context.Context, from, to time.Time, outcome string) ([]models.OperatorAction, error)
}

type Repository struct {
	ActionRepo ActionRepo
	Auth       Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		ActionRepo: NewActionSQLite(db),
		Auth:       NewUserRepository(db),
	}
}
