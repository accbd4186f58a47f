package service

import (
	"context"
	"time"

	"shopfloor_dashboard/internal/logger"
	"shopfloor_dashboard/internal/metrics"
	"shopfloor_dashboard/internal/models"
	"shopfloor_dashboard/internal/repository"
	"shopfloor_dashboard/internal/store"
	"shopfloor_dashboard/internal/stream"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Resolution exposes the manual safety resolution action.
type Resolution interface {
	Resolve(ctx context.Context, incidentID string, userID int) (models.OperatorAction, error)
}

// Projection exposes the read-only dashboard view.
type Projection interface {
	View() models.DashboardView
	Version() uint64
}

// ActionLog exposes the operator audit trail with filtering access.
type ActionLog interface {
	List(ctx context.Context, f ActionFilter) ([]models.OperatorAction, error)
}

// Lifecycle owns the background sync loops.
// Stop via Stop() in main() for graceful shutdown.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop()
	Reload()
}

// Backend is everything the sync core needs from the backend API.
type Backend interface {
	SnapshotSource
	Publisher
}

// Service aggregates all sub-services.
type Service struct {
	Authorization
	Resolution
	Projection
	ActionLog
	Lifecycle
}

// Deps carries the collaborators NewService wires together.
type Deps struct {
	Repos            *repository.Repository
	Backend          Backend
	Limits           store.Limits
	Stream           stream.Config
	SnapshotInterval time.Duration
	Auth             AuthConfig
	Log              *logger.Logger
	Metrics          *metrics.Metrics
}

// NewService builds the stores, the reconciliation coordinator and both sync
// sources, and exposes them through the sub-service interfaces.
func NewService(d Deps) *Service {
	if d.Log == nil {
		d.Log = logger.NewNop()
	}

	state := store.New(d.Limits)
	coord := NewCoordinator(state, d.Log, d.Metrics)
	loader := NewSnapshotLoader(d.Backend, coord, d.Log, d.Metrics)
	listener := stream.NewListener(d.Stream, coord, coord, d.Log, d.Metrics)
	dash := NewDashboard(loader, listener, coord, d.SnapshotInterval, d.Log)

	return &Service{
		Authorization: NewAuthService(d.Repos.Auth, d.Auth),
		Resolution:    NewResolutionService(state, d.Backend, dash, d.Repos.ActionRepo, d.Log, d.Metrics),
		Projection:    NewProjector(state, coord),
		ActionLog:     NewActionLogService(d.Repos.ActionRepo),
		Lifecycle:     dash,
	}
}
