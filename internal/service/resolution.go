package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	sd "shopfloor_dashboard"
	"shopfloor_dashboard/internal/logger"
	"shopfloor_dashboard/internal/metrics"
	"shopfloor_dashboard/internal/models"
	"shopfloor_dashboard/internal/repository"

	"github.com/google/uuid"
)

// Domain errors for the manual resolution action.
var (
	ErrIncidentNotFound = errors.New("safety incident not found")
	ErrPublishFailed    = errors.New("failed to publish resolve event")
)

// Publisher sends events to the backend. backend.Client implements it.
type Publisher interface {
	Publish(ctx context.Context, ev sd.PublishEvent) (sd.PublishAck, error)
}

// Reloader triggers an immediate snapshot refresh. Dashboard implements it.
type Reloader interface {
	Reload()
}

// IncidentLookup finds a displayed safety incident. store.State implements it.
type IncidentLookup interface {
	SafetyIncident(id string) (models.SafetyIncident, bool)
}

// ResolutionService publishes manual safety resolutions.
type ResolutionService struct {
	incidents IncidentLookup
	publisher Publisher
	reloader  Reloader
	actions   repository.ActionRepo
	log       *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewResolutionService builds the service. actions, log and m may be nil.
func NewResolutionService(incidents IncidentLookup, pub Publisher, reloader Reloader, actions repository.ActionRepo, log *logger.Logger, m *metrics.Metrics) *ResolutionService {
	if log == nil {
		log = logger.NewNop()
	}
	return &ResolutionService{
		incidents: incidents,
		publisher: pub,
		reloader:  reloader,
		actions:   actions,
		log:       log,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Resolve publishes a safety_resolve event for the incident and then always
// triggers an immediate reload, without waiting for the stream's
// safety_resolved echo. A publish failure is returned wrapped in
// ErrPublishFailed so the operator sees it.
func (s *ResolutionService) Resolve(ctx context.Context, incidentID string, userID int) (models.OperatorAction, error) {
	if _, ok := s.incidents.SafetyIncident(incidentID); !ok {
		return models.OperatorAction{}, fmt.Errorf("%w: %s", ErrIncidentNotFound, incidentID)
	}

	_, pubErr := s.publisher.Publish(ctx, sd.PublishEvent{
		Source:  sd.SourceUI,
		Type:    sd.EventSafetyResolve,
		Payload: models.SafetyResolvedPayload{ID: incidentID},
	})
	s.reloader.Reload()
	s.metrics.Resolution(pubErr)

	action := models.OperatorAction{
		ActionID:   uuid.NewString(),
		OccurredAt: s.now(),
		Type:       sd.EventSafetyResolve,
		IncidentID: incidentID,
		UserID:     userID,
		Outcome:    models.OutcomePublished,
	}
	if pubErr != nil {
		action.Outcome = models.OutcomeFailed
		action.Error = pubErr.Error()
		s.log.Errorw("safety_resolve_publish_failed", "incident_id", incidentID, "user_id", userID, "err", pubErr)
	} else {
		s.log.Infow("safety_resolve_published", "incident_id", incidentID, "user_id", userID)
	}
	s.audit(ctx, action)

	if pubErr != nil {
		return action, fmt.Errorf("%w: %v", ErrPublishFailed, pubErr)
	}
	return action, nil
}

// audit stores the action; failures are logged only.
func (s *ResolutionService) audit(ctx context.Context, a models.OperatorAction) {
	if s.actions == nil {
		return
	}
	if err := s.actions.Append(ctx, a); err != nil {
		s.log.Warnw("operator_action_audit_failed", "action_id", a.ActionID, "err", err)
	}
}
