package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"shopfloor_dashboard/internal/models"
	"shopfloor_dashboard/internal/repository"
)

// ActionLogService reads the operator audit trail.
type ActionLogService struct {
	actions repository.ActionRepo
}

func NewActionLogService(actions repository.ActionRepo) *ActionLogService {
	return &ActionLogService{actions: actions}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	errInvalidOutcome   = errors.New("invalid outcome: must be published or failed")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeAndValidateFilter prepares query parameters and validates them.
func normalizeAndValidateFilter(f ActionFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	outcome := strings.ToLower(strings.TrimSpace(f.Outcome))
	switch outcome {
	case "", models.OutcomePublished, models.OutcomeFailed:
	default:
		return time.Time{}, time.Time{}, "", errInvalidOutcome
	}
	return from, to, outcome, nil
}

func (s *ActionLogService) List(ctx context.Context, f ActionFilter) ([]models.OperatorAction, error) {
	from, to, outcome, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.actions.List(ctx, from, to, outcome)
}

// IsFilterError reports whether err came from filter validation.
func IsFilterError(err error) bool {
	return errors.Is(err, errInvalidTimeRange) || errors.Is(err, errInvalidOutcome)
}
