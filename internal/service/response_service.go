package service

import "time"

// ActionFilter supports audit filtering by time range and outcome.
type ActionFilter struct {
	From    time.Time // inclusive; zero means no lower bound
	To      time.Time // inclusive; zero means no upper bound
	Outcome string    // "", "published", "failed"
}

// AuthConfig carries the operator token settings.
type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
}
