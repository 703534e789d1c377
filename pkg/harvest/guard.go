package harvest

import (
	"context"
	"fmt"

	"otwscraper/pkg/models"
)

// PageSignals classifies the page currently shown by the browser
type PageSignals interface {
	IsRateLimited(ctx context.Context) (bool, error)
	IsLoginWall(ctx context.Context) (bool, error)
}

// StateView is the read-only part of SessionState the guard needs
type StateView interface {
	RecordCount() int
	ActionCount() int
}

// SessionGuard enforces the run's caps and stops on abuse signals
type SessionGuard struct {
	maxProfiles int
	sessionCap  int
	signals     PageSignals
}

// NewSessionGuard creates a guard. A sessionCap of zero disables the ceiling.
func NewSessionGuard(maxProfiles, sessionCap int, signals PageSignals) *SessionGuard {
	return &SessionGuard{
		maxProfiles: maxProfiles,
		sessionCap:  sessionCap,
		signals:     signals,
	}
}

// CheckBeforeAction returns AbortNone when the next action may proceed.
// Checks run in a fixed order: requested count, session ceiling, rate
// limit, login wall. An error means the page could not be inspected.
func (g *SessionGuard) CheckBeforeAction(ctx context.Context, state StateView) (models.AbortReason, error) {
	if state.RecordCount() >= g.maxProfiles {
		return models.AbortMaxProfilesReached, nil
	}
	if g.sessionCap > 0 && state.ActionCount() >= g.sessionCap {
		return models.AbortSessionCapReached, nil
	}

	limited, err := g.signals.IsRateLimited(ctx)
	if err != nil {
		return models.AbortNone, fmt.Errorf("rate limit probe: %w", err)
	}
	if limited {
		return models.AbortRateLimitDetected, nil
	}

	wall, err := g.signals.IsLoginWall(ctx)
	if err != nil {
		return models.AbortNone, fmt.Errorf("login wall probe: %w", err)
	}
	if wall {
		return models.AbortLoginRequired, nil
	}

	return models.AbortNone, nil
}
