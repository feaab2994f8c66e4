package entity

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the final state of a handled command.
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeRejected   Outcome = "rejected"
	OutcomeAuthFailed Outcome = "auth_failed"
	OutcomeFailed     Outcome = "failed"
)

// Invocation is the audit record of one handled chat command.
// It records who asked for what and how it ended; aggregation results are never stored.
type Invocation struct {
	ID          string
	Command     string
	RequesterID string
	ChannelID   string
	Outcome     Outcome
	Error       string
	StartedAt   time.Time
	Duration    time.Duration
}

// NewInvocation starts an audit record for a command.
func NewInvocation(command, requesterID, channelID string, startedAt time.Time) *Invocation {
	return &Invocation{
		ID:          uuid.New().String(),
		Command:     command,
		RequesterID: requesterID,
		ChannelID:   channelID,
		StartedAt:   startedAt.UTC(),
	}
}

// Finish records the outcome and elapsed time.
func (i *Invocation) Finish(outcome Outcome, err error, finishedAt time.Time) {
	i.Outcome = outcome
	if err != nil {
		i.Error = err.Error()
	}
	i.Duration = finishedAt.Sub(i.StartedAt)
}
