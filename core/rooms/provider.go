// Package rooms provisions the ephemeral two-party rooms sessions run in.
package rooms

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultDuration        = 10 * time.Minute
	DefaultMaxParticipants = 2
)

type Room struct {
	URL       string
	Name      string
	ExpiresAt time.Time
}

type RoomOptions struct {
	// Duration after which the room expires and participants are ejected.
	Duration        time.Duration
	MaxParticipants int
}

type TokenOptions struct {
	UserName string
	IsOwner  bool
}

// Provider creates rooms and join credentials. Calls are single attempts,
// failures are not retried.
type Provider interface {
	CreateRoom(ctx context.Context, opts RoomOptions) (*Room, error)
	CreateToken(ctx context.Context, roomName string, opts TokenOptions) (string, error)
}

// ProviderError reports a failed provider call. StatusCode is the upstream
// HTTP status, or zero when the call never got a response.
type ProviderError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	detail := e.Message
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}

	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to %s (status %d): %s", e.Op, e.StatusCode, detail)
	}
	return fmt.Sprintf("failed to %s: %s", e.Op, detail)
}

func (e *ProviderError) Unwrap() error { return e.Err }
