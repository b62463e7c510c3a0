package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ingatatech/e-learning-sub003/internal/auth"
	"github.com/ingatatech/e-learning-sub003/pkg/logger"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
	Recent(ctx context.Context, q Query) ([]Event, error)
}

// Query selects the newest events, optionally of one type.
type Query struct {
	Type  EventType
	Limit int
}

const (
	defaultQueryLimit = 50
	maxQueryLimit     = 500
)

func (q Query) normalized() Query {
	if q.Limit <= 0 {
		q.Limit = defaultQueryLimit
	}
	if q.Limit > maxQueryLimit {
		q.Limit = maxQueryLimit
	}
	return q
}

// Service records session lifecycle events.
//
// Callers treat audit logging as best-effort: Record logs failures and never
// returns them, so an audit outage cannot block login or refresh.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s == nil || s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}
	if e.Type.requiresActor() && e.ActorUserID == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	if e.IPAddress == "" {
		e.IPAddress = ClientIPFromContext(ctx)
	}
	return s.repo.Append(ctx, e)
}

// Record appends an event for the given claims and swallows failures after logging them.
// claims may be nil when the token could not be decoded.
func (s *Service) Record(ctx context.Context, t EventType, claims *auth.Claims, message string) {
	if s == nil {
		return
	}
	e := Event{Type: t, Message: message}
	if claims != nil {
		e.ActorUserID = claims.UserID
		e.ActorEmail = claims.Email
		e.ActorRole = string(claims.Role)
		e.TokenID = claims.ID
	}
	if err := s.Append(ctx, e); err != nil {
		logger.From(ctx).Warn("audit append failed", "type", string(t), "err", err)
	}
}

// Recent returns the newest events first.
func (s *Service) Recent(ctx context.Context, q Query) ([]Event, error) {
	if s == nil || s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	return s.repo.Recent(ctx, q.normalized())
}
