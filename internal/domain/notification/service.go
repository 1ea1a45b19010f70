package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("notification not found")

// DeviceTokens resolves a user's registered device token; the identity
// service satisfies it. A nil token means the user has no device.
type DeviceTokens interface {
	DeviceToken(ctx context.Context, userID uuid.UUID) (*string, error)
}

type Service struct {
	repo   Repository
	tokens DeviceTokens
	sink   Sink
	log    zerolog.Logger
}

func NewService(repo Repository, tokens DeviceTokens, sink Sink, log zerolog.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, sink: sink, log: log}
}

// Notify persists a notification for the user and then attempts device
// delivery. The row is kept even when delivery fails, so the inbox never
// loses a message.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, title, body string) (*Notification, error) {
	n := &Notification{UserID: userID, Title: title, Body: body}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	token, err := s.tokens.DeviceToken(ctx, userID)
	if err != nil || token == nil || *token == "" {
		return n, nil
	}
	if err := s.sink.Send(ctx, *token, title, body); err != nil {
		s.log.Warn().Err(err).
			Str("user_id", userID.String()).
			Msg("push delivery failed")
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		return ErrNotFound
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}
