package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nepallicenseprep/likhit-backend/internal/model"
)

// ErrContactUnavailable is returned when no message store is configured.
var ErrContactUnavailable = errors.New("contact form unavailable")

// ContactStore persists contact messages.
type ContactStore interface {
	Create(ctx context.Context, m *model.ContactMessage) error
}

// ContactService stores messages sent through the contact form.
type ContactService struct {
	store ContactStore
	log   zerolog.Logger
}

// NewContactService creates a new ContactService. store may be nil.
func NewContactService(store ContactStore, log zerolog.Logger) *ContactService {
	return &ContactService{store: store, log: log.With().Str("component", "contact_service").Logger()}
}

// Submit stores a message written in lang.
func (s *ContactService) Submit(ctx context.Context, req model.ContactRequest, lang model.Language) (*model.ContactMessage, error) {
	if s.store == nil {
		return nil, ErrContactUnavailable
	}

	msg := &model.ContactMessage{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Subject:  strings.TrimSpace(req.Subject),
		Message:  strings.TrimSpace(req.Message),
		Language: lang,
	}
	if err := s.store.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("store contact message: %w", err)
	}

	s.log.Info().Int64("message_id", msg.ID).Str("language", string(lang)).Msg("Contact message received")
	return msg, nil
}
