package service

import (
	"errors"

	"github.com/nepallicenseprep/likhit-backend/internal/model"
)

// ErrUnknownAdPage is returned for a page with no ad placements.
var ErrUnknownAdPage = errors.New("unknown ad page")

// AdService resolves which ad slots a page should render.
type AdService struct {
	cfg        model.AdSlotConfig
	placements map[string][]string
}

// NewAdService creates a new AdService from the slot config and the
// page → positions layout.
func NewAdService(cfg model.AdSlotConfig, placements map[string][]string) *AdService {
	return &AdService{cfg: cfg, placements: placements}
}

// Slots returns the renderable slots for page. The list is empty outside
// production or when ids are missing or placeholders.
func (s *AdService) Slots(page string) ([]model.AdSlot, error) {
	positions, ok := s.placements[page]
	if !ok {
		return nil, ErrUnknownAdPage
	}
	return s.cfg.Active(page, positions), nil
}
