package service

import (
	"errors"

	"github.com/nepallicenseprep/likhit-backend/internal/model"
	"github.com/nepallicenseprep/likhit-backend/internal/repository"
)

// ErrTrafficSignNotFound is returned for an unknown sign id.
var ErrTrafficSignNotFound = errors.New("traffic sign not found")

// TrafficSignService serves the traffic-sign gallery.
type TrafficSignService struct {
	repo *repository.TrafficSignRepository
}

// NewTrafficSignService creates a new TrafficSignService.
func NewTrafficSignService(repo *repository.TrafficSignRepository) *TrafficSignService {
	return &TrafficSignService{repo: repo}
}

// List returns the signs of a category, or all signs when category is empty.
func (s *TrafficSignService) List(category string) []model.TrafficSign {
	return s.repo.List(category)
}

// Categories returns the gallery sections.
func (s *TrafficSignService) Categories() []string {
	return s.repo.Categories()
}

// Get returns one sign.
func (s *TrafficSignService) Get(id string) (model.TrafficSign, error) {
	sign, ok := s.repo.GetByID(id)
	if !ok {
		return model.TrafficSign{}, ErrTrafficSignNotFound
	}
	return sign, nil
}
