package repository

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/nepallicenseprep/likhit-backend/internal/model"
)

// TrafficSignRepository is the read-only traffic-sign catalogue.
type TrafficSignRepository struct {
	signs []model.TrafficSign
}

// LoadTrafficSigns parses the catalogue JSON (an array of signs).
func LoadTrafficSigns(raw []byte) (*TrafficSignRepository, error) {
	var signs []model.TrafficSign
	if err := json.Unmarshal(raw, &signs); err != nil {
		return nil, fmt.Errorf("decode traffic signs: %w", err)
	}
	seen := make(map[string]bool, len(signs))
	for i, s := range signs {
		if s.ID == "" || s.Name == "" || s.ImageURL == "" {
			return nil, fmt.Errorf("traffic sign %d: missing id, name or image", i)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("traffic sign %q defined twice", s.ID)
		}
		seen[s.ID] = true
	}
	return &TrafficSignRepository{signs: signs}, nil
}

// List returns every sign, optionally restricted to one category.
func (r *TrafficSignRepository) List(category string) []model.TrafficSign {
	if category == "" {
		return slices.Clone(r.signs)
	}
	out := []model.TrafficSign{}
	for _, s := range r.signs {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

// GetByID returns the sign with id.
func (r *TrafficSignRepository) GetByID(id string) (model.TrafficSign, bool) {
	for _, s := range r.signs {
		if s.ID == id {
			return s, true
		}
	}
	return model.TrafficSign{}, false
}

// Categories returns the distinct categories in catalogue order.
func (r *TrafficSignRepository) Categories() []string {
	out := []string{}
	for _, s := range r.signs {
		if !slices.Contains(out, s.Category) {
			out = append(out, s.Category)
		}
	}
	return out
}
