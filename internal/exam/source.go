package exam

import (
	"context"

	"github.com/nepallicenseprep/likhit-backend/internal/model"
)

// QuestionSource is the pre-loaded question pool a session draws from.
type QuestionSource interface {
	// FilterByCategory returns every question of the category; Mixed returns
	// the whole set. The returned slice is owned by the caller.
	FilterByCategory(category model.Category) []model.Question
	// Page returns one fixed-order practice page and the total page count.
	Page(category model.Category, page, perPage int) ([]model.Question, int)
}

// Archive is the capped per-key history of finished sessions.
type Archive interface {
	// Load never fails: missing or unreadable history is returned as empty.
	Load(ctx context.Context, key model.ArchiveKey) []model.SessionResult
	// Append prepends result and keeps only the most recent entries.
	Append(ctx context.Context, key model.ArchiveKey, result model.SessionResult) error
}
