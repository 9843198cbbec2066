package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nepallicenseprep/likhit-backend/internal/model"
)

// ContactRepository handles contact_messages data access.
type ContactRepository struct {
	pool *pgxpool.Pool
}

// NewContactRepository creates a new ContactRepository.
func NewContactRepository(pool *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

// Create inserts a contact message and fills in its id and timestamp.
func (r *ContactRepository) Create(ctx context.Context, m *model.ContactMessage) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO contact_messages (name, email, subject, message, language)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		m.Name, m.Email, m.Subject, m.Message, string(m.Language),
	).Scan(&m.ID, &m.CreatedAt)
}
