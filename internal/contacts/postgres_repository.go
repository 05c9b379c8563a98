package contacts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL contact repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const contactColumns = `
	id, user_id, name, phone, relationship, priority, created_at, updated_at
`

// Get retrieves a contact by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*TrustedContact, error) {
	query := `SELECT` + contactColumns + `FROM trusted_contacts WHERE id = $1`
	return r.scanContact(ctx, query, id)
}

// GetByUserAndID retrieves a contact by user ID and contact ID.
func (r *PostgresRepository) GetByUserAndID(ctx context.Context, userID, contactID string) (*TrustedContact, error) {
	query := `SELECT` + contactColumns + `FROM trusted_contacts WHERE id = $1 AND user_id = $2`
	return r.scanContact(ctx, query, contactID, userID)
}

func (r *PostgresRepository) scanContact(ctx context.Context, query string, args ...interface{}) (*TrustedContact, error) {
	var contact TrustedContact

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&contact.ID,
		&contact.UserID,
		&contact.Name,
		&contact.Phone,
		&contact.Relationship,
		&contact.Priority,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}

	return &contact, nil
}

// ListByUser retrieves all contacts for a user ordered by priority.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*TrustedContact, error) {
	query := `SELECT` + contactColumns + `
		FROM trusted_contacts
		WHERE user_id = $1
		ORDER BY priority ASC, created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*TrustedContact
	for rows.Next() {
		var contact TrustedContact
		err := rows.Scan(
			&contact.ID,
			&contact.UserID,
			&contact.Name,
			&contact.Phone,
			&contact.Relationship,
			&contact.Priority,
			&contact.CreatedAt,
			&contact.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, &contact)
	}

	return result, rows.Err()
}

// Create creates a new contact.
func (r *PostgresRepository) Create(ctx context.Context, c *TrustedContact) error {
	query := `
		INSERT INTO trusted_contacts (
			id, user_id, name, phone, relationship, priority, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.UserID, c.Name, c.Phone, c.Relationship, c.Priority, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// Update updates an existing contact.
func (r *PostgresRepository) Update(ctx context.Context, c *TrustedContact) error {
	query := `
		UPDATE trusted_contacts
		SET name = $2, phone = $3, relationship = $4, priority = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		c.ID, c.Name, c.Phone, c.Relationship, c.Priority, c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}

// Delete deletes a contact by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM trusted_contacts WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}
