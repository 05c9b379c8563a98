package escalation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DNA-Coded/RakshaMarg/pkg/geo"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// Delivery outcomes are stored as a JSONB column; they are written once
// at trigger time and never queried individually.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL event repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create records a new event.
func (r *PostgresRepository) Create(ctx context.Context, event *Event) error {
	outcomes, err := json.Marshal(event.Outcomes)
	if err != nil {
		return fmt.Errorf("encoding delivery outcomes: %w", err)
	}

	var lat, lon *float64
	if event.Position != nil {
		lat, lon = &event.Position.Lat, &event.Position.Lon
	}

	query := `
		INSERT INTO sos_events (
			id, user_id, session_id, position_lat, position_lon,
			position_origin, route_summary, triggered_at, outcomes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.pool.Exec(ctx, query,
		event.ID, event.UserID, event.SessionID, lat, lon,
		string(event.PositionOrigin), event.RouteSummary, event.TriggeredAt, outcomes,
	)
	return err
}

const eventColumns = `
	id, user_id, session_id, position_lat, position_lon,
	position_origin, route_summary, triggered_at, outcomes
`

// Get retrieves an event by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Event, error) {
	query := `SELECT` + eventColumns + `FROM sos_events WHERE id = $1`

	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

// ListByUser retrieves a user's events, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT` + eventColumns + `
		FROM sos_events
		WHERE user_id = $1
		ORDER BY triggered_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, event)
	}

	return result, rows.Err()
}

func scanEvent(row pgx.Row) (*Event, error) {
	var (
		event    Event
		lat, lon *float64
		origin   string
		outcomes []byte
	)

	err := row.Scan(
		&event.ID,
		&event.UserID,
		&event.SessionID,
		&lat,
		&lon,
		&origin,
		&event.RouteSummary,
		&event.TriggeredAt,
		&outcomes,
	)
	if err != nil {
		return nil, err
	}

	event.PositionOrigin = PositionOrigin(origin)
	if lat != nil && lon != nil {
		event.Position = &geo.Coordinate{Lat: *lat, Lon: *lon}
	}
	if len(outcomes) > 0 {
		if err := json.Unmarshal(outcomes, &event.Outcomes); err != nil {
			return nil, fmt.Errorf("decoding delivery outcomes: %w", err)
		}
	}

	return &event, nil
}
