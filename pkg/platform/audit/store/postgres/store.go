// Package postgres persists audit events append-only in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE audit_events (
//	    id          BIGSERIAL PRIMARY KEY,
//	    occurred_at TIMESTAMPTZ NOT NULL,
//	    actor_id    TEXT NOT NULL,
//	    intern_id   UUID,
//	    action      TEXT NOT NULL,
//	    entity      TEXT NOT NULL,
//	    entity_id   TEXT NOT NULL,
//	    reason      TEXT NOT NULL DEFAULT '',
//	    detail      TEXT NOT NULL DEFAULT '',
//	    request_id  TEXT NOT NULL DEFAULT '',
//	    client_ip   TEXT NOT NULL DEFAULT '',
//	    user_agent  TEXT NOT NULL DEFAULT ''
//	);
//	CREATE INDEX audit_events_intern_idx ON audit_events (intern_id, occurred_at);
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	id "rotalog/pkg/domain"
	audit "rotalog/pkg/platform/audit"
)

// Store is the PostgreSQL-backed audit event store. Rows are never updated or
// deleted by application code.
type Store struct {
	db *sql.DB
}

// New constructs a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events
			(occurred_at, actor_id, intern_id, action, entity, entity_id, reason, detail, request_id, client_ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	var internID any
	if !event.InternID.IsZero() {
		internID = uuid.UUID(event.InternID)
	}
	_, err := s.db.ExecContext(ctx, query,
		event.Timestamp, event.ActorID, internID, event.Action, event.Entity,
		event.EntityID, event.Reason, event.Detail, event.RequestID, event.IP, event.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByIntern(ctx context.Context, internID id.InternID) ([]audit.Event, error) {
	query := `
		SELECT occurred_at, actor_id, intern_id, action, entity, entity_id, reason, detail, request_id, client_ip, user_agent
		FROM audit_events
		WHERE intern_id = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(internID))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var event audit.Event
		var intern uuid.NullUUID
		if err := rows.Scan(
			&event.Timestamp, &event.ActorID, &intern, &event.Action, &event.Entity,
			&event.EntityID, &event.Reason, &event.Detail, &event.RequestID, &event.IP, &event.UserAgent,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if intern.Valid {
			event.InternID = id.InternID(intern.UUID)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
