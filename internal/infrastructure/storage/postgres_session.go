package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/filtra-ar/filtrabot/internal/domain/entity"
)

// PostgresSessionStore persists sessions, leads, the analytics log and
// the operator topic mapping.
type PostgresSessionStore struct {
	db *sql.DB
}

// NewPostgresSessionStore bootstraps the schema and returns the store.
func NewPostgresSessionStore(db *sql.DB) (*PostgresSessionStore, error) {
	schema := `
CREATE TABLE IF NOT EXISTS sessions (
	identity TEXT PRIMARY KEY,
	mode TEXT NOT NULL,
	user_kind TEXT NOT NULL,
	last_active_at TIMESTAMPTZ NOT NULL,
	location_hint TEXT DEFAULT '',
	metadata TEXT DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS leads (
	lead_id TEXT PRIMARY KEY,
	identity TEXT NOT NULL,
	kind TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS logs (
	id BIGSERIAL PRIMARY KEY,
	phone TEXT NOT NULL,
	action TEXT NOT NULL,
	content TEXT DEFAULT '',
	created_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS topics (
	identity TEXT PRIMARY KEY,
	topic_id BIGINT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create session schema: %w", err)
	}
	return &PostgresSessionStore{db: db}, nil
}

func (s *PostgresSessionStore) Get(ctx context.Context, identity string) (*entity.Session, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT identity, mode, user_kind, last_active_at, location_hint, metadata
	FROM sessions WHERE identity=$1`, identity)

	var sess entity.Session
	var mode, kind, metadata string
	var lastActive time.Time
	err := row.Scan(&sess.Identity, &mode, &kind, &lastActive, &sess.LocationHint, &metadata)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sess.Mode = entity.Mode(mode)
	sess.UserKind = entity.UserKind(kind)
	sess.LastActiveAt = lastActive
	sess.Metadata = make(map[string]string)
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &sess.Metadata); err != nil {
			// A corrupt bag must not brick the conversation; start clean.
			sess.Metadata = make(map[string]string)
		}
	}
	return &sess, nil
}

func (s *PostgresSessionStore) Save(ctx context.Context, sess *entity.Session) error {
	metadata, err := json.Marshal(sess.Metadata)
	if err != nil {
		return fmt.Errorf("marshal session metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO sessions (identity, mode, user_kind, last_active_at, location_hint, metadata)
	VALUES ($1,$2,$3,$4,$5,$6)
	ON CONFLICT (identity) DO UPDATE SET
		mode=EXCLUDED.mode,
		user_kind=EXCLUDED.user_kind,
		last_active_at=EXCLUDED.last_active_at,
		location_hint=EXCLUDED.location_hint,
		metadata=EXCLUDED.metadata
	`, sess.Identity, string(sess.Mode), string(sess.UserKind), sess.LastActiveAt, sess.LocationHint, string(metadata))
	return err
}

func (s *PostgresSessionStore) SaveLead(ctx context.Context, lead entity.Lead) error {
	payload, err := json.Marshal(leadPayload(lead))
	if err != nil {
		return fmt.Errorf("marshal lead payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO leads (lead_id, identity, kind, payload) VALUES ($1,$2,$3,$4)
	ON CONFLICT (lead_id) DO NOTHING
	`, lead.ID, lead.Identity, string(lead.Kind), string(payload))
	return err
}

func (s *PostgresSessionStore) LogEvent(ctx context.Context, identity, action, content string) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO logs (phone, action, content) VALUES ($1,$2,$3)`, identity, action, content)
	return err
}

// leadPayload flattens the tagged union for storage.
func leadPayload(lead entity.Lead) map[string]string {
	switch {
	case lead.Mechanic != nil:
		return map[string]string{"priority": lead.Mechanic.Priority, "shop_name": lead.Mechanic.ShopName}
	case lead.Seller != nil:
		return map[string]string{"name": lead.Seller.Name, "location": lead.Seller.Location, "logistics": lead.Seller.Logistics}
	case lead.Buyer != nil:
		return map[string]string{"location": lead.Buyer.Location, "urgency": lead.Buyer.Urgency}
	}
	return map[string]string{}
}

// GetTopic / SetTopic back the operator mirror's topic-per-identity map.
func (s *PostgresSessionStore) GetTopic(ctx context.Context, identity string) (int, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT topic_id FROM topics WHERE identity=$1`, identity)
	var topicID int
	err := row.Scan(&topicID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return topicID, true, nil
}

func (s *PostgresSessionStore) SetTopic(ctx context.Context, identity string, topicID int) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO topics (identity, topic_id) VALUES ($1,$2)
	ON CONFLICT (identity) DO UPDATE SET topic_id=EXCLUDED.topic_id`, identity, topicID)
	return err
}

// FindIdentityByTopic resolves an operator reply's topic back to the user.
func (s *PostgresSessionStore) FindIdentityByTopic(ctx context.Context, topicID int) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT identity FROM topics WHERE topic_id=$1`, topicID)
	var identity string
	err := row.Scan(&identity)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return identity, true, nil
}
