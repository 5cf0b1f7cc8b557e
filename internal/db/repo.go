package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"intake-agent/pkg"
)

// Repo stores sessions in Postgres. The full session is kept as a JSONB
// payload; a handful of columns are broken out for indexing and listing.
// Writes use an optimistic version check so two concurrent turns cannot
// both commit.
type Repo struct {
	conn *sql.DB
}

func NewRepo(conn *sql.DB) *Repo { return &Repo{conn: conn} }

// Open connects and pings.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return conn, nil
}

func (r *Repo) Load(ctx context.Context, id string) (*pkg.Session, error) {
	var (
		payload []byte
		version int
	)
	err := r.conn.QueryRowContext(ctx,
		`SELECT payload, version FROM intake_sessions WHERE id = $1`, id,
	).Scan(&payload, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var s pkg.Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	s.Version = version
	return &s, nil
}

func (r *Repo) Save(ctx context.Context, s *pkg.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if s.Version == 0 {
		_, err := r.conn.ExecContext(ctx,
			`INSERT INTO intake_sessions
			    (id, user_id, state, emergency_level, turn_count, payload, version, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8)`,
			s.ID, s.UserID, string(s.State), string(s.EmergencyLevel),
			s.TurnCount, payload, s.CreatedAt, s.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		s.Version = 1
		return nil
	}

	res, err := r.conn.ExecContext(ctx,
		`UPDATE intake_sessions
		    SET state = $1, emergency_level = $2, turn_count = $3,
		        payload = $4, updated_at = $5, version = version + 1
		  WHERE id = $6 AND version = $7`,
		string(s.State), string(s.EmergencyLevel), s.TurnCount,
		payload, s.UpdatedAt, s.ID, s.Version,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n == 0 {
		return pkg.ErrConflict
	}
	s.Version++
	return nil
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]pkg.SessionPreview, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT payload FROM intake_sessions
		  WHERE user_id = $1
		  ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	previews := []pkg.SessionPreview{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		var s pkg.Session
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		previews = append(previews, preview(&s))
	}
	return previews, rows.Err()
}

func preview(s *pkg.Session) pkg.SessionPreview {
	return pkg.SessionPreview{
		SessionID:            s.ID,
		State:                s.State,
		EmergencyLevel:       s.EmergencyLevel,
		CompletionPercentage: s.Record.Completion() * 100,
		TurnCount:            s.TurnCount,
		PrimaryComplaint:     s.PrimaryComplaint,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}
