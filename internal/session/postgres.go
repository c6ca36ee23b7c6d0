package session

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/xaenox/fpl-assistant/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

// PostgresStore persists turns beyond process lifetime. Capacity is enforced
// on append by trimming the oldest rows per session.
type PostgresStore struct {
	db       *sql.DB
	capacity int
	logger   *zap.Logger
}

func NewPostgresStore(config DatabaseConfig, capacity int, logger *zap.Logger) (*PostgresStore, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	store := &PostgresStore{db: db, capacity: capacity, logger: logger}

	if err := store.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, sessionID string, turn models.Turn) error {
	entities, err := json.Marshal(turn.Entities)
	if err != nil {
		return fmt.Errorf("error encoding turn entities: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO turns (id, session_id, user_text, entities, intent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		turn.ID, sessionID, turn.UserText, entities, turn.Intent.String(), turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting turn: %w", err)
	}

	// Evict oldest turns past the session capacity.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM turns
		WHERE session_id = $1
		  AND seq NOT IN (
			SELECT seq FROM turns
			WHERE session_id = $1
			ORDER BY seq DESC
			LIMIT $2
		)`,
		sessionID, s.capacity)
	if err != nil {
		return fmt.Errorf("error trimming session history: %w", err)
	}

	return tx.Commit()
}

func (s *PostgresStore) RecentEntities(ctx context.Context, sessionID string, limit int) ([]models.EntityRef, error) {
	turns, err := s.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var out []models.EntityRef
	for i := len(turns) - 1; i >= 0 && len(out) < limit; i-- {
		ents := turns[i].Entities
		for j := len(ents) - 1; j >= 0 && len(out) < limit; j-- {
			out = append(out, ents[j])
		}
	}
	return out, nil
}

func (s *PostgresStore) History(ctx context.Context, sessionID string) ([]models.Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_text, entities, intent, created_at
		FROM turns
		WHERE session_id = $1
		ORDER BY seq ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("error querying session history: %w", err)
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var (
			turn     models.Turn
			entities []byte
			intent   string
		)
		if err := rows.Scan(&turn.ID, &turn.UserText, &entities, &intent, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning turn: %w", err)
		}
		if err := json.Unmarshal(entities, &turn.Entities); err != nil {
			return nil, fmt.Errorf("error decoding turn entities: %w", err)
		}
		turn.Intent = models.Intent(intent)
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
