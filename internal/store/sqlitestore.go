package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tourneykit/slotbot/internal/engine"
)

// SQLiteStore persists the snapshot in a SQLite database. Every save
// rewrites the snapshot inside one transaction, which gives the same
// all-or-nothing replacement semantics as the file backend.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS teams (
			user_id VARCHAR(20) PRIMARY KEY,
			team_name VARCHAR(100) NOT NULL,
			players TEXT NOT NULL,
			last_updated TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS slot_occupants (
			slot_id VARCHAR(50) NOT NULL,
			position INTEGER NOT NULL,
			user_id VARCHAR(20) NOT NULL,
			PRIMARY KEY (slot_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS table_messages (
			slot_id VARCHAR(50) PRIMARY KEY,
			message_id VARCHAR(20) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS meta (
			key VARCHAR(50) PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_occupants_user ON slot_occupants(user_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Save rewrites the full snapshot in one transaction. Booked slots are
// not stored separately; they are derivable from slot_occupants and
// rebuilt on load.
func (s *SQLiteStore) Save(snap *engine.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"teams", "slot_occupants", "table_messages"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for userID, team := range snap.Teams {
		players, err := json.Marshal(team.Players)
		if err != nil {
			return fmt.Errorf("failed to encode players: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO teams (user_id, team_name, players, last_updated) VALUES (?, ?, ?, ?)`,
			userID, team.Name, string(players), team.LastUpdated.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("failed to save team: %w", err)
		}
	}

	for slotID, occupants := range snap.Slots {
		for pos, userID := range occupants {
			if _, err := tx.Exec(
				`INSERT INTO slot_occupants (slot_id, position, user_id) VALUES (?, ?, ?)`,
				string(slotID), pos, userID,
			); err != nil {
				return fmt.Errorf("failed to save occupant: %w", err)
			}
		}
	}

	for slotID, messageID := range snap.TableMessages {
		if messageID == "" {
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO table_messages (slot_id, message_id) VALUES (?, ?)`,
			string(slotID), messageID,
		); err != nil {
			return fmt.Errorf("failed to save table message: %w", err)
		}
	}

	open := "1"
	if !snap.RegistrationOpen {
		open = "0"
	}
	if _, err := tx.Exec(
		`INSERT INTO meta (key, value) VALUES ('registration_open', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		open,
	); err != nil {
		return fmt.Errorf("failed to save registration state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Load reassembles the snapshot from the database. An empty database
// yields an empty snapshot with registration open.
func (s *SQLiteStore) Load() (*engine.Snapshot, error) {
	snap := engine.NewSnapshot()

	rows, err := s.db.Query(`SELECT user_id, team_name, players, last_updated FROM teams`)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var userID, name, playersRaw, updatedRaw string
		if err := rows.Scan(&userID, &name, &playersRaw, &updatedRaw); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		var players []string
		if err := json.Unmarshal([]byte(playersRaw), &players); err != nil {
			return nil, fmt.Errorf("failed to decode players: %w", err)
		}
		updated, err := time.Parse(time.RFC3339Nano, updatedRaw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last_updated: %w", err)
		}
		snap.Teams[userID] = &engine.Team{
			Name:        name,
			Players:     players,
			BookedSlots: []engine.SlotID{},
			LastUpdated: updated,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	occRows, err := s.db.Query(`SELECT slot_id, user_id FROM slot_occupants ORDER BY slot_id, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to load occupants: %w", err)
	}
	defer occRows.Close()
	for occRows.Next() {
		var slotID, userID string
		if err := occRows.Scan(&slotID, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan occupant: %w", err)
		}
		id := engine.SlotID(slotID)
		snap.Slots[id] = append(snap.Slots[id], userID)
		if team, ok := snap.Teams[userID]; ok {
			team.BookedSlots = append(team.BookedSlots, id)
		}
	}
	if err := occRows.Err(); err != nil {
		return nil, err
	}

	msgRows, err := s.db.Query(`SELECT slot_id, message_id FROM table_messages`)
	if err != nil {
		return nil, fmt.Errorf("failed to load table messages: %w", err)
	}
	defer msgRows.Close()
	for msgRows.Next() {
		var slotID, messageID string
		if err := msgRows.Scan(&slotID, &messageID); err != nil {
			return nil, fmt.Errorf("failed to scan table message: %w", err)
		}
		snap.TableMessages[engine.SlotID(slotID)] = messageID
	}
	if err := msgRows.Err(); err != nil {
		return nil, err
	}

	var open string
	err = s.db.QueryRow(`SELECT value FROM meta WHERE key = 'registration_open'`).Scan(&open)
	switch {
	case err == sql.ErrNoRows:
		snap.RegistrationOpen = true
	case err != nil:
		return nil, fmt.Errorf("failed to load registration state: %w", err)
	default:
		snap.RegistrationOpen = open != "0"
	}

	return snap, nil
}
