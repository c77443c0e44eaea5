package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// RoomRow represents a room in the database.
type RoomRow struct {
	Code      string
	GameType  string
	Settings  string // JSON blob of game settings chosen at creation
	Status    string // "waiting", "playing", "finished"
	CreatedAt time.Time
}

// Store handles SQLite persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS rooms (
			code       TEXT PRIMARY KEY,
			game_type  TEXT NOT NULL,
			settings   TEXT NOT NULL DEFAULT '',
			status     TEXT NOT NULL DEFAULT 'waiting',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS room_state (
			room_code  TEXT PRIMARY KEY REFERENCES rooms(code),
			state_json TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

// CreateRoom inserts a new room.
func (s *Store) CreateRoom(code, gameType, settings string) error {
	_, err := s.db.Exec(
		"INSERT INTO rooms (code, game_type, settings, status) VALUES (?, ?, ?, 'waiting')",
		code, gameType, settings,
	)
	return err
}

// GetRoom retrieves a room by code.
func (s *Store) GetRoom(code string) (*RoomRow, error) {
	row := s.db.QueryRow("SELECT code, game_type, settings, status, created_at FROM rooms WHERE code = ?", code)
	var rr RoomRow
	if err := row.Scan(&rr.Code, &rr.GameType, &rr.Settings, &rr.Status, &rr.CreatedAt); err != nil {
		return nil, err
	}
	return &rr, nil
}

// UpdateRoomStatus changes a room's status.
func (s *Store) UpdateRoomStatus(code, status string) error {
	_, err := s.db.Exec("UPDATE rooms SET status = ? WHERE code = ?", status, code)
	return err
}

// ListRooms returns all rooms with the given status (or all if status is empty).
func (s *Store) ListRooms(status string) ([]RoomRow, error) {
	var rows *sql.Rows
	var err error
	if status == "" {
		rows, err = s.db.Query("SELECT code, game_type, settings, status, created_at FROM rooms ORDER BY created_at DESC")
	} else {
		rows, err = s.db.Query("SELECT code, game_type, settings, status, created_at FROM rooms WHERE status = ? ORDER BY created_at DESC", status)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []RoomRow
	for rows.Next() {
		var rr RoomRow
		if err := rows.Scan(&rr.Code, &rr.GameType, &rr.Settings, &rr.Status, &rr.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, rr)
	}
	return result, rows.Err()
}

// SaveRoomState upserts the serialized match snapshot for a room.
func (s *Store) SaveRoomState(code, stateJSON string) error {
	_, err := s.db.Exec(`
		INSERT INTO room_state (room_code, state_json, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(room_code) DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at
	`, code, stateJSON)
	return err
}

// GetRoomState retrieves the serialized match snapshot for a room.
func (s *Store) GetRoomState(code string) (string, error) {
	var stateJSON string
	err := s.db.QueryRow("SELECT state_json FROM room_state WHERE room_code = ?", code).Scan(&stateJSON)
	return stateJSON, err
}

// DeleteRoom removes a room and its match snapshot.
func (s *Store) DeleteRoom(code string) error {
	_, err := s.db.Exec("DELETE FROM room_state WHERE room_code = ?", code)
	if err != nil {
		return err
	}
	_, err = s.db.Exec("DELETE FROM rooms WHERE code = ?", code)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
