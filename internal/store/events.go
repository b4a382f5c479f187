package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// StoredEvent is one row of the append-only event log.
type StoredEvent struct {
	OwnerID   string
	Sequence  int
	EventType string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// AppendEvent records a new event with an auto-assigned sequence number.
// The sequence number is calculated within a transaction to avoid races.
// Payload is JSON-serialized if non-nil.
func (s *Store) AppendEvent(ownerID, eventType string, payload any) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sequence, err := nextSequenceInTx(tx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to get next sequence: %w", err)
	}

	var payloadJSON *string
	if payload != nil {
		jsonBytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to serialize payload: %w", err)
		}
		jsonStr := string(jsonBytes)
		payloadJSON = &jsonStr
	}

	_, err = tx.Exec(
		`INSERT INTO events (owner_id, sequence, event_type, payload_json) VALUES (?, ?, ?, ?)`,
		ownerID, sequence, eventType, payloadJSON)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListEvents returns the event log for an owner in sequence order,
// starting after the given sequence (0 returns everything).
func (s *Store) ListEvents(ownerID string, afterSequence int) ([]StoredEvent, error) {
	rows, err := s.conn.Query(
		`SELECT owner_id, sequence, event_type, payload_json, created_at
		 FROM events WHERE owner_id = ? AND sequence > ?
		 ORDER BY sequence`,
		ownerID, afterSequence)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var ev StoredEvent
		var payload sql.NullString
		if err := rows.Scan(&ev.OwnerID, &ev.Sequence, &ev.EventType, &payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if payload.Valid {
			ev.Payload = json.RawMessage(payload.String)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func nextSequenceInTx(tx *sql.Tx, ownerID string) (int, error) {
	var max sql.NullInt64
	err := tx.QueryRow(
		`SELECT MAX(sequence) FROM events WHERE owner_id = ?`, ownerID).Scan(&max)
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 1, nil
	}
	return int(max.Int64) + 1, nil
}
