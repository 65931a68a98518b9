package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"realtyvest/internal/verification/models"
	id "realtyvest/pkg/domain"
	"realtyvest/pkg/platform/sentinel"
)

//go:embed schema.sql
var schema string

// PostgresStore keeps the record row and its history rows in separate
// tables. History rows are ordered by seq, the entry's index in the log.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate verification schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, userID id.UserID) (models.Snapshot, error) {
	var (
		status string
		data   []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT status, data FROM verification_records WHERE user_id = $1`,
		userID.String(),
	).Scan(&status, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Snapshot{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("load verification record: %w", err)
	}

	snap, err := decodeRow(status, data)
	if err != nil {
		return models.Snapshot{}, err
	}
	history, err := s.loadHistory(ctx, []string{userID.String()})
	if err != nil {
		return models.Snapshot{}, err
	}
	snap.History = history[userID.String()]
	if snap.History == nil {
		snap.History = []models.HistoryEntry{}
	}
	return snap, nil
}

// Save replaces the record and its history in one transaction.
func (s *PostgresStore) Save(ctx context.Context, userID id.UserID, snapshot models.Snapshot) error {
	data, err := json.Marshal(snapshot.VerificationData)
	if err != nil {
		return fmt.Errorf("encode verification data: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin verification save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	uid := userID.String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO verification_records (user_id, status, data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id) DO UPDATE SET
			status = EXCLUDED.status,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`, uid, string(snapshot.Status), data)
	if err != nil {
		return fmt.Errorf("save verification record: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM verification_history WHERE user_id = $1 AND seq >= $2`,
		uid, len(snapshot.History),
	); err != nil {
		return fmt.Errorf("trim verification history: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO verification_history (user_id, seq, status, action, reason, data, occurred_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
		ON CONFLICT (user_id, seq) DO UPDATE SET
			status = EXCLUDED.status,
			action = EXCLUDED.action,
			reason = EXCLUDED.reason,
			data = EXCLUDED.data,
			occurred_at = EXCLUDED.occurred_at
	`)
	if err != nil {
		return fmt.Errorf("prepare verification history: %w", err)
	}
	defer stmt.Close()

	for seq, entry := range snapshot.History {
		var summary []byte
		if entry.Data != nil {
			if summary, err = json.Marshal(entry.Data); err != nil {
				return fmt.Errorf("encode submission summary: %w", err)
			}
		}
		if _, err := stmt.ExecContext(ctx, uid, seq, string(entry.Status), string(entry.Action), entry.Reason, summary, entry.Timestamp); err != nil {
			return fmt.Errorf("save verification history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit verification save: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID id.UserID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM verification_records WHERE user_id = $1`, userID.String()); err != nil {
		return fmt.Errorf("delete verification record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByStatus(ctx context.Context, statuses ...models.Status) ([]Entry, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	values := make([]string, len(statuses))
	for i, st := range statuses {
		values[i] = string(st)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, status, data FROM verification_records
		WHERE status = ANY($1)
		ORDER BY user_id::text
	`, pq.Array(values))
	if err != nil {
		return nil, fmt.Errorf("list verification records: %w", err)
	}
	defer rows.Close()

	var (
		entries []Entry
		ids     []string
	)
	for rows.Next() {
		var (
			uid, status string
			data        []byte
		)
		if err := rows.Scan(&uid, &status, &data); err != nil {
			return nil, fmt.Errorf("scan verification record: %w", err)
		}
		userID, err := id.ParseUserID(uid)
		if err != nil {
			return nil, fmt.Errorf("%w: stored user id %q", sentinel.ErrInvalidState, uid)
		}
		snap, err := decodeRow(status, data)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{UserID: userID, Snapshot: snap})
		ids = append(ids, uid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification records: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	history, err := s.loadHistory(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Snapshot.History = history[ids[i]]
		if entries[i].Snapshot.History == nil {
			entries[i].Snapshot.History = []models.HistoryEntry{}
		}
	}
	sortEntries(entries)
	return entries, nil
}

func (s *PostgresStore) loadHistory(ctx context.Context, userIDs []string) (map[string][]models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, status, action, COALESCE(reason, ''), data, occurred_at
		FROM verification_history
		WHERE user_id = ANY($1::uuid[])
		ORDER BY user_id, seq
	`, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("load verification history: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.HistoryEntry, len(userIDs))
	for rows.Next() {
		var (
			uid     string
			entry   models.HistoryEntry
			status  string
			action  string
			summary []byte
		)
		if err := rows.Scan(&uid, &status, &action, &entry.Reason, &summary, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan verification history: %w", err)
		}
		entry.Status = models.Status(status)
		entry.Action = models.Action(action)
		if len(summary) > 0 {
			entry.Data = &models.SubmissionSummary{}
			if err := json.Unmarshal(summary, entry.Data); err != nil {
				return nil, fmt.Errorf("%w: decode submission summary: %v", sentinel.ErrInvalidState, err)
			}
		}
		out[uid] = append(out[uid], entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification history: %w", err)
	}
	return out, nil
}

func decodeRow(status string, data []byte) (models.Snapshot, error) {
	snap := models.Snapshot{Status: models.Status(status)}
	if err := json.Unmarshal(data, &snap.VerificationData); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: decode verification data: %v", sentinel.ErrInvalidState, err)
	}
	if err := snap.Validate(); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %v", sentinel.ErrInvalidState, err)
	}
	return snap, nil
}
