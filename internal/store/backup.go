package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/clubexpense/internal/model"
)

// BackupStore records exports and imports of the document.
type BackupStore struct {
	db *sql.DB
}

func NewBackupStore(db *sql.DB) *BackupStore {
	return &BackupStore{db: db}
}

// Create records a finished transfer. A non-empty errorMsg marks it failed.
func (s *BackupStore) Create(ctx context.Context, kind model.BackupKind, filename string, sizeBytes int64, encrypted bool, errorMsg string) (*model.Backup, error) {
	status := model.BackupStatusCompleted
	var errPtr *string
	if errorMsg != "" {
		status = model.BackupStatusFailed
		errPtr = &errorMsg
	}
	now := time.Now().UTC()

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO backups (kind, filename, size_bytes, encrypted, status, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		kind, filename, sizeBytes, encrypted, status, errPtr, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create backup: %w", err)
	}
	id, _ := result.LastInsertId()
	return &model.Backup{
		ID:           id,
		Kind:         kind,
		Filename:     filename,
		SizeBytes:    sizeBytes,
		Encrypted:    encrypted,
		Status:       status,
		ErrorMessage: errorMsg,
		CreatedAt:    now,
	}, nil
}

// List returns the most recent records first.
func (s *BackupStore) List(ctx context.Context, limit int) ([]model.Backup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, filename, size_bytes, encrypted, status, error_message, created_at
		 FROM backups ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	backups := []model.Backup{}
	for rows.Next() {
		var b model.Backup
		var errMsg sql.NullString
		if err := rows.Scan(&b.ID, &b.Kind, &b.Filename, &b.SizeBytes, &b.Encrypted, &b.Status, &errMsg, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan backup: %w", err)
		}
		b.ErrorMessage = errMsg.String
		backups = append(backups, b)
	}
	return backups, rows.Err()
}

// DeleteOlderThan prunes records created before the given time and returns
// how many were removed.
func (s *BackupStore) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM backups WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete old backups: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
