package model

import "time"

type BackupKind string

const (
	BackupKindExport BackupKind = "export"
	BackupKindImport BackupKind = "import"
)

type BackupStatus string

const (
	BackupStatusCompleted BackupStatus = "completed"
	BackupStatusFailed    BackupStatus = "failed"
)

// Backup records one export or import of the document.
type Backup struct {
	ID           int64        `json:"id"`
	Kind         BackupKind   `json:"kind"`
	Filename     string       `json:"filename"`
	SizeBytes    int64        `json:"size_bytes"`
	Encrypted    bool         `json:"encrypted"`
	Status       BackupStatus `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}
