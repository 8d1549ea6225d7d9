package ledger

import "github.com/google/uuid"

// NewID returns a fresh identifier tagged with prefix, e.g. "member-<uuid>".
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
