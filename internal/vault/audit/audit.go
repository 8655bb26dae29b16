// Package audit implements the vault's audit-sink contract: a one-way
// callback invoked on every state transition. The default sink persists
// ChaCha20-Poly1305-encrypted, HMAC-signed, newline-delimited JSON records
// to a local file; failures are logged and never propagated to the caller.
package audit

import (
	"context"
	"time"

	"github.com/nullsector/teevault/internal/vault/domain"
)

// Action names the state transition an audit record describes.
type Action string

const (
	ActionUnlock       Action = "unlock"
	ActionLock         Action = "lock"
	ActionAdd          Action = "add"
	ActionRetrieve     Action = "retrieve"
	ActionList         Action = "list"
	ActionDelete       Action = "delete"
	ActionRotateEntry  Action = "rotate_entry"
	ActionRotateMaster Action = "rotate_master"
)

// Entry is the structured record passed to every AuditSink. EntryLabel,
// EntryType, and Tool are optional and left zero when not applicable to the
// action.
type Entry struct {
	Timestamp  time.Time
	Action     Action
	EntryLabel string
	EntryType  domain.EntryType
	Tool       string
	Success    bool
	Error      string
}

// Sink is a one-way callback: append entry to an external append-only log.
// The core invokes it on every state transition but never depends on its
// success.
type Sink interface {
	Append(ctx context.Context, entry Entry)
}

// NoopSink discards every record. Useful for tests and for callers that
// decline audit logging entirely.
type NoopSink struct{}

// Append does nothing.
func (NoopSink) Append(context.Context, Entry) {}
