package audit

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/nullsector/teevault/internal/vault/primitives"
)

const signingKeyInfo = "audit-log-signing-v1"

// record is the on-disk shape of one audit line: the ChaCha20-Poly1305
// sealed entry plus the HMAC-SHA256 tag binding it against tampering.
type record struct {
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
	HMAC       string `json:"hmac"`
}

// FileAuditSink appends encrypted, signed JSON lines to a local file. Every
// record is individually ChaCha20-Poly1305-sealed under a key derived from
// the VMK via HKDF-SHA256, then HMAC-SHA256-signed with a second key derived
// from the same VMK under a distinct info string. Both keys are re-derived
// on every Append; nothing is cached across calls.
type FileAuditSink struct {
	mu     sync.Mutex
	path   string
	vmk    []byte
	logger *slog.Logger
}

// NewFileAuditSink returns a sink writing to path, deriving its encryption
// and signing keys from vmk. vmk is not retained beyond key derivation for
// each Append call.
func NewFileAuditSink(path string, vmk []byte, logger *slog.Logger) *FileAuditSink {
	if logger == nil {
		logger = slog.Default()
	}
	owned := make([]byte, len(vmk))
	copy(owned, vmk)
	return &FileAuditSink{path: path, vmk: owned, logger: logger}
}

// Append encrypts and signs entry and appends it as one JSON line to the
// sink's file. Failures are logged via slog and never returned: the caller
// never depends on audit-sink success.
func (s *FileAuditSink) Append(_ context.Context, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.appendLocked(entry); err != nil {
		s.logger.Error("audit sink append failed", slog.Any("error", err), slog.String("action", string(entry.Action)))
	}
}

func (s *FileAuditSink) appendLocked(entry Entry) error {
	plaintext, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	encKey, err := primitives.DeriveKey(s.vmk, nil, []byte("audit-log-encryption-v1"), chacha20poly1305.KeySize)
	if err != nil {
		return err
	}
	defer primitives.Scrub(encKey)

	aead, err := chacha20poly1305.New(encKey)
	if err != nil {
		return err
	}

	nonce, err := primitives.RandomBytes(chacha20poly1305.NonceSize)
	if err != nil {
		return err
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, nil)

	signKey, err := s.deriveSigningKey()
	if err != nil {
		return err
	}
	defer primitives.Scrub(signKey)

	tag := primitives.HMAC(signKey, ciphertext)

	rec := record{
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		HMAC:       hex.EncodeToString(tag),
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

// deriveSigningKey derives the HMAC signing key from the VMK, separating
// signing key usage from encryption key usage.
func (s *FileAuditSink) deriveSigningKey() ([]byte, error) {
	kdf := hkdf.New(sha256.New, s.vmk, nil, []byte(signingKeyInfo))
	key := make([]byte, 32)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Close scrubs the sink's retained VMK copy.
func (s *FileAuditSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	primitives.Scrub(s.vmk)
}
