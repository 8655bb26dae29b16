package backend

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"

	"gocloud.dev/secrets"

	// Register every secrets.Keeper driver the envelope's dpapi+tpm backend
	// might be pointed at via its key URI scheme. A vault operator who sets
	// VAULT_KMS_KEY_URI to awskms://, azurekeyvault://, gcpkms://,
	// hashivault://, or base64key:// gets a working Keeper without code
	// changes.
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"

	"github.com/nullsector/teevault/internal/errors"
	"github.com/nullsector/teevault/internal/vault/domain"
)

// KMSKeeper is the subset of gocloud.dev/secrets.Keeper this backend needs.
// Declared as an interface so tests can substitute a fake keeper.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// KMSOpener opens a Keeper for a key URI. The default implementation wraps
// secrets.OpenKeeper.
type KMSOpener interface {
	OpenKeeper(ctx context.Context, keyURI string) (KMSKeeper, error)
}

type gocloudOpener struct{}

func (gocloudOpener) OpenKeeper(ctx context.Context, keyURI string) (KMSKeeper, error) {
	return secrets.OpenKeeper(ctx, keyURI)
}

// DPAPITPMBackend models a TPM-sealed VMK as a gocloud.dev/secrets Keeper
// wrap/unwrap: on real Windows+TPM hardware the platform's DPAPI+TPM stack
// would hold the wrapping key, but the Keeper abstraction lets this build
// exercise the same seal/unseal contract against any of the five registered
// KMS schemes.
type DPAPITPMBackend struct {
	keyURI string
	opener KMSOpener
	logger *slog.Logger
}

// NewDPAPITPMBackend builds a backend bound to keyURI (e.g.
// "base64key://...", "awskms://...", "hashivault://...").
func NewDPAPITPMBackend(keyURI string, logger *slog.Logger) *DPAPITPMBackend {
	return &DPAPITPMBackend{keyURI: keyURI, opener: gocloudOpener{}, logger: logger}
}

func (b *DPAPITPMBackend) ID() domain.BackendID {
	return domain.BackendDPAPITPM
}

func (b *DPAPITPMBackend) openKeeper(ctx context.Context) (KMSKeeper, error) {
	b.logger.Info("opening kms keeper", slog.String("kms_key_uri", maskKeyURI(b.keyURI)))
	keeper, err := b.opener.OpenKeeper(ctx, b.keyURI)
	if err != nil {
		return nil, errors.Wrap(errors.ErrHardwareUnavailable, err.Error())
	}
	return keeper, nil
}

// Seal wraps vmk with the configured Keeper and base64-encodes the result
// for storage in sealedVmk.
func (b *DPAPITPMBackend) Seal(ctx context.Context, vmk []byte) (string, error) {
	keeper, err := b.openKeeper(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := keeper.Close(); closeErr != nil {
			b.logger.Warn("failed to close kms keeper", slog.Any("error", closeErr))
		}
	}()

	ciphertext, err := keeper.Encrypt(ctx, vmk)
	if err != nil {
		return "", errors.Wrap(errors.ErrHardwareUnavailable, err.Error())
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Unseal unwraps the stored blob with the configured Keeper.
func (b *DPAPITPMBackend) Unseal(ctx context.Context, blobB64 string) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(blobB64)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCorrupted, "sealedVmk is not valid base64")
	}

	keeper, err := b.openKeeper(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := keeper.Close(); closeErr != nil {
			b.logger.Warn("failed to close kms keeper", slog.Any("error", closeErr))
		}
	}()

	vmk, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, errors.Wrap(errors.ErrAuthenticationFailure, err.Error())
	}
	if len(vmk) != 32 {
		return nil, errors.Wrap(errors.ErrCorrupted, "unwrapped vmk has unexpected length")
	}
	return vmk, nil
}

// maskKeyURI redacts the sensitive portion of a key URI before it reaches a
// log line. Mirrors the masking rules of the pack's own KMS key-URI logger:
// base64key collapses entirely, cloud schemes keep their structure but
// blank out identifiers.
func maskKeyURI(uri string) string {
	if uri == "" {
		return ""
	}

	parts := strings.SplitN(uri, "://", 2)
	if len(parts) != 2 {
		return "***"
	}
	scheme, remainder := parts[0], parts[1]

	switch scheme {
	case "base64key":
		return scheme + "://***"
	case "gcpkms":
		pathParts := strings.Split(remainder, "/")
		for i := range pathParts {
			if i%2 == 1 {
				pathParts[i] = "***"
			}
		}
		return scheme + "://" + strings.Join(pathParts, "/")
	case "awskms":
		queryParts := strings.SplitN(remainder, "?", 2)
		masked := scheme + "://***"
		if len(queryParts) == 2 {
			masked += "?" + queryParts[1]
		}
		return masked
	default:
		return scheme + "://***"
	}
}
