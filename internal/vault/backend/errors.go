package backend

import (
	"fmt"

	"github.com/nullsector/teevault/internal/errors"
	"github.com/nullsector/teevault/internal/vault/domain"
)

func errUnsupportedBackend(id domain.BackendID) error {
	return errors.Wrap(errors.ErrUnsupportedBackend, fmt.Sprintf("backend %q is not registered in this build", id))
}
