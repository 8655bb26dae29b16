package store

import (
	"github.com/nullsector/teevault/internal/errors"
)

func errCorrupted(field string, cause error) error {
	return errors.Wrapf(errors.ErrCorrupted, "envelope field %s: %v", field, cause)
}
