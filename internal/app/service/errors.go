package service

import (
	"errors"
	"fmt"

	"github.com/sifan077/LinkDesk/internal/app/repository"
)

var (
	// ErrNotFound signals that the referenced URL record does not exist.
	ErrNotFound = repository.ErrURLNotFound

	// ErrValidation signals a rejected input such as blank error text or an
	// empty domain order.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable wraps failures of the backing store.
	ErrUnavailable = errors.New("store unavailable")

	// ErrPartialUpload signals that at least one image of a batch failed to upload.
	ErrPartialUpload = errors.New("image upload failed")
)

// classify maps repository failures onto the service error taxonomy.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrUnavailable),
		errors.Is(err, ErrPartialUpload),
		errors.Is(err, repository.ErrSettingNotFound):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func wrapOp(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
