package services

import (
	"context"
	"fmt"
	"net/http"

	apperrors "github.com/charlesng35/gatepass/pkg/errors"
)

var (
	// ErrStorage marks failures of the underlying database or image store.
	ErrStorage = apperrors.New("STORAGE_UNAVAILABLE", "Storage temporarily unavailable", http.StatusInternalServerError)
	// ErrDuplicateToken is returned when a derived token collides twice in a row.
	ErrDuplicateToken = apperrors.New("CREDENTIAL_DUPLICATE_TOKEN", "Could not derive a unique credential", http.StatusInternalServerError)
	// ErrRegistrantNotFound indicates the requested registrant does not exist.
	ErrRegistrantNotFound = apperrors.New("REGISTRANT_NOT_FOUND", "Registrant not found", http.StatusNotFound)
	// ErrCredentialNotFound indicates the registrant has no credential or image.
	ErrCredentialNotFound = apperrors.New("CREDENTIAL_NOT_FOUND", "Credential not found", http.StatusNotFound)
	// ErrAlreadyValidated refuses operations on registrants who already passed the checkpoint.
	ErrAlreadyValidated = apperrors.ErrAlreadyValidated
	// ErrInvalidConfirmation guards destructive maintenance operations.
	ErrInvalidConfirmation = apperrors.ErrConfirmationRequired
)

func storageError(op string, err error) error {
	return ErrStorage.WithInternal(fmt.Errorf("%s: %w", op, err))
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
