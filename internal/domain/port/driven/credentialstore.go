package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/surveybridge/internal/domain/model"
)

// CredentialRPCPassword names the stored password used to open survey-system sessions.
const CredentialRPCPassword = "survey_rpc_password"

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
// SURVEYBRIDGE_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set SURVEYBRIDGE_SECRET_KEY")

// CredentialStore defines the driven port for encrypted secret persistence.
// Values cross this interface as plaintext; the adapter encrypts at rest.
type CredentialStore interface {
	// Set stores or replaces the secret for service.
	Set(ctx context.Context, service, plaintext string) error

	// Get returns the secret for service, or ("", nil) if none is stored.
	Get(ctx context.Context, service string) (string, error)

	// List returns all stored secrets, decrypted.
	List(ctx context.Context) ([]model.Credential, error)

	// Delete removes the secret for service.
	Delete(ctx context.Context, service string) error
}
