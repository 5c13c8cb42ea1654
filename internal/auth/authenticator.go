package auth

import (
	"context"

	"github.com/mmynk/scrtch/internal/models"
)

// Authenticator defines the interface for credential-based sign-in.
// Federated sign-in goes through FederatedAuthenticator instead; both end
// in a models.User that the service layer turns into a session token.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	// Returns ErrEmailExists if the email is already taken.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user.
	// Unknown emails and wrong credentials both return ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
