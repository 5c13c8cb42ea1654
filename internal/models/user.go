package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User is an account known to the identity provider.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's email address (unique). Used for password login
	// and for linking a federated identity to an existing account.
	Email string

	// DisplayName is shown next to the user's recipes.
	DisplayName string

	// PasswordHash is the bcrypt hash. Empty for federated-only accounts.
	PasswordHash string

	// OIDCSubject is the federated provider's subject. Empty for password accounts.
	OIDCSubject string

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// NewUser builds a user with a fresh id and timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Theme is the UI theme stored on a profile.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// ParseTheme converts a wire value into a Theme.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(s); t {
	case ThemeDark, ThemeLight:
		return t, nil
	default:
		return "", fmt.Errorf("unknown theme: %q", s)
	}
}

// UserProfile is the per-user settings document, keyed by user id.
type UserProfile struct {
	ScreenName string `json:"screenName"`
	Theme      Theme  `json:"theme"`
	CreatedAt  int64  `json:"createdAt,omitempty"`
	UpdatedAt  int64  `json:"updatedAt,omitempty"`
}

// SavedRecipe is one bookmark in a user's recipe book.
type SavedRecipe struct {
	RecipeID string `json:"recipeId"`
	SavedAt  int64  `json:"savedAt,omitempty"`
}
