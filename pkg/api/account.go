package api

type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName,omitempty"`
	CreatedAt   *Timestamp `json:"createdAt,omitempty"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries a bearer token for the Authorization header.
type AuthResponse struct {
	User      User       `json:"user"`
	Token     string     `json:"token"`
	ExpiresAt *Timestamp `json:"expiresAt,omitempty"`
}

type UserResponse struct {
	User User `json:"user"`
}

type Profile struct {
	ScreenName string     `json:"screenName"`
	Theme      string     `json:"theme"`
	CreatedAt  *Timestamp `json:"createdAt,omitempty"`
	UpdatedAt  *Timestamp `json:"updatedAt,omitempty"`
}

// ProfileResponse has Found=false and the default profile before the
// first update.
type ProfileResponse struct {
	Found   bool    `json:"found"`
	Profile Profile `json:"profile"`
}

// UpdateProfileRequest merges the set fields into the profile.
type UpdateProfileRequest struct {
	ScreenName *string `json:"screenName,omitempty"`
	Theme      *string `json:"theme,omitempty"`
}
