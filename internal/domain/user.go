package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User-specific validation errors
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrEmptyUserName       = errors.New("user name cannot be empty")
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrEmptyHashedPassword = errors.New("hashed credential cannot be empty")
)

// User represents a registered user of the task board.
// The credential hash is never serialized; every read path returns the
// user without it reaching a caller.
type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Never expose the credential hash in JSON
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserCreateIntent is a validated, immutable representation of a requested
// user creation. Its existence is proof the input passed format checks.
type UserCreateIntent struct {
	Name  string
	Email string
}

// NewUserCreateIntent validates the raw input and returns an intent.
func NewUserCreateIntent(name, email string) (UserCreateIntent, error) {
	if name == "" {
		return UserCreateIntent{}, NewValidationError("name", "is required", ErrEmptyUserName)
	}
	if email == "" {
		return UserCreateIntent{}, NewValidationError("email", "is required", ErrEmptyEmail)
	}
	if !validEmailFormat(email) {
		return UserCreateIntent{}, NewValidationError("email", "has invalid format", ErrInvalidEmail)
	}
	return UserCreateIntent{Name: name, Email: email}, nil
}

// UserUpdateIntent is a validated representation of a requested user update.
// Only the name is mutable; email and credential are immutable post-creation.
type UserUpdateIntent struct {
	Name string
}

// NewUserUpdateIntent validates the raw input and returns an intent.
func NewUserUpdateIntent(name string) (UserUpdateIntent, error) {
	if name == "" {
		return UserUpdateIntent{}, NewValidationError("name", "is required", ErrEmptyUserName)
	}
	return UserUpdateIntent{Name: name}, nil
}

// NewUser creates a User from a validated intent and the server-generated
// credential hash. It generates a new UUID and sets both timestamps.
func NewUser(intent UserCreateIntent, hashedPassword string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:             uuid.New(),
		Name:           intent.Name,
		Email:          intent.Email,
		HashedPassword: hashedPassword,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// ApplyUpdate returns the next user state given a validated update intent.
// Pure: the receiver is not mutated. Email, credential, ID and CreatedAt
// carry over unchanged; UpdatedAt is refreshed.
func (u User) ApplyUpdate(intent UserUpdateIntent) User {
	next := u
	next.Name = intent.Name
	next.UpdatedAt = time.Now().UTC()
	return next
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if u.Name == "" {
		return ErrEmptyUserName
	}
	if u.Email == "" {
		return ErrEmptyEmail
	}
	if !validEmailFormat(u.Email) {
		return ErrInvalidEmail
	}
	if u.HashedPassword == "" {
		return ErrEmptyHashedPassword
	}
	return nil
}

// validEmailFormat checks for the basic local@domain.tld shape.
// Intentionally simple; the unique index on email does the heavy lifting.
func validEmailFormat(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	local, dom := email[:at], email[at+1:]
	if strings.ContainsAny(local, " \t") || strings.ContainsAny(dom, " \t") {
		return false
	}
	dot := strings.IndexByte(dom, '.')
	return dot > 0 && dot < len(dom)-1
}
