package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bimberek/internal/models"
)

const userColumns = `id, email, handle, password_hash, role, google_id, facebook_id,
       theme_id, totp_secret, totp_enabled, created_at, updated_at`

// UserStore handles all user-related database operations.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.Handle, &u.PasswordHash, &u.Role,
		&u.GoogleID, &u.FacebookID, &u.ThemeID,
		&u.TOTPSecret, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindByID retrieves a user by their UUID. Returns nil if not found.
func (s *UserStore) FindByID(id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// FindByEmail retrieves a user by their email address. Returns nil if not found.
func (s *UserStore) FindByEmail(email string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// FindByLogin retrieves a user by email or handle, whichever matches.
// The login form accepts either. Returns nil if not found.
func (s *UserStore) FindByLogin(login string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE email = $1 OR handle = $1`, login))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by login: %w", err)
	}
	return u, nil
}

// FindByGoogleID retrieves a user by their Google account id. Returns nil if not found.
func (s *UserStore) FindByGoogleID(googleID string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by google id: %w", err)
	}
	return u, nil
}

// FindByFacebookID retrieves a user by their Facebook account id. Returns nil if not found.
func (s *UserStore) FindByFacebookID(facebookID string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE facebook_id = $1`, facebookID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by facebook id: %w", err)
	}
	return u, nil
}

// HandleExists reports whether a handle is already taken.
func (s *UserStore) HandleExists(handle string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM users WHERE handle = $1)`, handle,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check handle: %w", err)
	}
	return exists, nil
}

// Create inserts a new user with a bcrypt-hashed password.
func (s *UserStore) Create(email, handle, password string, role models.Role) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := scanUser(s.db.QueryRow(`
		INSERT INTO users (email, handle, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		email, handle, string(hash), role,
	))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// CreateFederated inserts a user arriving through a federated login.
// The account has no usable password; provider must be "google" or
// "facebook" and providerID is the subject id issued by the provider.
func (s *UserStore) CreateFederated(email, handle, provider, providerID string) (*models.User, error) {
	var column string
	switch provider {
	case "google":
		column = "google_id"
	case "facebook":
		column = "facebook_id"
	default:
		return nil, fmt.Errorf("create federated user: unknown provider %q", provider)
	}

	// An empty hash never matches any password under bcrypt, so the
	// account cannot be entered through the password form.
	u, err := scanUser(s.db.QueryRow(`
		INSERT INTO users (email, handle, password_hash, role, `+column+`)
		VALUES ($1, $2, '', $3, $4)
		RETURNING `+userColumns,
		email, handle, models.RoleUser, providerID,
	))
	if err != nil {
		return nil, fmt.Errorf("create federated user: %w", err)
	}
	return u, nil
}

// SetGoogleID links a Google account to an existing user. Used both for
// first-time federated sign-ins that match an existing email and for
// backfilling after a password login.
func (s *UserStore) SetGoogleID(userID uuid.UUID, googleID string) error {
	_, err := s.db.Exec(`
		UPDATE users SET google_id = $1, updated_at = NOW() WHERE id = $2
	`, googleID, userID)
	if err != nil {
		return fmt.Errorf("set google id: %w", err)
	}
	return nil
}

// SetFacebookID links a Facebook account to an existing user.
func (s *UserStore) SetFacebookID(userID uuid.UUID, facebookID string) error {
	_, err := s.db.Exec(`
		UPDATE users SET facebook_id = $1, updated_at = NOW() WHERE id = $2
	`, facebookID, userID)
	if err != nil {
		return fmt.Errorf("set facebook id: %w", err)
	}
	return nil
}

// SetTheme saves the user's storefront theme choice. A nil id reverts
// the user to the default theme.
func (s *UserStore) SetTheme(userID uuid.UUID, themeID *uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE users SET theme_id = $1, updated_at = NOW() WHERE id = $2
	`, themeID, userID)
	if err != nil {
		return fmt.Errorf("set user theme: %w", err)
	}
	return nil
}

// SetRole changes a user's role.
func (s *UserStore) SetRole(userID uuid.UUID, role models.Role) error {
	_, err := s.db.Exec(`
		UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2
	`, role, userID)
	if err != nil {
		return fmt.Errorf("set user role: %w", err)
	}
	return nil
}

// SetTOTPSecret saves the TOTP secret for a user (during 2FA setup).
func (s *UserStore) SetTOTPSecret(userID uuid.UUID, secret string) error {
	_, err := s.db.Exec(`
		UPDATE users SET totp_secret = $1, updated_at = NOW() WHERE id = $2
	`, secret, userID)
	if err != nil {
		return fmt.Errorf("set totp secret: %w", err)
	}
	return nil
}

// EnableTOTP marks 2FA as active for a user (after successful code verification).
func (s *UserStore) EnableTOTP(userID uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE users SET totp_enabled = TRUE, updated_at = NOW() WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}
	return nil
}

// ResetTOTP clears the TOTP secret and disables 2FA for a user.
// The user will be forced to set up 2FA again on their next login.
func (s *UserStore) ResetTOTP(userID uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE users SET totp_secret = NULL, totp_enabled = FALSE, updated_at = NOW() WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("reset totp: %w", err)
	}
	return nil
}

// List returns all users ordered by creation date, for the back-office.
func (s *UserStore) List() ([]models.User, error) {
	rows, err := s.db.Query(
		`SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Delete removes a user by ID.
func (s *UserStore) Delete(userID uuid.UUID) error {
	if _, err := s.db.Exec(`DELETE FROM users WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// CheckPassword verifies a plaintext password against the user's stored hash.
func (s *UserStore) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
