// Package auth verifies login credentials and carries the resulting session
// in a signed cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zulandar/induction/internal/models"
	"github.com/zulandar/induction/internal/permission"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned when a login attempt is rejected.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Identity is a verified user and the role it acts under.
type Identity struct {
	UserID   string
	Username string
	Role     string
}

// IdentityProvider checks a username/password pair.
type IdentityProvider interface {
	Verify(ctx context.Context, username, password string) (Identity, error)
}

// roleHints is scanned in order; the first substring found in the
// lowercased username decides the role.
var roleHints = []struct {
	substr string
	role   string
}{
	{"operator", permission.RoleTrainOperator},
	{"officer", permission.RoleMetroOfficer},
	{"cleaner", permission.RoleCleaner},
	{"maintenance", permission.RoleMaintenanceWorker},
	{"staff1", permission.RoleStaff1},
	{"staff2", permission.RoleStaff2},
	{"admin", permission.RoleAdmin},
}

// RoleForUsername infers a role from the username. Names with no hint are admin.
func RoleForUsername(username string) string {
	lower := strings.ToLower(username)
	for _, h := range roleHints {
		if strings.Contains(lower, h.substr) {
			return h.role
		}
	}
	return permission.RoleAdmin
}

// MockProvider accepts any non-empty username and password.
type MockProvider struct{}

// Verify implements IdentityProvider.
func (MockProvider) Verify(_ context.Context, username, password string) (Identity, error) {
	if username == "" || password == "" {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{
		UserID:   username,
		Username: username,
		Role:     RoleForUsername(username),
	}, nil
}

// ProfileProvider checks credentials against stored user profiles.
type ProfileProvider struct {
	DB *gorm.DB
}

// Verify implements IdentityProvider.
func (p ProfileProvider) Verify(ctx context.Context, username, password string) (Identity, error) {
	if username == "" || password == "" {
		return Identity{}, ErrInvalidCredentials
	}
	var profile models.UserProfile
	err := p.DB.WithContext(ctx).Where("username = ?", username).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, fmt.Errorf("auth: load profile %s: %w", username, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{
		UserID:   strconv.FormatUint(uint64(profile.ID), 10),
		Username: profile.Username,
		Role:     profile.Role,
	}, nil
}

// HashPassword returns a bcrypt hash suitable for UserProfile.PasswordHash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("auth: password is required")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(h), nil
}

// ProfileOpts holds parameters for registering a user profile.
type ProfileOpts struct {
	Username   string
	Password   string
	Role       string
	EmployeeID string
	Department string
}

// CreateProfile stores a user profile with a hashed password.
func CreateProfile(db *gorm.DB, opts ProfileOpts) (*models.UserProfile, error) {
	if opts.Username == "" {
		return nil, fmt.Errorf("auth: username is required")
	}
	if opts.Role == "" {
		opts.Role = permission.RoleStaff1
	}
	if !permission.IsRole(opts.Role) {
		return nil, fmt.Errorf("auth: unknown role %q", opts.Role)
	}
	hash, err := HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}
	profile := models.UserProfile{
		Username:     opts.Username,
		Role:         opts.Role,
		Department:   opts.Department,
		PasswordHash: hash,
	}
	if opts.EmployeeID != "" {
		profile.EmployeeID = &opts.EmployeeID
	}
	if err := db.Create(&profile).Error; err != nil {
		return nil, fmt.Errorf("auth: create profile %s: %w", opts.Username, err)
	}
	return &profile, nil
}

// ListProfiles returns all user profiles ordered by username.
func ListProfiles(db *gorm.DB) ([]models.UserProfile, error) {
	var profiles []models.UserProfile
	if err := db.Order("username").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("auth: list profiles: %w", err)
	}
	return profiles, nil
}
