// Package bootstrap prepares the runtime shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InitRuntime connects to the database and Redis. The Redis client is nil when
// Redis is unreachable.
func InitRuntime(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return db, cache.GetClient(), nil
}

// AdminAccount is the account created by EnsureAdmin.
type AdminAccount struct {
	Name     string
	Email    string
	Password string
}

// EnsureAdmin creates the ADMIN account with a verified email. It fails when an
// account with the same email already exists.
func EnsureAdmin(ctx context.Context, users repository.UserRepository, acct AdminAccount) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(acct.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, models.NewValidationError("ADMIN_EMAIL must be a valid email address")
	}
	if err := validation.ValidatePassword(acct.Password); err != nil {
		return nil, models.NewValidationError("ADMIN_PASSWORD: " + err.Error())
	}

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return nil, models.NewValidationError("User already exists !!")
	case err != nil && !models.HasCode(err, models.CodeNotFound):
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(acct.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}

	name := strings.TrimSpace(acct.Name)
	if name == "" {
		name = "Admin"
	}
	admin := &models.User{
		Name:          name,
		Email:         email,
		EmailVerified: true,
		Role:          models.RoleAdmin,
		Status:        models.UserStatusActive,
		PasswordHash:  string(hashed),
	}
	if err := users.Create(ctx, admin); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "admin account created", slog.String("user_id", admin.ID))
	return admin, nil
}
