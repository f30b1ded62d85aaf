package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// EnsureAdmin creates the admin account if no admin with that email exists.
// An existing password is never overwritten.
func EnsureAdmin(ctx context.Context, logger *slog.Logger, admin AdminStore, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		logger.Warn("admin credentials not configured, skipping admin bootstrap")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	created, err := admin.EnsureAdmin(ctx, email, string(hash))
	if err != nil {
		return fmt.Errorf("ensuring admin: %w", err)
	}
	if created {
		logger.Info("admin account created", "email", email)
	}
	return nil
}
