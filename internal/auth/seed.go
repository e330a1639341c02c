package auth

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"

	"bookstore/pkg/models"
)

// DemoAccount is a login offered on a fresh install.
type DemoAccount struct {
	Username string
	Email    string
	Password string
	Role     models.Role
}

var DemoAccounts = []DemoAccount{
	{Username: "admin", Email: "admin@bookstore.com", Password: "admin123", Role: models.RoleAdmin},
	{Username: "user", Email: "user@gmail.com", Password: "user123", Role: models.RoleUser},
}

// SeedDemo creates the demo accounts that do not exist yet.
func SeedDemo(ctx context.Context, repo *Repo) error {
	for _, d := range DemoAccounts {
		existing, err := repo.GetByEmail(ctx, d.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(d.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash demo password: %w", err)
		}
		a := &Account{
			Username:     d.Username,
			Email:        d.Email,
			PasswordHash: string(hash),
			Role:         d.Role,
		}
		if err := repo.CreateUser(ctx, a); err != nil {
			return fmt.Errorf("seed %s: %w", d.Email, err)
		}
		log.Printf("[auth] seeded demo account %s (%s)", d.Email, d.Role)
	}
	return nil
}
