package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/felling-licence-api/internal/models"
	"github.com/noah-isme/felling-licence-api/internal/service"
	"github.com/noah-isme/felling-licence-api/pkg/config"
)

// issue-token mints a bearer token for local testing against the API.
func main() {
	var (
		userID   string
		role     string
		email    string
		fullName string
	)
	flag.StringVar(&userID, "user", "", "User ID placed in the token subject")
	flag.StringVar(&role, "role", string(models.RoleAdminOfficer), "Role claim")
	flag.StringVar(&email, "email", "", "Email claim")
	flag.StringVar(&fullName, "name", "", "Full name claim")
	flag.Parse()

	if err := run(userID, models.UserRole(role), email, fullName); err != nil {
		log.Fatal(err)
	}
}

func run(userID string, role models.UserRole, email, fullName string) error {
	if userID == "" {
		return fmt.Errorf("-user is required")
	}
	if !validRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Env == config.EnvProduction {
		return fmt.Errorf("refusing to mint tokens with ENV=%s", cfg.Env)
	}

	tokens := service.NewTokenService(service.TokenConfig{
		Secret:   cfg.JWT.Secret,
		Expiry:   cfg.JWT.Expiration,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	}, zap.NewNop())

	token, expiresAt, err := tokens.IssueToken(userID, role, email, fullName)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Println(token)
	return nil
}

func validRole(role models.UserRole) bool {
	switch role {
	case models.RoleAccountAdministrator, models.RoleAdminOfficer, models.RoleWoodlandOfficer, models.RoleFieldManager, models.RoleApplicant:
		return true
	}
	return false
}
