// Command createadmin seeds the default roles and creates an administrator account.
//
//	go run ./cmd/createadmin -email owner@example.com -name "Shop Owner"
//
// The password is read from -password or, when that is empty, from ADMIN_PASSWORD.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kendall-kelly/makanika-api/config"
	"github.com/kendall-kelly/makanika-api/models"
	"github.com/kendall-kelly/makanika-api/services"
	"go.uber.org/zap"
)

func main() {
	name := flag.String("name", "Administrator", "admin display name")
	email := flag.String("email", "", "admin email (required)")
	password := flag.String("password", "", "admin password, defaults to $ADMIN_PASSWORD")
	flag.Parse()

	if *password == "" {
		*password = os.Getenv("ADMIN_PASSWORD")
	}
	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := config.ConnectDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := config.Migrate(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	identity := services.NewIdentityService(db, services.BcryptHasher{}, logger)
	if err := identity.EnsureDefaultRoles(ctx); err != nil {
		logger.Fatal("failed to seed roles", zap.Error(err))
	}
	admin, err := identity.CreateUser(ctx, services.CreateUserInput{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Role:     string(models.RoleAdmin),
	})
	if err != nil {
		logger.Fatal("failed to create admin", zap.Error(err))
	}

	fmt.Printf("Admin account %s created (id %d). Roles admin, mechanic and customer are in place.\n", admin.Email, admin.ID)
}
