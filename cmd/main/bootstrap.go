package main

import (
	"context"
	"fmt"

	"outpost/internal/auth"
	"outpost/internal/db"
	"outpost/internal/db/repositories"
)

// runBootstrap seeds the first admin user. It refuses to run twice so a
// leaked rerun cannot mint extra admin keys.
func runBootstrap() error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	repos := repositories.New(database)

	existing, err := repos.Users.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	for _, u := range existing {
		if u.IsAdmin {
			return fmt.Errorf("admin user %q already exists, bootstrap is one-time only", u.Username)
		}
	}

	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		return fmt.Errorf("failed to generate API key: %w", err)
	}

	admin, err := repos.Users.Create(ctx, "admin", true, &apiKey)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	fmt.Printf("Created admin user %q (id %d)\n", admin.Username, admin.ID)
	fmt.Printf("API key (store it now, it is not shown again): %s\n", apiKey)
	return nil
}
