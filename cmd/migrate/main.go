package main

import (
	"context"
	"fmt"
	"os"

	"github.com/marcelsud/bookcatalog/book/postgres"
	"github.com/marcelsud/bookcatalog/config"
)

/*
migrate applies the embedded PostgreSQL migrations.

Usage:
  go run cmd/migrate/main.go [up|down]

Connection settings come from .env and the POSTGRES_* variables.
*/

func main() {
	arg := "up"
	if len(os.Args) > 1 {
		arg = os.Args[1]
	}
	direction, err := postgres.NewDirection(arg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidatePostgres(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("🔗 Connecting to PostgreSQL at %s:%s...\n", cfg.PostgresHost, cfg.PostgresPort)
	repo, err := postgres.NewRepositoryWithPoolConfig(
		cfg.PostgresConnectionString(),
		cfg.PostgresMaxOpenConns,
		cfg.PostgresMaxIdleConns,
		cfg.PostgresConnMaxLifeMinutes,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Error connecting to PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close(context.Background())

	if err := postgres.Migrate(repo.DB, direction); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Migration %s failed: %v\n", direction, err)
		repo.Close(context.Background())
		os.Exit(1)
	}
	fmt.Printf("✅ Migration %s complete\n", direction)
}
