package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"cadastro-api/config"
	"cadastro-api/internal/repository"
	"cadastro-api/internal/services"
	"cadastro-api/migrations"
	"cadastro-api/pkg/database"
	"cadastro-api/pkg/logger"
)

const usage = `
Cadastro API - Database CLI Tool

Usage:
  migrate [flags] [command]

Commands:
  up          Apply all pending migrations
  down        Roll back the most recent migration
  status      Show connection, migration and table status
  seed-dev    Register development accounts through the auth service

Flags:
  -seed-count int    Number of development accounts (default 3)
  -seed-pass string  Password for development accounts (default "senha123")

Examples:
  go run ./cmd/migrate up
  go run ./cmd/migrate status
  go run ./cmd/migrate -seed-count 5 seed-dev
`

func main() {
	seedCount := flag.Int("seed-count", 3, "Number of development accounts")
	seedPass := flag.String("seed-pass", "senha123", "Password for development accounts")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	cfg := config.LoadConfig()
	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer pool.Close()

	db := database.OpenSQL(pool)
	defer db.Close()

	migrator, err := database.NewMigrator(db, migrations.Migrations)
	if err != nil {
		log.Fatalf("Migrator setup failed: %v", err)
	}

	switch command {
	case "up":
		log.Println("Running migrations UP...")
		if err := migrator.Up(ctx); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")

	case "down":
		log.Println("Rolling back the last migration...")
		if err := migrator.Down(ctx); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
		log.Println("Rollback completed successfully")

	case "status":
		if err := migrator.Status(ctx); err != nil {
			log.Fatalf("Status failed: %v", err)
		}
		exists, err := database.TableExists(ctx, pool, "cadastro")
		if err != nil {
			log.Fatalf("Table check failed: %v", err)
		}
		if !exists {
			log.Println("Table cadastro does not exist")
			return
		}
		count, err := database.CountAccounts(ctx, pool)
		if err != nil {
			log.Fatalf("Count failed: %v", err)
		}
		log.Printf("Table cadastro exists (%d rows)", count)

	case "seed-dev":
		l := logger.New(cfg.AppMode)
		defer l.Sync()

		svc := services.NewAuthService(
			repository.NewAccountRepository(pool),
			services.NewBcryptHasher(cfg.BCryptCost),
			cfg,
			l,
		)
		created, err := seedDevelopment(ctx, svc, *seedCount, *seedPass)
		if err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Printf("Development seeding completed: %d accounts created", created)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
