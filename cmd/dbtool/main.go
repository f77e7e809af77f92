package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/PortNumber53/swpm-stripe-cancel/internal/auth"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/config"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/migrations"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/store"
)

const usage = "usage: %s [up|fix|force <version>|get-option <name>|set-option <name> <value>|issue-token <member-id> [caps...]]"

func main() {
	_ = godotenv.Load(
		"../.env",
		".env",
	)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	args := os.Args[1:]
	cmd := "up"
	if len(args) > 0 {
		cmd = args[0]
	}

	// Token issuing does not touch the database.
	if cmd == "issue-token" {
		issueToken(cfg, args[1:])
		return
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	switch cmd {
	case "up":
		log.Printf("Applying migrations...")
		if err := migrations.Up(db); err != nil {
			log.Fatalf("failed to apply migrations: %v", err)
		}
		log.Printf("Migrations applied successfully")

	case "fix":
		log.Printf("Attempting to fix dirty database...")
		if err := migrations.FixDirtyDatabase(db); err != nil {
			log.Fatalf("failed to fix dirty database: %v", err)
		}
		log.Printf("Database fixed successfully")

	case "force":
		if len(args) < 2 {
			log.Fatalf("usage: %s force <version>", os.Args[0])
		}
		v, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			log.Fatalf("invalid version number: %s", args[1])
		}
		log.Printf("Forcing database version to %d...", v)
		if err := migrations.ForceVersion(db, uint(v)); err != nil {
			log.Fatalf("failed to force version: %v", err)
		}
		log.Printf("Database version forced to %d", v)

	case "get-option", "set-option":
		st, err := store.New(db)
		if err != nil {
			log.Fatalf("failed to create store: %v", err)
		}
		if cmd == "get-option" {
			if len(args) < 2 {
				log.Fatalf("usage: %s get-option <name>", os.Args[0])
			}
			value, ok, err := st.GetOption(ctx, args[1])
			if err != nil {
				log.Fatalf("failed to read option: %v", err)
			}
			if !ok {
				log.Fatalf("option %s is not set", args[1])
			}
			fmt.Println(value)
			return
		}
		if len(args) < 3 {
			log.Fatalf("usage: %s set-option <name> <value>", os.Args[0])
		}
		if err := st.SetOption(ctx, args[1], args[2]); err != nil {
			log.Fatalf("failed to write option: %v", err)
		}
		log.Printf("Option %s updated", args[1])

	default:
		log.Printf(usage, os.Args[0])
		os.Exit(1)
	}
}

func issueToken(cfg config.Config, args []string) {
	if len(args) < 1 {
		log.Fatalf("usage: %s issue-token <member-id> [caps...]", os.Args[0])
	}
	memberID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		log.Fatalf("invalid member id: %s", args[0])
	}

	token, err := auth.IssueToken([]byte(cfg.SessionSecret), memberID, args[1:], 24*time.Hour)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}
	fmt.Println(token)
}
