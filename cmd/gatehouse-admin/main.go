// Package main is the entry point for the Gatehouse admin CLI.
// This tool provides administrative commands for managing user accounts
// directly against the configured database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gatehouse/internal/config"
	"github.com/prn-tf/gatehouse/internal/metrics"
	"github.com/prn-tf/gatehouse/internal/pkg/password"
	"github.com/prn-tf/gatehouse/internal/repository"
	"github.com/prn-tf/gatehouse/internal/repository/postgres"
	"github.com/prn-tf/gatehouse/internal/repository/sqlite"
	"github.com/prn-tf/gatehouse/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Println("Gatehouse Admin CLI")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		if err := runUserCommand(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runUserCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("missing user subcommand (create, list, delete, unlock)")
	}

	sub := args[0]
	fs := flag.NewFlagSet("user "+sub, flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	username := fs.String("username", "", "username (create)")
	email := fs.String("email", "", "email address (create)")
	passwd := fs.String("password", "", "password (create)")
	userID := fs.Int64("id", 0, "user ID (delete, unlock)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// CLI runs are interactive; keep the log output quiet.
	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userRepo, closer, err := openRepository(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	hasher := password.NewHasher(cfg.Auth.BcryptCost)
	users := service.NewUserService(userRepo, hasher, metrics.New(), logger)

	switch sub {
	case "create":
		user, err := users.Register(ctx, service.RegisterInput{
			Username: *username,
			Email:    *email,
			Password: *passwd,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created user %d (%s)\n", user.ID, user.Username)
		return nil

	case "list":
		out, err := users.List(ctx, service.ListUsersInput{Limit: 100})
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tFAILED\tLOCK UNTIL\tCREATED")
		for _, u := range out.Users {
			lock := "-"
			if u.LockUntil != nil {
				lock = u.LockUntil.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n",
				u.ID, u.Username, u.Email, u.FailedAttempts, lock,
				u.CreatedAt.Format(time.RFC3339))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("%d users total\n", out.TotalCount)
		return nil

	case "delete":
		if *userID == 0 {
			return fmt.Errorf("-id is required")
		}
		if err := users.Delete(ctx, *userID); err != nil {
			return err
		}
		fmt.Printf("Deleted user %d\n", *userID)
		return nil

	case "unlock":
		if *userID == 0 {
			return fmt.Errorf("-id is required")
		}
		if err := users.Unlock(ctx, *userID); err != nil {
			return err
		}
		fmt.Printf("Unlocked user %d\n", *userID)
		return nil

	default:
		return fmt.Errorf("unknown user subcommand: %s", sub)
	}
}

// openRepository connects to the configured database and returns the user
// repository plus a closer for the underlying connection.
func openRepository(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (repository.UserRepository, repository.DatabaseHealth, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewUserRepository(db), db, nil
	case "sqlite":
		db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(cfg.Path), logger)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewUserRepository(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func printUsage() {
	fmt.Println(`Gatehouse Admin CLI

Usage:
  gatehouse-admin <command> [arguments]

Commands:
  user        Manage users (create, list, delete, unlock)
  version     Print version information
  help        Show this help message

Examples:
  gatehouse-admin user create -username alice -email alice@example.com -password secret123
  gatehouse-admin user list
  gatehouse-admin user delete -id 42
  gatehouse-admin user unlock -id 42

Use "gatehouse-admin user <subcommand> -h" for subcommand flags.`)
}
