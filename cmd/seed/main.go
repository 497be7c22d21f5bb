package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/unxchange/auth-service/internal/auth"
	"github.com/unxchange/auth-service/internal/config"
	"github.com/unxchange/auth-service/internal/database"
	"github.com/unxchange/auth-service/internal/user"
)

type seedFile struct {
	Users []struct {
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		Role     string `yaml:"role"`
	} `yaml:"users"`
}

func main() {
	var file string

	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo users into the auth database",
		Long:  "Reads a YAML fixture of users, hashes their passwords and inserts them, skipping emails that already exist.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), file)
		},
	}

	rootCmd.Flags().StringVarP(&file, "file", "f", "users.yaml", "YAML fixture with users to insert")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSeed(ctx context.Context, path string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixture: %w", err)
	}

	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("failed to parse fixture: %w", err)
	}

	sqlDB, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	repo := user.NewRepository(database.NewBunDB(sqlDB))

	var created, skipped int
	for _, u := range sf.Users {
		if u.Email == "" || u.Password == "" {
			fmt.Printf("skipping entry with missing email or password: %q\n", u.Name)
			skipped++
			continue
		}

		role, err := user.ParseRole(u.Role)
		if err != nil {
			return fmt.Errorf("entry %q: %w", u.Email, err)
		}

		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("entry %q: failed to hash password: %w", u.Email, err)
		}

		inserted, err := repo.Create(ctx, u.Name, u.Email, hash, role)
		if err != nil {
			if errors.Is(err, user.ErrDuplicateEmail) {
				fmt.Printf("user %s already exists, skipping\n", u.Email)
				skipped++
				continue
			}
			return fmt.Errorf("entry %q: %w", u.Email, err)
		}

		fmt.Printf("created user %s (id=%d, role=%s)\n", inserted.Email, inserted.ID, inserted.Role)
		created++
	}

	fmt.Printf("done: %d created, %d skipped\n", created, skipped)
	return nil
}
