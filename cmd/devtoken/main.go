// Command devtoken prints a signed user token for calling the API locally.
//
//	devtoken <user-id> [ttl]
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"tcg-labeler/internal/middleware"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type tokenConfig struct {
	JWTSecret string `env:"JWT_SECRET,required"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: devtoken <user-id> [ttl]")
	}

	ttl := 24 * time.Hour
	if len(args) == 2 {
		d, err := time.ParseDuration(args[1])
		if err != nil {
			return fmt.Errorf("invalid ttl: %w", err)
		}
		ttl = d
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read .env file: %w", err)
	}

	var cfg tokenConfig
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	token, err := middleware.IssueToken(args[0], cfg.JWTSecret, ttl)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	fmt.Println(token)
	return nil
}
