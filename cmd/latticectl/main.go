// Command latticectl is the operations CLI for the Lattice API.
//
// Subcommands:
//
//	migrate up        apply pending schema migrations
//	migrate status    show which migrations are applied
//	migrate verify    check applied migrations against embedded scripts
//	deploy detect     print the detected deployment target
//	deploy validate   check the environment against a target's contract
//	deploy generate   write deployment artifacts for a target
//	token             mint an admin JWT for local development
//	keygen            write a fresh RSA key pair for JWT signing
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/latticekit/api/internal/config"
	"github.com/latticekit/api/internal/database"
	"github.com/latticekit/api/internal/deploy"
	"github.com/latticekit/api/internal/migrate"
	"github.com/latticekit/api/pkg/jwt"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "migrate":
		err = runMigrate(os.Args[2:])
	case "deploy":
		err = runDeploy(os.Args[2:])
	case "token":
		err = runToken(os.Args[2:])
	case "keygen":
		err = runKeygen(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "latticectl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: latticectl <migrate|deploy|token|keygen> [args]")
	fmt.Fprintln(os.Stderr, "  migrate up|status|verify")
	fmt.Fprintln(os.Stderr, "  deploy detect|validate|generate [flags]")
	fmt.Fprintln(os.Stderr, "  token [flags]")
	fmt.Fprintln(os.Stderr, "  keygen [flags]")
}

// ===== migrate =====

func runMigrate(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: latticectl migrate <up|status|verify>")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = db.Close() }()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	migrator := migrate.New(db, logger)

	switch args[0] {
	case "up":
		applied, err := migrator.Up(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("applied %d migration(s)\n", applied)
		return nil

	case "status":
		statuses, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			mark := " "
			if s.Applied {
				mark = "x"
			}
			fmt.Printf("[%s] %s %s\n", mark, s.Version, s.Name)
		}
		return nil

	case "verify":
		if err := migrator.Verify(ctx); err != nil {
			return err
		}
		fmt.Println("applied migrations match embedded scripts")
		return nil

	default:
		return fmt.Errorf("unknown migrate subcommand %q", args[0])
	}
}

// ===== deploy =====

func runDeploy(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: latticectl deploy <detect|validate|generate>")
	}

	switch args[0] {
	case "detect":
		fmt.Println(deploy.Detect())
		return nil
	case "validate":
		return runDeployValidate(args[1:])
	case "generate":
		return runDeployGenerate(args[1:])
	default:
		return fmt.Errorf("unknown deploy subcommand %q", args[0])
	}
}

func deployProfile(fs *flag.FlagSet, args []string) (deploy.Profile, error) {
	target := fs.String("target", "", "deployment target (default: auto-detect)")
	env := fs.String("env", "development", "environment: development, staging, production")
	if err := fs.Parse(args); err != nil {
		return deploy.Profile{}, err
	}

	resolved := deploy.Detect()
	if *target != "" {
		parsed, ok := deploy.ParseTarget(*target)
		if !ok {
			return deploy.Profile{}, fmt.Errorf("unknown target %q (known: %v)", *target, deploy.Targets())
		}
		resolved = parsed
	}

	return deploy.ProfileFor(resolved, *env), nil
}

func runDeployValidate(args []string) error {
	fs := flag.NewFlagSet("deploy validate", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "output as JSON")

	profile, err := deployProfile(fs, args)
	if err != nil {
		return err
	}

	findings := deploy.Validate(profile, os.Getenv)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(findings); err != nil {
			return err
		}
	} else {
		fmt.Printf("target: %s (%s)\n", findings.Target, findings.Environment)
		for _, e := range findings.Errors {
			fmt.Printf("  error:   %s\n", e)
		}
		for _, w := range findings.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		if findings.Valid {
			fmt.Println("ok")
		}
	}

	if !findings.Valid {
		return fmt.Errorf("environment is not valid for %s", findings.Target)
	}
	return nil
}

func runDeployGenerate(args []string) error {
	fs := flag.NewFlagSet("deploy generate", flag.ContinueOnError)
	app := fs.String("app", "lattice-api", "application name used in artifacts")
	image := fs.String("image", "lattice-api:latest", "container image reference")
	out := fs.String("out", ".", "directory to write artifacts into")

	profile, err := deployProfile(fs, args)
	if err != nil {
		return err
	}

	artifacts, err := deploy.Generate(profile, *app, *image)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}
	for _, artifact := range artifacts {
		path := filepath.Join(*out, artifact.Name)
		if err := os.WriteFile(path, []byte(artifact.Content), 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

// ===== token =====

func runToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	privateKeyPath := fs.String("key", "./keys/private.pem", "path to JWT private key")
	userID := fs.String("user", "user:admin-dev", "user ID for the token")
	email := fs.String("email", "admin@lattice.dev", "email for the token")
	issuer := fs.String("issuer", "api.latticekit.dev", "JWT issuer")
	expMins := fs.Int("exp", 60*24*7, "token expiration in minutes")
	asJSON := fs.Bool("json", false, "output as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: *privateKeyPath,
		Issuer:         *issuer,
		ExpirationMins: *expMins,
	})
	if err != nil {
		return fmt.Errorf("creating JWT service (generate keys with: latticectl keygen): %w", err)
	}

	token, err := jwtService.Sign(jwt.Claims{
		Subject:  *userID,
		UserID:   *userID,
		Email:    *email,
		Username: "admin",
		Role:     "admin",
	})
	if err != nil {
		return fmt.Errorf("signing token: %w", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   *expMins * 60,
			"user_id":      *userID,
			"email":        *email,
			"role":         "admin",
		})
	}

	fmt.Println(token)
	return nil
}

// ===== keygen =====

func runKeygen(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	privateKeyPath := fs.String("private", "./keys/private.pem", "path to write the private key")
	publicKeyPath := fs.String("public", "./keys/public.pem", "path to write the public key")
	force := fs.Bool("force", false, "overwrite existing key files")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*force {
		for _, path := range []string{*privateKeyPath, *publicKeyPath} {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists (use -force to overwrite)", path)
			}
		}
	}

	for _, dir := range []string{filepath.Dir(*privateKeyPath), filepath.Dir(*publicKeyPath)} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	if err := jwt.GenerateKeyPair(*privateKeyPath, *publicKeyPath); err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}

	fmt.Printf("wrote %s\n", *privateKeyPath)
	fmt.Printf("wrote %s\n", *publicKeyPath)
	return nil
}
