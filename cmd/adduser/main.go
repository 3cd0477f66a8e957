package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Isild/home-budget-backend/internal/config"
	"github.com/Isild/home-budget-backend/internal/database"
	"github.com/Isild/home-budget-backend/internal/service"
	"github.com/Isild/home-budget-backend/internal/util"

	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "E-mail of the new user")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	admin := fs.Bool("admin", false, "Grant admin rights")
	configPath := fs.String("config", "", "Path to config file")
	dbPath := fs.String("db", "", "SQLite database path (overrides config)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		fmt.Fprintln(stdout, "Usage: adduser -email <email> [-password <password>] [-admin] [-config <file>] [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.Database.Driver = "sqlite"
		cfg.Database.Path = *dbPath
	}

	db, err := database.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	signer, err := util.NewTokenSigner(cfg.JWT.Secret, cfg.JWT.Algorithm, time.Duration(cfg.JWT.ExpireMinutes)*time.Minute)
	if err != nil {
		return err
	}
	log := zap.NewNop()
	auth := service.NewAuthService(db, signer, cfg.Security.BcryptCost, cfg.JWT.SingleSession, log)
	users := service.NewUserService(db, auth, service.NewLogMailer(log), log)

	user, err := users.Create(context.Background(), service.CreateUserInput{
		Email:    *email,
		Password: password,
		IsAdmin:  *admin,
		IsActive: true,
	})
	if errors.Is(err, service.ErrEmailTaken) {
		return fmt.Errorf("user %s already exists", *email)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with UUID %s (admin=%t)\n", user.Email, user.UUID, user.IsAdmin)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// non-terminal input (pipes, tests)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
