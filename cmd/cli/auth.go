package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"bookstore/internal/session"
)

func (a *app) handleAuth(ctx context.Context, sub string, args []string) error {
	switch sub {
	case "login":
		fs := pflag.NewFlagSet("auth login", pflag.ExitOnError)
		email := fs.StringP("email", "e", "", "email address")
		password := fs.StringP("password", "p", "", "password (prompted when omitted)")
		_ = fs.Parse(args)

		if *email == "" {
			return errors.New("email is required")
		}
		pw, err := passwordOrPrompt(*password, "Password: ")
		if err != nil {
			return err
		}

		res, err := a.client.Login(ctx, *email, pw)
		if err != nil {
			return err
		}
		if err := a.store.Save(session.New(res.User, res.Token)); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		fmt.Printf("✅ logged in as %s (%s)\n", res.User.Username, res.User.Role)
		return nil

	case "register":
		fs := pflag.NewFlagSet("auth register", pflag.ExitOnError)
		username := fs.StringP("username", "u", "", "username")
		email := fs.StringP("email", "e", "", "email address")
		password := fs.StringP("password", "p", "", "password (prompted when omitted)")
		_ = fs.Parse(args)

		if *username == "" || *email == "" {
			return errors.New("username and email are required")
		}
		pw, err := passwordOrPrompt(*password, "Password: ")
		if err != nil {
			return err
		}
		if *password == "" {
			confirm, err := passwordOrPrompt("", "Confirm password: ")
			if err != nil {
				return err
			}
			if confirm != pw {
				return errors.New("passwords do not match")
			}
		}
		if len(pw) < 6 {
			return errors.New("password must be at least 6 characters")
		}

		res, err := a.client.Register(ctx, *username, *email, pw)
		if err != nil {
			return err
		}
		if err := a.store.Save(session.New(res.User, res.Token)); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		fmt.Println("✅ registered and logged in")
		return nil

	case "logout":
		if a.sess.LoggedIn {
			// the local session is cleared even when the server is unreachable
			if err := a.client.Logout(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "server logout failed: %v\n", err)
			}
		}
		if err := a.store.Clear(); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		fmt.Println("✅ logged out")
		return nil

	case "whoami":
		if !a.sess.LoggedIn {
			fmt.Println("not logged in (guest)")
			return nil
		}
		u, err := a.client.Me(ctx)
		if err != nil {
			return err
		}
		printJSON(u)
		return nil
	}
	return errors.New("usage: bookstore auth <login|register|logout|whoami>")
}

func passwordOrPrompt(given, prompt string) (string, error) {
	if given != "" {
		return given, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal available for password prompt (use --password)")
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}
