package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"bookstore/internal/catalog"
	"bookstore/internal/client"
	"bookstore/internal/session"
)

// app carries what every command needs: the API client and the session
// loaded once at start-up.
type app struct {
	baseURL string
	client  *client.Client
	store   *session.Store
	sess    session.Session
}

func main() {
	global := pflag.NewFlagSet("bookstore", pflag.ContinueOnError)
	global.SetInterspersed(false)
	baseURL := global.String("api", envOr("BOOKSTORE_API", client.DefaultBaseURL), "API base URL")
	sessionPath := global.String("session", session.DefaultPath(), "session file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage()
			return
		}
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	store := session.NewStore(*sessionPath)
	sess, err := store.Load()
	if err != nil {
		log.Printf("ignoring unreadable session: %v", err)
	}
	a := &app{
		baseURL: strings.TrimRight(*baseURL, "/"),
		client:  client.New(*baseURL).WithAuth(sess.Token, sess.Role),
		store:   store,
		sess:    sess,
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	rest := []string{}
	if len(args) > 1 {
		sub = args[1]
		rest = args[2:]
	}

	switch cmd {
	case "auth":
		err = a.handleAuth(ctx, sub, rest)
	case "books":
		err = a.handleBooks(ctx, sub, rest)
	case "categories":
		err = a.handleCategories(ctx)
	case "watch":
		err = a.handleWatch(args[1:])
	case "export":
		err = a.handleExport(ctx, sub, rest)
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(describe(err))
	}
}

// describe turns an error into the notice shown to the user.
func describe(err error) string {
	var (
		ve *catalog.ValidationError
		ae *catalog.AuthorizationError
		nf *catalog.NotFoundError
		ne *catalog.NetworkError
	)
	switch {
	case errors.As(err, &ve):
		var b strings.Builder
		b.WriteString("❌ please fix the following fields:")
		for _, line := range strings.Split(strings.TrimPrefix(ve.Error(), "validation failed: "), "; ") {
			b.WriteString("\n  - " + line)
		}
		return b.String()
	case errors.As(err, &ae):
		return "⛔ " + ae.Error()
	case errors.As(err, &nf):
		return "❌ " + nf.Error()
	case errors.Is(err, catalog.ErrInFlight):
		return "⏳ " + err.Error()
	case errors.As(err, &ne):
		return "❌ request failed: " + ne.Error()
	}
	return "❌ " + err.Error()
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("encode output: %v", err)
		return
	}
	fmt.Println(string(b))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}

func printUsage() {
	fmt.Println("bookstore [--api URL] [--session PATH] <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|register|logout|whoami")
	fmt.Println("  books list|show|featured|add|edit|delete")
	fmt.Println("  categories")
	fmt.Println("  watch [--tcp ADDR]")
	fmt.Println("  export json|csv")
}
