package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"bookstore/internal/books"
	"bookstore/pkg/database"
)

func main() {
	out := pflag.StringP("books", "o", "data/books.csv", "output CSV path for books")
	pflag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	n, err := exportBooks(ctx, books.NewRepo(db), *out)
	if err != nil {
		log.Fatalf("export books failed: %v", err)
	}
	log.Printf("✅ exported %d books to %s", n, *out)
}

func exportBooks(ctx context.Context, repo *books.Repo, outPath string) (int, error) {
	list, err := repo.List(ctx)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return 0, err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := books.WriteCSV(f, list); err != nil {
		return 0, err
	}
	return len(list), f.Close()
}
