package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"

	"bookstore/internal/books"
	"bookstore/internal/catalog"
	"bookstore/pkg/database"
	"bookstore/pkg/utils"
)

func main() {
	in := pflag.StringP("books", "i", "data/books.csv", "input CSV path for books")
	pflag.Parse()

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	n, err := importBooks(ctx, books.NewRepo(db), *in, cfg.Catalog.Categories, time.Now())
	if err != nil {
		log.Fatalf("import books failed: %v", err)
	}
	log.Printf("✅ imported %d books from %s", n, *in)
}

// importBooks checks every row with the same rules the API applies and
// stores the file only when all rows pass.
func importBooks(ctx context.Context, repo *books.Repo, path string, categories []string, now time.Time) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	list, err := books.ReadCSV(f)
	if err != nil {
		return 0, err
	}
	for _, b := range list {
		if err := catalog.Check(catalog.DraftFrom(b), categories, now); err != nil {
			log.Printf("[books] rejecting row for book %d: %v", b.ID, err)
			return 0, fmt.Errorf("book %d: %w", b.ID, err)
		}
	}
	if err := repo.UpsertAll(ctx, list); err != nil {
		return 0, err
	}
	return len(list), nil
}
