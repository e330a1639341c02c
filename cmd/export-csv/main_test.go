package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/internal/books"
	"bookstore/pkg/database"
	"bookstore/pkg/models"
)

func TestExportBooks(t *testing.T) {
	db, err := database.Open(database.Config{Path: database.MemoryPath})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.Migrate(db))

	ctx := context.Background()
	repo := books.NewRepo(db)
	_, err = repo.Create(ctx, models.Book{Title: "Dune", Author: "Herbert", Price: 9.5, Category: "Fantasy"})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "data", "books.csv")
	n, err := exportBooks(ctx, repo, out)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(books.CSVHeader, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1,Dune,Herbert,9.5,Fantasy"), lines[1])
}
