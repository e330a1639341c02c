package catalog

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"

	"bookstore/pkg/models"
)

func sampleBooks() []models.Book {
	return []models.Book{
		{ID: 1, Title: "Dune", Author: "Herbert", Category: "Fantasy", Description: "Spice, sand and a desert planet."},
		{ID: 2, Title: "Emma", Author: "Austen", Category: "Classic", Description: "A comedy of manners in Highbury."},
	}
}

var words = []string{"dune", "Emma", "sand", "AUSTEN", "spice", "night", "river", "Em", "x"}
var categories = []string{"Fantasy", "Classic", "Mystery", "fantasy"}

// newFuzzer produces books over a small vocabulary so random terms hit often.
func newFuzzer(seed int64) *fuzz.Fuzzer {
	return fuzz.NewWithSeed(seed).NilChance(0).NumElements(0, 25).Funcs(
		func(b *models.Book, c fuzz.Continue) {
			pick := func() string {
				n := c.Intn(3) + 1
				parts := make([]string, n)
				for i := range parts {
					parts[i] = words[c.Intn(len(words))]
				}
				return strings.Join(parts, " ")
			}
			b.ID = c.Int63()
			b.Title = pick()
			b.Author = pick()
			b.Description = pick()
			b.Category = categories[c.Intn(len(categories))]
			b.Featured = c.RandBool()
		},
	)
}

func containsFold(s, term string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(term))
}

func TestFilterScenarios(t *testing.T) {
	books := sampleBooks()

	tests := []struct {
		name     string
		term     string
		category string
		wantIDs  []int64
	}{
		{"no query returns everything", "", AllCategories, []int64{1, 2}},
		{"term matches title case-insensitively", "em", AllCategories, []int64{2}},
		{"term matches author", "HERB", AllCategories, []int64{1}},
		{"term matches description", "manners", AllCategories, []int64{2}},
		{"category only", "", "Fantasy", []int64{1}},
		{"category is case-sensitive", "", "fantasy", []int64{}},
		{"term and category compose with AND", "em", "Fantasy", []int64{}},
		{"no match", "tolkien", AllCategories, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(books, tt.term, tt.category)
			ids := make([]int64, 0, len(got))
			for _, b := range got {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	books := sampleBooks()
	before := sampleBooks()

	got := Filter(books, "em", "Classic")
	if len(got) > 0 {
		got[0].Title = "changed"
	}

	if diff := cmp.Diff(before, books); diff != "" {
		t.Errorf("input modified (-want +got):\n%s", diff)
	}
}

func TestFilterEmptyResultIsNotNil(t *testing.T) {
	assert.NotNil(t, Filter(nil, "", AllCategories))
	assert.NotNil(t, Filter(sampleBooks(), "nothing matches this", AllCategories))
}

func TestFilterProperties(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		f := newFuzzer(seed)

		var books []models.Book
		f.Fuzz(&books)
		term := words[int(seed)%len(words)]
		category := categories[int(seed)%len(categories)]

		// empty query keeps everything in order
		if diff := cmp.Diff(books, Filter(books, "", AllCategories), cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("seed %d: empty query changed result:\n%s", seed, diff)
		}

		byTerm := Filter(books, term, AllCategories)
		j := 0
		for i, b := range books {
			match := containsFold(b.Title, term) || containsFold(b.Author, term) || containsFold(b.Description, term)
			if match {
				if j >= len(byTerm) || !cmp.Equal(byTerm[j], b) {
					t.Fatalf("seed %d: matching book %d missing or out of order", seed, i)
				}
				j++
			}
		}
		if j != len(byTerm) {
			t.Fatalf("seed %d: filter returned %d books, %d match", seed, len(byTerm), j)
		}

		both := Filter(books, term, category)
		for _, b := range both {
			if b.Category != category {
				t.Fatalf("seed %d: category %q leaked into %q result", seed, b.Category, category)
			}
		}
		// narrowing: term+category result is an ordered subsequence of term-only result
		k := 0
		for _, b := range byTerm {
			if k < len(both) && cmp.Equal(b, both[k]) {
				k++
			}
		}
		if k != len(both) {
			t.Fatalf("seed %d: term+category result is not a subset of term result", seed)
		}
	}
}

func TestFilterDeterministic(t *testing.T) {
	var books []models.Book
	newFuzzer(42).Fuzz(&books)

	first := Filter(books, "sand", "Fantasy")
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, Filter(books, "sand", "Fantasy")); diff != "" {
			t.Fatalf("run %d differs:\n%s", i, diff)
		}
	}
}

func TestParseQuery(t *testing.T) {
	assert.Equal(t, Query{Term: "em", Category: AllCategories}, ParseQuery("em", ""))
	assert.Equal(t, Query{Term: "", Category: "Fantasy"}, ParseQuery("", "Fantasy"))

	got := ParseQuery("", "Fantasy").Apply(sampleBooks())
	assert.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestFeatured(t *testing.T) {
	books := []models.Book{
		{ID: 1, Featured: true},
		{ID: 2},
		{ID: 3, Featured: true},
		{ID: 4, Featured: true},
	}

	got := Featured(books, 2)
	assert.Equal(t, []models.Book{{ID: 1, Featured: true}, {ID: 3, Featured: true}}, got)
	assert.Len(t, Featured(books, 0), 3)
	assert.Empty(t, Featured(nil, 4))
}

func TestStateFor(t *testing.T) {
	assert.Equal(t, LoadedEmpty, StateFor(0, nil))
	assert.Equal(t, LoadedNonEmpty, StateFor(3, nil))
	assert.Equal(t, Failed, StateFor(0, assert.AnError))
	assert.False(t, Pending.Loaded())
	assert.True(t, LoadedEmpty.Loaded())
	assert.Equal(t, "loaded-empty", LoadedEmpty.String())
}
