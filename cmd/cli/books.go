package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"bookstore/internal/books"
	"bookstore/internal/catalog"
	"bookstore/internal/storefront"
)

func (a *app) handleBooks(ctx context.Context, sub string, args []string) error {
	switch sub {
	case "list":
		fs := pflag.NewFlagSet("books list", pflag.ExitOnError)
		term := fs.StringP("query", "q", "", "search title, author and description")
		category := fs.StringP("category", "c", catalog.AllCategories, "category, or \"all\"")
		_ = fs.Parse(args)

		view, err := a.loadView(ctx)
		if err != nil {
			return err
		}
		defer view.Close()

		listing := view.Visible(catalog.ParseQuery(*term, *category))
		fmt.Println(listing.Summary())
		if len(listing.Books) == 0 {
			fmt.Println("no books match")
			return nil
		}
		printJSON(listing.Books)
		return nil

	case "show":
		fs := pflag.NewFlagSet("books show", pflag.ExitOnError)
		id := fs.Int64("id", 0, "book id")
		_ = fs.Parse(args)
		if *id <= 0 {
			return errors.New("book id is required")
		}
		b, err := a.client.GetBook(ctx, *id)
		if err != nil {
			return err
		}
		printJSON(b)
		return nil

	case "featured":
		fs := pflag.NewFlagSet("books featured", pflag.ExitOnError)
		limit := fs.Int("limit", 4, "max books")
		_ = fs.Parse(args)
		list, err := a.client.Featured(ctx, *limit)
		if err != nil {
			return err
		}
		printJSON(list)
		return nil

	case "add":
		fs := pflag.NewFlagSet("books add", pflag.ExitOnError)
		df := addDraftFlags(fs)
		_ = fs.Parse(args)

		view, err := a.view(ctx)
		if err != nil {
			return err
		}
		defer view.Close()

		d := catalog.NewDraft(time.Now())
		df.apply(fs, &d)
		b, err := view.Create(ctx, d)
		if err != nil {
			return err
		}
		fmt.Printf("✅ added book %d\n", b.ID)
		printJSON(b)
		return nil

	case "edit":
		fs := pflag.NewFlagSet("books edit", pflag.ExitOnError)
		id := fs.Int64("id", 0, "book id")
		df := addDraftFlags(fs)
		_ = fs.Parse(args)
		if *id <= 0 {
			return errors.New("book id is required")
		}

		view, err := a.view(ctx)
		if err != nil {
			return err
		}
		defer view.Close()

		if !view.Permissions().CanEdit {
			// skip the fetch; Update reports the denial
			_, err := view.Update(ctx, *id, catalog.BookDraft{})
			return err
		}
		current, err := a.client.GetBook(ctx, *id)
		if err != nil {
			return err
		}
		d := catalog.DraftFrom(*current)
		df.apply(fs, &d)
		b, err := view.Update(ctx, *id, d)
		if err != nil {
			return err
		}
		fmt.Printf("✅ updated book %d\n", b.ID)
		printJSON(b)
		return nil

	case "delete":
		fs := pflag.NewFlagSet("books delete", pflag.ExitOnError)
		id := fs.Int64("id", 0, "book id")
		_ = fs.Parse(args)
		if *id <= 0 {
			return errors.New("book id is required")
		}

		view, err := a.view(ctx)
		if err != nil {
			return err
		}
		defer view.Close()

		if err := view.Delete(ctx, *id); err != nil {
			return err
		}
		fmt.Printf("✅ deleted book %d\n", *id)
		return nil
	}
	return errors.New("usage: bookstore books <list|show|featured|add|edit|delete>")
}

func (a *app) handleCategories(ctx context.Context) error {
	cats, err := a.client.Categories(ctx)
	if err != nil {
		return err
	}
	fmt.Println(catalog.AllCategories)
	for _, c := range cats {
		fmt.Println(c)
	}
	return nil
}

func (a *app) handleExport(ctx context.Context, sub string, args []string) error {
	fs := pflag.NewFlagSet("export "+sub, pflag.ExitOnError)
	out := fs.StringP("out", "o", "data/books."+sub, "output path")
	_ = fs.Parse(args)

	if sub != "json" && sub != "csv" {
		return errors.New("usage: bookstore export <json|csv>")
	}

	list, err := a.client.ListBooks(ctx, catalog.ParseQuery("", ""))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	if sub == "csv" {
		err = books.WriteCSV(f, list)
	} else {
		err = writeJSON(f, list)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	fmt.Printf("✅ exported %d books to %s\n", len(list), *out)
	return nil
}

// view builds a storefront for the current session with the server's
// category list, for commands that mutate.
func (a *app) view(ctx context.Context) (*storefront.Controller, error) {
	cats, err := a.client.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return storefront.New(a.client, a.sess, cats), nil
}

// loadView builds a read-only view with the collection loaded.
func (a *app) loadView(ctx context.Context) (*storefront.Controller, error) {
	view := storefront.New(a.client, a.sess, nil)
	if err := view.Load(ctx); err != nil {
		return nil, err
	}
	return view, nil
}

type draftFlags struct {
	title, author, category, description, image, isbn *string
	price, rating                                     *float64
	year, pages                                       *int
	featured                                          *bool
}

func addDraftFlags(fs *pflag.FlagSet) *draftFlags {
	return &draftFlags{
		title:       fs.String("title", "", "title"),
		author:      fs.String("author", "", "author"),
		category:    fs.String("category", "", "category"),
		description: fs.String("description", "", "description"),
		image:       fs.String("image", "", "cover image path"),
		isbn:        fs.String("isbn", "", "ISBN"),
		price:       fs.Float64("price", 0, "price"),
		rating:      fs.Float64("rating", 0, "rating"),
		year:        fs.Int("year", 0, "published year"),
		pages:       fs.Int("pages", 0, "page count"),
		featured:    fs.Bool("featured", false, "show on the featured shelf"),
	}
}

// apply copies the flags the user actually set onto d.
func (f *draftFlags) apply(fs *pflag.FlagSet, d *catalog.BookDraft) {
	set := func(name string) bool { return fs.Changed(name) }
	if set("title") {
		d.Title = *f.title
	}
	if set("author") {
		d.Author = *f.author
	}
	if set("category") {
		d.Category = *f.category
	}
	if set("description") {
		d.Description = *f.description
	}
	if set("image") {
		d.Image = *f.image
	}
	if set("isbn") {
		d.ISBN = *f.isbn
	}
	if set("price") {
		d.Price = f.price
	}
	if set("rating") {
		d.Rating = *f.rating
	}
	if set("year") {
		d.PublishedYear = f.year
	}
	if set("pages") {
		d.Pages = f.pages
	}
	if set("featured") {
		d.Featured = *f.featured
	}
}
