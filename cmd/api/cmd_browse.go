package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/georgemunganga/clockhouse-backend/internal/modules/catalog"
	"github.com/spf13/cobra"
)

func runBrowse(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	feed := catalog.NewFeed(a.catalog, catalog.QueryState{
		CategoryID:  browseCategory,
		SearchQuery: browseSearch,
		SortBy:      catalog.ParseSortOption(browseSort),
	})

	out := cmd.OutOrStdout()
	var state catalog.FeedState
	for loaded := 0; browsePages <= 0 || loaded < browsePages; loaded++ {
		state = feed.LoadMore(cmd.Context())
		if state.Err != nil {
			return state.Err
		}
		if !state.HasMore {
			break
		}
	}

	if state.Empty() {
		fmt.Fprintln(out, catalog.EmptyMessage(browseSearch))
		return nil
	}
	printProducts(out, state.Products)
	fmt.Fprintf(out, "\nshowing %d of %d products (page %d of %d)\n",
		len(state.Products), state.TotalCount, state.Query.Page+1, state.TotalPages)
	return nil
}

func printProducts(w io.Writer, products []*catalog.Product) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tCATEGORY\tMRP\tIMAGE")
	for _, p := range products {
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		cover := "-"
		if img, ok := catalog.CoverImage(p.Variants); ok {
			cover = img.ImageURL
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", p.ModelNumber, category, p.MRP, cover)
	}
	tw.Flush()
}
