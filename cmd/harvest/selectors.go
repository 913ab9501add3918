package main

import (
	"fmt"
	"slices"

	"github.com/fwojciec/harvest"
	hq "github.com/fwojciec/harvest/goquery"
)

// Run executes the selectors command.
func (c *SelectorsCmd) Run(deps *Dependencies) error {
	pages := hq.NewPageFetcher(deps.Fetcher, nil, hq.DefaultSelectors(), harvest.FetchOptions{})
	page, err := pages.Fetch(deps.Ctx, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s (%s)\n", harvest.ErrorMessage(err), harvest.ErrorCode(err))
		return err
	}

	keys := make([]string, 0, len(page.Fields))
	for k := range page.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	fmt.Fprintf(deps.Stdout, "url: %s\n", page.URL)
	if page.Framework != hq.FrameworkUnknown {
		fmt.Fprintf(deps.Stdout, "framework: %s\n", page.Framework)
	}
	for _, k := range keys {
		fmt.Fprintf(deps.Stdout, "%s: %s\n", k, page.Fields.Get(k))
	}
	return nil
}
