package main

import (
	"context"
	"fmt"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/fs"
)

// duplicateFinder is implemented by stores that index content hashes.
type duplicateFinder interface {
	FindDuplicates(ctx context.Context, crawlID string) ([]string, error)
}

// Run executes the crawls command.
func (c *CrawlsCmd) Run(deps *Dependencies) error {
	if c.Duplicates != "" {
		return c.duplicates(deps)
	}

	crawls, err := deps.Store.FindCrawls(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	if len(crawls) == 0 {
		fmt.Fprintln(deps.Stdout, "No crawls found. Use 'harvest scrape --save' or 'harvest crawl --save' to create one.")
		return nil
	}

	for _, cr := range crawls {
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  %s\n", cr.ID, cr.CreatedAt, cr.Harvester, cr.SeedURL)
	}
	return nil
}

func (c *CrawlsCmd) duplicates(deps *Dependencies) error {
	finder, ok := deps.Store.(duplicateFinder)
	if !ok {
		fmt.Fprintln(deps.Stderr, "error: the document store does not track duplicates")
		return harvest.Errorf(harvest.EINVALID, "duplicate lookup not supported")
	}

	urls, err := finder.FindDuplicates(deps.Ctx, c.Duplicates)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}
	for _, u := range urls {
		fmt.Fprintln(deps.Stdout, u)
	}
	return nil
}

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	docs, err := deps.Store.FindDocuments(deps.Ctx, c.ID)
	if err != nil {
		if harvest.ErrorCode(err) == harvest.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: crawl %q not found. Use 'harvest crawls' to see saved crawls.\n", c.ID)
			return err
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}
	return fs.WriteJSON(deps.Stdout, docs)
}
