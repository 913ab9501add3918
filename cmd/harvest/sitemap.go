package main

import (
	"fmt"

	"github.com/fwojciec/harvest"
)

// Run executes the sitemap command.
func (c *SitemapCmd) Run(deps *Dependencies) error {
	urls, err := deps.Sitemaps.DiscoverURLs(deps.Ctx, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}
	urls = deps.Filter.FilterURLs(urls)
	if c.Limit > 0 && len(urls) > c.Limit {
		urls = urls[:c.Limit]
	}

	if len(urls) == 0 {
		fmt.Fprintf(deps.Stderr, "error: no sitemap URLs found for %s\n", c.URL)
		return harvest.Errorf(harvest.ENOTFOUND, "no sitemap URLs found for %s", c.URL)
	}

	if c.Preview {
		for _, u := range urls {
			fmt.Fprintln(deps.Stdout, u)
		}
		return nil
	}

	fmt.Fprintf(deps.Stderr, "scraping %d URLs from sitemap\n", len(urls))
	return harvestURLs(deps, c.Recipe, urls, c.Output)
}
