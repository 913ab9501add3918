package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/pipeline"
	"github.com/fwojciec/harvest/recipe"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	Fetcher harvest.Fetcher
	Formats []string

	// Filter holds the --include and --exclude patterns.
	Filter   *harvest.PatternFilter
	Sitemaps harvest.SitemapSource

	// Set holds the harvesters built from the recipe catalog.
	Set      *recipe.Set
	Registry *pipeline.Registry
	Store    harvest.DocumentStore
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Recipes  string   `short:"r" type:"existingfile" help:"Recipe catalog (YAML)"`
	Format   []string `short:"f" sep:"," help:"Formatters applied to every document, in order"`
	Render   string   `enum:"none,rod,chromedp" default:"none" help:"Headless browser used by rendering recipes (none, rod, chromedp)"`
	Robots   bool     `help:"Skip links disallowed by robots.txt"`
	Include  []string `short:"I" help:"Only follow URLs matching this regex (repeatable)"`
	Exclude  []string `short:"X" help:"Never follow URLs matching this regex (repeatable)"`
	Rate     float64  `default:"1" help:"Requests per second per domain while crawling (0 disables)"`
	Retries  int      `default:"3" help:"Retries of a failed fetch, with 1s, 2s, 4s... backoff"`
	Lang     string   `help:"Target language of the translate formatter"`
	DB       string   `name:"db" env:"HARVEST_DB" help:"SQLite database path"`
	LogLevel string   `enum:"debug,info,warn,error" default:"warn" help:"Log level (debug, info, warn, error)"`

	Scrape    ScrapeCmd    `cmd:"" help:"Scrape URLs with a recipe"`
	Crawl     CrawlCmd     `cmd:"" help:"Crawl a site starting from an index page"`
	Sitemap   SitemapCmd   `cmd:"" help:"Scrape every sitemap URL of a site with a recipe"`
	Selectors SelectorsCmd `cmd:"" help:"Print the metadata fields of a page"`
	List      ListCmd      `cmd:"" help:"List available recipes, crawls and formatters"`
	Crawls    CrawlsCmd    `cmd:"" help:"List saved crawls"`
	Show      ShowCmd      `cmd:"" help:"Print the documents of a saved crawl"`
}

// Output configures where scrape and crawl results go. Documents are printed
// as JSON on stdout unless --out is given.
type Output struct {
	Out         string `short:"o" type:"path" help:"Write JSON results to this file instead of stdout"`
	MarkdownDir string `type:"path" help:"Also write one markdown file per document under this directory"`
	Save        bool   `help:"Save results to the database"`
}

// ScrapeCmd is the "scrape" subcommand.
type ScrapeCmd struct {
	Recipe string   `arg:"" help:"Recipe name"`
	URLs   []string `arg:"" name:"url" help:"Page URLs"`
	Output
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	Name string `arg:"" help:"Crawl name"`
	URL  string `arg:"" help:"Index page URL"`
	Output
}

// SitemapCmd is the "sitemap" subcommand.
type SitemapCmd struct {
	Recipe  string `arg:"" help:"Recipe name"`
	URL     string `arg:"" help:"Site URL; a path limits discovery to URLs below it"`
	Limit   int    `short:"n" help:"Scrape at most this many URLs (0 means all)"`
	Preview bool   `short:"p" help:"Print discovered URLs without scraping"`
	Output
}

// SelectorsCmd is the "selectors" subcommand.
type SelectorsCmd struct {
	URL string `arg:"" help:"Page URL"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct{}

// CrawlsCmd is the "crawls" subcommand.
type CrawlsCmd struct {
	Duplicates string `help:"List URLs of this crawl whose content was already saved by another crawl"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	ID string `arg:"" help:"Crawl ID"`
}
