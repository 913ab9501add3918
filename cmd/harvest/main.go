package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/alecthomas/kong"
	charmlog "github.com/charmbracelet/log"
	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/chromedp"
	"github.com/fwojciec/harvest/crawl"
	"github.com/fwojciec/harvest/gemini"
	"github.com/fwojciec/harvest/htmltomarkdown"
	harvesthttp "github.com/fwojciec/harvest/http"
	"github.com/fwojciec/harvest/pipeline"
	"github.com/fwojciec/harvest/recipe"
	"github.com/fwojciec/harvest/rod"
	harvestslog "github.com/fwojciec/harvest/slog"
	"github.com/fwojciec/harvest/sqlite"
	"google.golang.org/genai"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Overridden by --db.
	DBPath string

	// SQLite database used by the document store.
	DB *sqlite.DB

	// Services for end-to-end testing. When nil, real implementations are
	// wired.
	Fetcher harvest.Fetcher
	Store   harvest.DocumentStore
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("harvest"),
		kong.Description("Scrape and crawl web pages into structured documents."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'harvest --help' to see available commands")
	}
	if slices.Contains([]string{"help", "--help", "-h"}, args[0]) {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := kongCtx.Selected().Name

	deps.Logger = newLogger(stderr, cli.LogLevel)
	deps.Formats = cli.Format

	if m.Fetcher == nil {
		m.Fetcher = harvesthttp.NewFetcher()
	}
	deps.Fetcher = crawl.NewRetryFetcher(
		harvestslog.NewLoggingFetcher(m.Fetcher, deps.Logger),
		retryDelays(cli.Retries),
		deps.Logger,
	)
	deps.Sitemaps = harvesthttp.NewSitemapSource(nil)
	if deps.Filter, err = harvest.NewPatternFilter(cli.Include, cli.Exclude); err != nil {
		fmt.Fprintf(stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	if needsStore(cmd, cli) {
		store, err := m.openStore(cli.DB, stderr)
		if err != nil {
			return err
		}
		defer m.Close()
		deps.Store = store
	}

	if cmd == "crawls" || cmd == "show" || cmd == "selectors" {
		return kongCtx.Run(deps)
	}

	catalog := &recipe.Catalog{}
	if cli.Recipes != "" {
		if catalog, err = recipe.Load(cli.Recipes); err != nil {
			fmt.Fprintf(stderr, "error: %s\n", harvest.ErrorMessage(err))
			return err
		}
	}

	renderer, err := newRenderer(cli.Render)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
		return fmt.Errorf("failed to start browser: %w", err)
	}
	recipeDeps := recipe.Deps{
		Fetcher:  deps.Fetcher,
		Limiter:  crawl.NewDomainLimiter(cli.Rate),
		Progress: func(ev crawl.ProgressEvent) { fmt.Fprintln(stderr, crawl.FormatEvent(ev)) },
	}
	if renderer != nil {
		logged := harvestslog.NewLoggingRenderer(renderer, deps.Logger)
		defer logged.Close()
		recipeDeps.Renderer = logged
	}
	if len(cli.Include) > 0 || len(cli.Exclude) > 0 {
		recipeDeps.Filters = append(recipeDeps.Filters, deps.Filter)
	}
	if cli.Robots {
		recipeDeps.Filters = append(recipeDeps.Filters, harvesthttp.NewRobotsFilter(nil, ""))
	}

	if deps.Set, err = catalog.Build(recipeDeps); err != nil {
		fmt.Fprintf(stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}
	if deps.Registry, err = m.registry(ctx, deps, cli); err != nil {
		fmt.Fprintf(stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	return kongCtx.Run(deps)
}

// registry registers the built harvesters and the formatters. Formatters
// needing external resources are only created when --format asks for them.
func (m *Main) registry(ctx context.Context, deps *Dependencies, cli *CLI) (*pipeline.Registry, error) {
	reg := pipeline.NewRegistry()
	for _, h := range deps.Set.Harvesters() {
		if err := reg.AddHarvester(harvestslog.NewLoggingHarvester(h, deps.Logger)); err != nil {
			return nil, err
		}
	}

	formatters := []harvest.Formatter{
		harvest.StripLinks(),
		htmltomarkdown.NewFormatter(),
		htmltomarkdown.NewTOCFormatter(),
	}
	if slices.Contains(cli.Format, "tokens") {
		counter, err := gemini.NewTokenCounter(tokenizerModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create token counter: %w", err)
		}
		formatters = append(formatters, gemini.NewTokenFormatter(counter))
	}
	if slices.Contains(cli.Format, "translate") {
		t, err := newTranslator(ctx, deps.Stderr, cli.Lang)
		if err != nil {
			return nil, err
		}
		formatters = append(formatters, t)
	}
	for _, f := range formatters {
		if err := reg.AddFormatter(harvestslog.NewLoggingFormatter(f, deps.Logger)); err != nil {
			return nil, err
		}
	}

	reg.Freeze()
	return reg, nil
}

func (m *Main) openStore(path string, stderr io.Writer) (harvest.DocumentStore, error) {
	if m.Store != nil {
		return m.Store, nil
	}
	if path == "" {
		path = m.DBPath
	}
	m.DB = sqlite.NewDB(path)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set HARVEST_DB to use a different database path\n")
		return nil, fmt.Errorf("failed to open database at %q: %w", path, err)
	}
	m.Store = sqlite.NewDocumentStore(m.DB)
	return m.Store, nil
}

func needsStore(cmd string, cli *CLI) bool {
	switch cmd {
	case "crawls", "show":
		return true
	case "scrape":
		return cli.Scrape.Save
	case "crawl":
		return cli.Crawl.Save
	case "sitemap":
		return cli.Sitemap.Save && !cli.Sitemap.Preview
	}
	return false
}

// newLogger returns a slog logger writing leveled, human-readable lines to w.
func newLogger(w io.Writer, level string) *slog.Logger {
	l, err := charmlog.ParseLevel(level)
	if err != nil {
		l = charmlog.WarnLevel
	}
	return slog.New(charmlog.NewWithOptions(w, charmlog.Options{
		Level:           l,
		ReportTimestamp: true,
		Prefix:          "harvest",
	}))
}

func newRenderer(kind string) (harvest.Renderer, error) {
	switch kind {
	case "rod":
		return rod.NewRenderer()
	case "chromedp":
		return chromedp.NewRenderer()
	}
	return nil, nil
}

func newTranslator(ctx context.Context, stderr io.Writer, lang string) (harvest.Formatter, error) {
	if lang == "" {
		return nil, harvest.Errorf(harvest.EINVALID, "--lang is required by the translate formatter")
	}
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
		return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
	}
	return gemini.NewTranslator(client, gemini.DefaultModel, lang), nil
}

// tokenizerModel is the model whose local tokenizer counts tokens.
const tokenizerModel = "gemini-2.5-flash"

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "harvest.db"
	}
	dir := filepath.Join(home, ".harvest")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "harvest.db")
}

// retryDelays returns n backoff delays, doubling past the defaults.
func retryDelays(n int) []time.Duration {
	delays := crawl.DefaultRetryDelays()
	for len(delays) < n {
		delays = append(delays, 2*delays[len(delays)-1])
	}
	return delays[:max(n, 0)]
}
