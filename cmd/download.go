package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/brogergvhs/novelgrab/internal/cache"
	"github.com/brogergvhs/novelgrab/internal/chapters"
	"github.com/brogergvhs/novelgrab/internal/config"
	"github.com/brogergvhs/novelgrab/internal/crawl"
	"github.com/brogergvhs/novelgrab/internal/document"
	"github.com/brogergvhs/novelgrab/internal/events"
	"github.com/brogergvhs/novelgrab/internal/fetch"
	"github.com/brogergvhs/novelgrab/internal/providers/sites"
	"github.com/brogergvhs/novelgrab/internal/ui"
	"github.com/brogergvhs/novelgrab/internal/util"

	"github.com/spf13/cobra"
)

var (
	// selection
	flagURL      string
	flagStart    int
	flagEnd      int
	flagMaxPages int

	// runtime
	flagOutput         string
	flagFormat         string
	flagDelay          float64
	flagTimeout        float64
	flagRetries        int
	flagChapterWorkers int
	flagIncludeFailed  bool
	flagSimplified     bool
	flagCache          string
	flagLanguage       string
	flagPDFFont        string
	flagDryRun         bool

	// headers/auth
	flagCookie     string
	flagCookieFile string
	flagUserAgent  string
	flagCloudflare bool
)

func init() {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download a novel and assemble it into one file. Uses the defaults from the selected config, overwritten by CLI flags",
		RunE:  runDownload,
	}

	// selection
	downloadCmd.Flags().StringVar(&flagURL, "url", "", "novel page, chapter list or feed URL")
	downloadCmd.Flags().IntVar(&flagStart, "start", 1, "first chapter to download (1-based)")
	downloadCmd.Flags().IntVar(&flagEnd, "end", 0, "last chapter to download, 0 for the last one")
	downloadCmd.Flags().IntVar(&flagMaxPages, "max-pages", 80, "catalog pages to follow at most")

	// runtime
	downloadCmd.Flags().StringVar(&flagOutput, "output", "", "output folder")
	downloadCmd.Flags().StringVar(&flagFormat, "format", "", "output format: epub, txt or pdf")
	downloadCmd.Flags().Float64Var(&flagDelay, "delay", 0.2, "seconds to wait between chapter requests")
	downloadCmd.Flags().Float64Var(&flagTimeout, "timeout", 30, "seconds before a single request attempt gives up")
	downloadCmd.Flags().IntVar(&flagRetries, "retries", 2, "extra attempts after a failed request")
	downloadCmd.Flags().IntVar(&flagChapterWorkers, "workers", 1, "parallel chapter downloads (still rate limited by --delay)")
	downloadCmd.Flags().BoolVar(&flagIncludeFailed, "include-failed", false, "keep failed chapters in the output as placeholders")
	downloadCmd.Flags().BoolVar(&flagSimplified, "simplified", true, "convert Traditional Chinese to Simplified (--simplified=false keeps the source script)")
	downloadCmd.Flags().StringVar(&flagCache, "cache", "", "SQLite file caching fetched chapters between runs")
	downloadCmd.Flags().StringVar(&flagLanguage, "language", "", "book language tag, e.g. zh-Hant")
	downloadCmd.Flags().StringVar(&flagPDFFont, "pdf-font", "", "TrueType font used for PDF output (needed for CJK text)")
	downloadCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "list the chapters that would be downloaded, don’t download")

	// headers/auth
	downloadCmd.Flags().StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	downloadCmd.Flags().StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	downloadCmd.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")
	downloadCmd.Flags().BoolVar(&flagCloudflare, "cloudflare", false, "send browser-like TLS and headers to pass Cloudflare checks")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, _ []string) error {
	var simplified *bool
	if cmd.Flags().Changed("simplified") {
		simplified = &flagSimplified
	}

	cfg, usedPath, err := config.LoadMerged(config.Options{
		IgnoreConfig:     flagIgnoreConfig,
		Debug:            flagDebug,
		Output:           flagOutput,
		Format:           flagFormat,
		DefaultURL:       flagURL,
		Cookie:           flagCookie,
		CookieFile:       flagCookieFile,
		UserAgent:        flagUserAgent,
		CloudflareBypass: flagCloudflare,
		IncludeFailed:    flagIncludeFailed,
		ToSimplified:     simplified,
		CacheDB:          flagCache,
		Language:         flagLanguage,
		PDFFont:          flagPDFFont,
	})
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("start") {
		cfg.Start = flagStart
	}
	if flags.Changed("end") {
		cfg.End = flagEnd
	}
	if flags.Changed("max-pages") {
		cfg.MaxPages = flagMaxPages
	}
	if flags.Changed("delay") {
		cfg.DelaySeconds = flagDelay
	}
	if flags.Changed("timeout") {
		cfg.TimeoutSeconds = flagTimeout
	}
	if flags.Changed("retries") {
		cfg.MaxRetries = &flagRetries
	}
	if flags.Changed("workers") {
		cfg.ChapterWorkers = flagChapterWorkers
	}

	logSvc := ui.NewLogger(cfg.Debug)
	if usedPath != "" {
		fmt.Printf("Config file: %s\n", usedPath)
	}

	core, err := cfg.Core()
	if err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	assembler, err := document.ForFormat(cfg.Format, cfg.PDFFont)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Output, 0755); err != nil {
		return fmt.Errorf("cannot create output folder: %w", err)
	}

	fmt.Println("Full config:")
	cfg.Print()
	fmt.Println()

	if cfg.DefaultURL == "" {
		return fmt.Errorf("missing --url and no default_url in config")
	}

	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		UserAgent:        cfg.UserAgent,
		Cookie:           cfg.Cookie,
		CookieFile:       cfg.CookieFile,
		CloudflareBypass: cfg.CloudflareBypass,
		DebugLogger:      logSvc,
	})
	if err != nil {
		return err
	}

	ctx, cancel := util.InterruptContext(cmd.Context(), cfg.Output)
	defer cancel()

	if cfg.CacheDB != "" {
		store, err := cache.Open(cfg.CacheDB)
		if err != nil {
			return err
		}
		defer store.Close()

		if n, err := store.Count(ctx); err == nil {
			logSvc.Infof("Chapter cache %s holds %d chapter(s)\n", cfg.CacheDB, n)
		}
		core.Download.Cache = store
	}

	opts := crawl.Options{
		Discovery: core.Discovery,
		Download:  core.Download,
		Language:  cfg.Language,
	}

	if flagDryRun {
		f := fetch.New(client, core.Fetch, logSvc)
		session := crawl.NewSession(sites.Default(), f, opts, logSvc)

		_, _, plan, err := session.Plan(ctx, cfg.DefaultURL)
		if err != nil {
			return err
		}

		fmt.Printf("\nDry-run: %q, %d of %d chapters selected.\n\n", core.Download.Transform.Apply(plan.Meta.Title), len(plan.Selected), len(plan.All))
		for i, l := range plan.Selected {
			fmt.Printf("%4d) %s\n      %s\n", cfg.Start+i, core.Download.Transform.Apply(l.Title), l.URL)
		}
		return nil
	}

	// bars own stdout while the crawl runs
	pm := ui.NewProgressManager()
	logSvc.SetOutput(os.Stderr)

	stats := &ui.Stats{}
	handle := pm.Register("Chapters", stats)
	sink := events.Multi(logSvc, handle, stats)

	f := fetch.New(client, core.Fetch, sink)
	session := crawl.NewSession(sites.Default(), f, opts, sink)

	start := time.Now()
	res, err := session.Run(ctx, cfg.DefaultURL)

	handle.MarkDone()
	pm.Close()
	logSvc.SetOutput(os.Stdout)

	if err != nil {
		return err
	}
	if res.Empty() {
		return fmt.Errorf("no chapters found at %s", res.IndexURL)
	}
	if len(res.Chapters) == 0 {
		return fmt.Errorf("range selected no chapters: found %d, start %d, end %s", res.Stats.Accepted, cfg.Start, endLabel(cfg.End))
	}

	stats.AddRecords(res.Chapters)

	out := filepath.Join(cfg.Output, chapters.SafeFilename(res.Title, assembler.Extension()))
	book := document.NewBook(res)
	err = util.WriteFileAtomic(out, func(f *os.File) error {
		return assembler.Assemble(f, book, document.Options{IncludeFailed: cfg.IncludeFailed})
	})
	if errors.Is(err, document.ErrNoChapters) {
		return fmt.Errorf("all %d chapter(s) failed, nothing written", len(res.Chapters))
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Println()
	fmt.Println("Download Summary:")
	fmt.Printf("Book:     %s (%s)\n", res.Title, res.Author)
	fmt.Printf("Chapters: %s\n", stats.Summary())
	if res.Stop.Partial() {
		fmt.Printf("Catalog:  stopped early (%s)\n", res.Stop)
	}
	fmt.Printf("Time:     %s\n", time.Since(start).Round(time.Second))
	fmt.Printf("Output:   %s\n", out)

	if ctx.Err() != nil {
		fmt.Println("\nInterrupted, the file holds the chapters fetched before the stop.")
		return nil
	}
	fmt.Println("\nAll done.")

	return nil
}

func endLabel(end int) string {
	if end == 0 {
		return "last"
	}
	return strconv.Itoa(end)
}
