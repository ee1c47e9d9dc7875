package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brogergvhs/novelgrab/internal/discovery"
	"github.com/brogergvhs/novelgrab/internal/downloader"
	"github.com/brogergvhs/novelgrab/internal/fetch"
	"github.com/brogergvhs/novelgrab/internal/text"
)

const (
	DefaultFormat = "epub"
	// DefaultLanguage is used when to_simplified is off.
	DefaultLanguage = "zh-Hant"
	// SimplifiedLanguage is used when to_simplified is on.
	SimplifiedLanguage = "zh-Hans"
)

type Config struct {
	Output string `yaml:"output"`
	Format string `yaml:"format"`
	Debug  bool   `yaml:"debug"`

	DefaultURL string `yaml:"default_url"`
	Start      int    `yaml:"start"`
	End        int    `yaml:"end"`

	DelaySeconds   float64 `yaml:"delay_seconds"`
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
	MaxRetries     *int    `yaml:"max_retries"`
	MaxPages       int     `yaml:"max_pages"`
	ChapterWorkers int     `yaml:"chapter_workers"`

	IncludeFailed bool `yaml:"include_failed"`
	// ToSimplified converts titles, author and bodies from Traditional to
	// Simplified Chinese. Unset means on.
	ToSimplified *bool  `yaml:"to_simplified"`
	CacheDB      string `yaml:"cache_db"`
	Language     string `yaml:"language"`
	PDFFont       string `yaml:"pdf_font"`

	Cookie           string `yaml:"cookie"`
	CookieFile       string `yaml:"cookie_file"`
	UserAgent        string `yaml:"user_agent"`
	CloudflareBypass bool   `yaml:"cloudflare_bypass"`
}

// Options are CLI values layered over the active profile. Zero values
// leave the profile untouched.
type Options struct {
	IgnoreConfig     bool
	Debug            bool
	Output           string
	Format           string
	DefaultURL       string
	Cookie           string
	CookieFile       string
	UserAgent        string
	CloudflareBypass bool
	IncludeFailed    bool
	ToSimplified     *bool
	CacheDB          string
	Language         string
	PDFFont          string
}

func intPtr(n int) *int { return &n }

func boolPtr(b bool) *bool { return &b }

func DefaultConfig() *Config {
	return &Config{
		Output:         ".",
		Format:         DefaultFormat,
		Start:          1,
		End:            0,
		DelaySeconds:   0.2,
		TimeoutSeconds: 30,
		MaxRetries:     intPtr(2),
		MaxPages:       discovery.DefaultMaxPages,
		ChapterWorkers: 1,
		ToSimplified:   boolPtr(true),
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

func LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(ignored config)", nil
	}

	activePath, err := ActiveConfigPath()
	if errors.Is(err, ErrNoConfig) || activePath == "" {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(default config in memory)\nRun `novelgrab config init` to create an actual config\n", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	return cfg, activePath, nil
}

func mergeConfig(c *Config, o Options) {
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.Format != "" {
		c.Format = o.Format
	}
	if o.Debug {
		c.Debug = true
	}
	if o.DefaultURL != "" {
		c.DefaultURL = o.DefaultURL
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.CloudflareBypass {
		c.CloudflareBypass = true
	}
	if o.IncludeFailed {
		c.IncludeFailed = true
	}
	if o.ToSimplified != nil {
		c.ToSimplified = o.ToSimplified
	}
	if o.CacheDB != "" {
		c.CacheDB = o.CacheDB
	}
	if o.Language != "" {
		c.Language = o.Language
	}
	if o.PDFFont != "" {
		c.PDFFont = o.PDFFont
	}
}

func normalizeDefaults(c *Config) {
	if c.Output == "" {
		c.Output = "."
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if c.Start == 0 {
		c.Start = 1
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 30
	}
	if c.MaxRetries == nil {
		c.MaxRetries = intPtr(2)
	}
	if c.MaxPages == 0 {
		c.MaxPages = discovery.DefaultMaxPages
	}
	if c.ChapterWorkers == 0 {
		c.ChapterWorkers = 1
	}
	if c.ToSimplified == nil {
		c.ToSimplified = boolPtr(true)
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
		if *c.ToSimplified {
			c.Language = SimplifiedLanguage
		}
	}
}

// Simplified reports whether Traditional to Simplified conversion is on.
func (c *Config) Simplified() bool {
	return c.ToSimplified == nil || *c.ToSimplified
}

// Core holds the option structs of the crawl pipeline.
type Core struct {
	Discovery discovery.Options
	Download  downloader.Options
	Fetch     fetch.Config
}

// Core validates the numeric settings and converts them.
func (c *Config) Core() (Core, error) {
	retries := 2
	if c.MaxRetries != nil {
		retries = *c.MaxRetries
	}

	switch {
	case c.Start < 1:
		return Core{}, fmt.Errorf("start must be 1 or greater, got %d", c.Start)
	case c.End < 0:
		return Core{}, fmt.Errorf("end must be 0 (last chapter) or greater, got %d", c.End)
	case c.End != 0 && c.End < c.Start:
		return Core{}, fmt.Errorf("end %d is before start %d", c.End, c.Start)
	case c.DelaySeconds < 0:
		return Core{}, fmt.Errorf("delay_seconds cannot be negative")
	case c.TimeoutSeconds <= 0:
		return Core{}, fmt.Errorf("timeout_seconds must be positive")
	case retries < 0:
		return Core{}, fmt.Errorf("max_retries cannot be negative")
	case c.MaxPages < 1:
		return Core{}, fmt.Errorf("max_pages must be 1 or greater")
	case c.ChapterWorkers < 1:
		return Core{}, fmt.Errorf("chapter_workers must be 1 or greater")
	}

	core := Core{
		Discovery: discovery.Options{Start: c.Start, End: c.End, MaxPages: c.MaxPages},
		Download: downloader.Options{
			Delay:   seconds(c.DelaySeconds),
			Workers: c.ChapterWorkers,
		},
		Fetch: fetch.Config{
			Timeout:    seconds(c.TimeoutSeconds),
			MaxRetries: retries,
		},
	}

	if c.Simplified() {
		t2s, err := text.Simplified()
		if err != nil {
			return Core{}, err
		}
		core.Download.Transform = t2s
	}

	return core, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (c *Config) Print() {
	if c.Output != "" {
		fmt.Printf(" -output: %s\n", c.Output)
	}
	fmt.Printf(" -format: %s\n", c.Format)
	if c.DefaultURL != "" {
		fmt.Printf(" -url: %s\n", c.DefaultURL)
	}
	fmt.Printf(" -start: %d\n", c.Start)
	if c.End != 0 {
		fmt.Printf(" -end: %d\n", c.End)
	}
	fmt.Printf(" -delay_seconds: %g\n", c.DelaySeconds)
	fmt.Printf(" -timeout_seconds: %g\n", c.TimeoutSeconds)
	if c.MaxRetries != nil {
		fmt.Printf(" -max_retries: %d\n", *c.MaxRetries)
	}
	fmt.Printf(" -max_pages: %d\n", c.MaxPages)
	fmt.Printf(" -chapter_workers: %d\n", c.ChapterWorkers)
	fmt.Printf(" -to_simplified: %t\n", c.Simplified())
	if c.Language != "" {
		fmt.Printf(" -language: %s\n", c.Language)
	}
	if c.IncludeFailed {
		fmt.Printf(" -include_failed: %t\n", c.IncludeFailed)
	}
	if c.CacheDB != "" {
		fmt.Printf(" -cache_db: %s\n", c.CacheDB)
	}
	if c.PDFFont != "" {
		fmt.Printf(" -pdf_font: %s\n", c.PDFFont)
	}
	if c.CookieFile != "" {
		fmt.Printf(" -cookie_file: %s\n", c.CookieFile)
	}
	if c.CloudflareBypass {
		fmt.Printf(" -cloudflare_bypass: %t\n", c.CloudflareBypass)
	}
	if c.Debug {
		fmt.Printf(" -debug: %t\n", c.Debug)
	}
}
