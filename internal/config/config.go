package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Render struct {
	Headless          bool          `yaml:"headless"`
	NavigateTimeout   time.Duration `yaml:"navigate_timeout"`
	ElementTimeout    time.Duration `yaml:"element_timeout"`
	SettleInterval    time.Duration `yaml:"settle_interval"`
	MaxScrollAttempts int           `yaml:"max_scroll_attempts"`
}

type Config struct {
	Output         string `yaml:"output"`
	ImageWorkers   int    `yaml:"image_workers"`
	EpisodeWorkers int    `yaml:"episode_workers"`
	KeepFolders    bool   `yaml:"keep_folders"`
	SkipBroken     bool   `yaml:"skip_broken"`

	Debug     bool   `yaml:"debug"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Cookie           string        `yaml:"cookie"`
	CookieFile       string        `yaml:"cookie_file"`
	UserAgent        string        `yaml:"user_agent"`
	CloudflareBypass bool          `yaml:"cloudflare_bypass"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
	FetchRetries     int           `yaml:"fetch_retries"`

	MaxSections int    `yaml:"max_sections"`
	Render      Render `yaml:"render"`
}

// Options are command line overrides. Zero values leave the profile alone.
type Options struct {
	IgnoreConfig   bool
	Debug          bool
	LogLevel       string
	Output         string
	ImageWorkers   int
	EpisodeWorkers int
	KeepFolders    bool
	SkipBroken     bool
	Cookie         string
	CookieFile     string
	UserAgent      string
	MaxSections    int
	ShowBrowser    bool
}

func DefaultConfig() *Config {
	return &Config{
		Output:         ".",
		ImageWorkers:   5,
		EpisodeWorkers: 2,
		LogLevel:       "info",
		LogFormat:      "text",
		FetchTimeout:   30 * time.Second,
		FetchRetries:   2,
		MaxSections:    200,
		Render: Render{
			Headless:          true,
			NavigateTimeout:   30 * time.Second,
			ElementTimeout:    5 * time.Second,
			SettleInterval:    2 * time.Second,
			MaxScrollAttempts: 5,
		},
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// loadYAML decodes path over the defaults, so keys missing from older
// profiles keep their default value.
func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := DefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	return c, nil
}

func LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(ignored config)", nil
	}

	activePath, err := ActiveConfigPath()
	if errors.Is(err, ErrNoConfig) || (err == nil && activePath == "") {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(default config in memory, run `comicwalk config init` to create one)", nil
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
	if o.ImageWorkers != 0 {
		c.ImageWorkers = o.ImageWorkers
	}
	if o.EpisodeWorkers != 0 {
		c.EpisodeWorkers = o.EpisodeWorkers
	}
	if o.KeepFolders {
		c.KeepFolders = true
	}
	if o.SkipBroken {
		c.SkipBroken = true
	}
	if o.Debug {
		c.Debug = true
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
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
	if o.MaxSections != 0 {
		c.MaxSections = o.MaxSections
	}
	if o.ShowBrowser {
		c.Render.Headless = false
	}
}

func normalizeDefaults(c *Config) {
	def := DefaultConfig()

	if c.Output == "" {
		c.Output = def.Output
	}
	if c.ImageWorkers <= 0 {
		c.ImageWorkers = def.ImageWorkers
	}
	if c.EpisodeWorkers <= 0 {
		c.EpisodeWorkers = def.EpisodeWorkers
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = def.LogFormat
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = def.FetchTimeout
	}
	if c.FetchRetries < 0 {
		c.FetchRetries = 0
	}
	if c.MaxSections <= 0 {
		c.MaxSections = def.MaxSections
	}
	if c.Render.NavigateTimeout <= 0 {
		c.Render.NavigateTimeout = def.Render.NavigateTimeout
	}
	if c.Render.ElementTimeout <= 0 {
		c.Render.ElementTimeout = def.Render.ElementTimeout
	}
	if c.Render.SettleInterval < 0 {
		c.Render.SettleInterval = def.Render.SettleInterval
	}
	if c.Render.MaxScrollAttempts <= 0 {
		c.Render.MaxScrollAttempts = def.Render.MaxScrollAttempts
	}
}

func (c *Config) Print(w io.Writer) {
	fmt.Fprintf(w, " -output: %s\n", c.Output)
	fmt.Fprintf(w, " -image_workers: %d\n", c.ImageWorkers)
	fmt.Fprintf(w, " -episode_workers: %d\n", c.EpisodeWorkers)
	if c.KeepFolders {
		fmt.Fprintf(w, " -keep_folders: %t\n", c.KeepFolders)
	}
	if c.SkipBroken {
		fmt.Fprintf(w, " -skip_broken: %t\n", c.SkipBroken)
	}
	if c.Debug {
		fmt.Fprintf(w, " -debug: %t\n", c.Debug)
	}
	fmt.Fprintf(w, " -log: %s (%s)\n", c.LogLevel, c.LogFormat)
	if c.CookieFile != "" {
		fmt.Fprintf(w, " -cookie_file: %s\n", c.CookieFile)
	}
	if c.UserAgent != "" {
		fmt.Fprintf(w, " -user_agent: %s\n", c.UserAgent)
	}
	if c.CloudflareBypass {
		fmt.Fprintf(w, " -cloudflare_bypass: %t\n", c.CloudflareBypass)
	}
	fmt.Fprintf(w, " -fetch: timeout %s, %d retries\n", c.FetchTimeout, c.FetchRetries)
	fmt.Fprintf(w, " -max_sections: %d\n", c.MaxSections)
	fmt.Fprintf(w, " -render: headless %t, navigate %s, elements %s, settle %s, %d attempts\n",
		c.Render.Headless, c.Render.NavigateTimeout, c.Render.ElementTimeout,
		c.Render.SettleInterval, c.Render.MaxScrollAttempts)
}
