// Package config describes the scraper's flat-file configuration and the paths
// derived from it.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"mytimetable-scraper/internal/components/telemetry"
	"mytimetable-scraper/lib/configutil"
)

const DefaultConfigPath = "mytimetable.json5"

type TermConfig struct {
	// Id is the term identifier sent to every API call, ex. "3202610".
	Id string `json:"id"`
	// LinkText is the name of the link that selects the term in the UI.
	LinkText string `json:"link_text"`
	// Cams is the campus filter the suggestions endpoint expects.
	Cams string `json:"cams"`
}

type BrowserConfig struct {
	// ControlUrl attaches to an already running, logged-in browser.
	ControlUrl string `json:"control_url"`
	// Bin overrides the browser binary used when launching.
	Bin string `json:"bin"`
	// Headed shows the launched browser window.
	Headed bool `json:"headed"`
	// StorageState is a storage state JSON file whose cookies seed the session.
	StorageState        string `json:"storage_state"`
	NavigationTimeoutMs int    `json:"navigation_timeout_ms"`
	RequestTimeoutMs    int    `json:"request_timeout_ms"`
}

func (c BrowserConfig) NavigationTimeout() time.Duration {
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

func (c BrowserConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

type Config struct {
	BaseUrl string     `json:"base_url"`
	Term    TermConfig `json:"term"`

	// DelayMs and RequestsPerSecond are pointers so an explicit 0 (no delay,
	// no rate limit) survives the defaults merge.
	DelayMs           *int     `json:"delay_ms"`
	RequestsPerSecond *float64 `json:"requests_per_second"`
	// ProgressEvery of 0 falls back to the default.
	ProgressEvery int `json:"progress_every"`

	CoursesPath string           `json:"courses_path"`
	OutDir      string           `json:"out_dir"`
	Browser     BrowserConfig    `json:"browser"`
	Telemetry   telemetry.Config `json:"telemetry"`
}

func ptr[T any](v T) *T {
	return &v
}

// Defaults returns the settings for the current term.
func Defaults() Config {
	return Config{
		BaseUrl: "https://mytimetable.mcmaster.ca",
		Term: TermConfig{
			Id:       "3202610",
			LinkText: "Winter",
			Cams:     "MCMSTiOFF_MCMSTiMCMST_MCMSTiMHK_MCMSTiSNPOL_MCMSTiCON",
		},
		DelayMs:           ptr(250),
		RequestsPerSecond: ptr(4.0),
		ProgressEvery:     50,
		CoursesPath:       "courses.txt",
		OutDir:            "out",
		Browser: BrowserConfig{
			StorageState:        "auth.storage.json",
			NavigationTimeoutMs: 30000,
			RequestTimeoutMs:    30000,
		},
	}
}

// Read loads the config file (and its .local override) on top of Defaults.
func Read(path string) (Config, error) {
	cfg, err := configutil.ReadConfigWithDefaults(path, Defaults())
	if err != nil {
		return Config{}, err
	}
	cfg.BaseUrl = strings.TrimSuffix(cfg.BaseUrl, "/")
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.BaseUrl == "" {
		return fmt.Errorf("config: base_url is required")
	}
	if c.Term.Id == "" {
		return fmt.Errorf("config: term.id is required")
	}
	if c.Term.LinkText == "" {
		return fmt.Errorf("config: term.link_text is required")
	}
	if c.DelayMs != nil && *c.DelayMs < 0 {
		return fmt.Errorf("config: delay_ms must not be negative")
	}
	if c.RequestsPerSecond != nil && *c.RequestsPerSecond < 0 {
		return fmt.Errorf("config: requests_per_second must not be negative")
	}
	return nil
}

func (c Config) Delay() time.Duration {
	if c.DelayMs == nil {
		return 0
	}
	return time.Duration(*c.DelayMs) * time.Millisecond
}

// RateLimit is the API request rate, 0 means unbounded.
func (c Config) RateLimit() float64 {
	if c.RequestsPerSecond == nil {
		return 0
	}
	return *c.RequestsPerSecond
}

type Paths struct {
	CoursesPath string
	OutDir      string
	// XmlRoot is the root of the artifact store, artifacts live in XmlRoot/<term>.
	XmlRoot     string
	ResultsPath string
}

// Paths writes XML to <out>/xml/<term>/ and logs results to <out>/results_<term>.ndjson
func (c Config) Paths() Paths {
	return Paths{
		CoursesPath: c.CoursesPath,
		OutDir:      c.OutDir,
		XmlRoot:     filepath.Join(c.OutDir, "xml"),
		ResultsPath: filepath.Join(c.OutDir, fmt.Sprintf("results_%s.ndjson", c.Term.Id)),
	}
}
