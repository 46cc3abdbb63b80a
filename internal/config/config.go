package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// GalleryRoot is the working tree of the static site (holds CONTENT.md and index.html).
	// Relative paths are resolved against the directory gallerist was started from.
	GalleryRoot string `json:"gallery_root,omitempty"`

	// ManifestFile is the manifest file name inside GalleryRoot.
	ManifestFile string `json:"manifest_file,omitempty"`

	// SiteName is the display name of the home row in the manifest page index.
	SiteName string `json:"site_name,omitempty"`

	// SiteURL prefixes page links in the manifest page index. Empty means root-relative links.
	SiteURL string `json:"site_url,omitempty"`

	// Bind and Port control the admin console listener.
	Bind string `json:"bind,omitempty"`
	Port int    `json:"port,omitempty"`

	// ImageMaxDimension bounds both sides of a normalized photo.
	ImageMaxDimension int `json:"image_max_dimension,omitempty"`

	// JPEGQuality is the re-encode quality (1-100) for normalized and rotated photos.
	JPEGQuality int `json:"jpeg_quality,omitempty"`

	// MasonryTemplate and SingleTemplate name the page directories whose index.html
	// is cloned when a new page of that layout is created.
	MasonryTemplate string `json:"masonry_template,omitempty"`
	SingleTemplate  string `json:"single_template,omitempty"`

	// TitleFonts and BodyFonts extend the built-in font catalogs.
	// Keys are font names, values are css2 "family=" parameter fragments.
	TitleFonts map[string]string `json:"title_fonts,omitempty"`
	BodyFonts  map[string]string `json:"body_fonts,omitempty"`

	// GitRemote is the remote pushed to by publish.
	GitRemote string `json:"git_remote,omitempty"`

	// GitAuthorName and GitAuthorEmail sign publish commits.
	GitAuthorName  string `json:"git_author_name,omitempty"`
	GitAuthorEmail string `json:"git_author_email,omitempty"`

	// GitToken authenticates HTTPS pushes. Only read from the environment.
	GitToken string `json:"-"`

	// LogLevel is a zerolog level name. LogPretty selects console output.
	LogLevel  string `json:"log_level,omitempty"`
	LogPretty bool   `json:"log_pretty,omitempty"`

	// JournalDisabled turns off the sqlite operation journal.
	JournalDisabled bool `json:"journal_disabled,omitempty"`

	// WatchDebounceMS delays manifest regeneration after a hand edit.
	WatchDebounceMS int `json:"watch_debounce_ms,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ManifestFile:      "CONTENT.md",
		SiteName:          "Art Gallery",
		Bind:              "127.0.0.1",
		Port:              3000,
		ImageMaxDimension: 2000,
		JPEGQuality:       85,
		MasonryTemplate:   "page-1",
		SingleTemplate:    "page-2",
		GitRemote:         "origin",
		GitAuthorName:     "Gallery Admin",
		GitAuthorEmail:    "gallery@localhost",
		LogLevel:          "info",
		WatchDebounceMS:   500,
	}
}

// Addr returns the listen address for the admin console.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.gallerist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both the global (~/.gallerist) and the gallery
// (.gallerist) directories. The gallery config is found by walking upward from startDir.
// Gallery config takes precedence for scalar values; arrays are merged and maps overlaid.
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .gallerist/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".gallerist", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the path is empty or the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated;
// map entries from overlay replace those of base.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.GalleryRoot = firstString(overlay.GalleryRoot, base.GalleryRoot)
	result.ManifestFile = firstString(overlay.ManifestFile, base.ManifestFile)
	result.SiteName = firstString(overlay.SiteName, base.SiteName)
	result.SiteURL = firstString(overlay.SiteURL, base.SiteURL)
	result.Bind = firstString(overlay.Bind, base.Bind)
	result.MasonryTemplate = firstString(overlay.MasonryTemplate, base.MasonryTemplate)
	result.SingleTemplate = firstString(overlay.SingleTemplate, base.SingleTemplate)
	result.GitRemote = firstString(overlay.GitRemote, base.GitRemote)
	result.GitAuthorName = firstString(overlay.GitAuthorName, base.GitAuthorName)
	result.GitAuthorEmail = firstString(overlay.GitAuthorEmail, base.GitAuthorEmail)
	result.GitToken = firstString(overlay.GitToken, base.GitToken)
	result.LogLevel = firstString(overlay.LogLevel, base.LogLevel)

	result.Port = firstInt(overlay.Port, base.Port)
	result.ImageMaxDimension = firstInt(overlay.ImageMaxDimension, base.ImageMaxDimension)
	result.JPEGQuality = firstInt(overlay.JPEGQuality, base.JPEGQuality)
	result.WatchDebounceMS = firstInt(overlay.WatchDebounceMS, base.WatchDebounceMS)

	// Booleans: overlay wins if true, else base
	result.LogPretty = base.LogPretty || overlay.LogPretty
	result.JournalDisabled = base.JournalDisabled || overlay.JournalDisabled

	result.TitleFonts = mergeStringMap(base.TitleFonts, overlay.TitleFonts)
	result.BodyFonts = mergeStringMap(base.BodyFonts, overlay.BodyFonts)

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// envKeys maps GALLERIST_* variables onto config fields.
var envKeys = map[string]func(c *Config, v string) error{
	"GALLERIST_ROOT":      func(c *Config, v string) error { c.GalleryRoot = v; return nil },
	"GALLERIST_MANIFEST":  func(c *Config, v string) error { c.ManifestFile = v; return nil },
	"GALLERIST_SITE_URL":  func(c *Config, v string) error { c.SiteURL = v; return nil },
	"GALLERIST_BIND":      func(c *Config, v string) error { c.Bind = v; return nil },
	"GALLERIST_LOG_LEVEL": func(c *Config, v string) error { c.LogLevel = v; return nil },
	"GALLERIST_GIT_REMOTE": func(c *Config, v string) error {
		c.GitRemote = v
		return nil
	},
	"GALLERIST_GIT_TOKEN": func(c *Config, v string) error { c.GitToken = v; return nil },
	"GALLERIST_PORT": func(c *Config, v string) error {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("GALLERIST_PORT must be a port number, got %q", v)
		}
		c.Port = port
		return nil
	},
}

// ApplyEnv overlays GALLERIST_* variables onto cfg. Values from envFile (a dotenv file,
// optional) are used only when the variable is not already set in the process environment.
func ApplyEnv(cfg *Config, envFile string) error {
	fileVals := map[string]string{}
	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read %s: %w", envFile, err)
		}
		if vals != nil {
			fileVals = vals
		}
	}

	for key, apply := range envKeys {
		v, ok := os.LookupEnv(key)
		if !ok {
			v, ok = fileVals[key]
		}
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			continue
		}
		if err := apply(cfg, v); err != nil {
			return err
		}
	}
	return nil
}

func firstString(overlay, base string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

func firstInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringMap overlays b onto a. Returns nil when both are empty.
func mergeStringMap(a, b map[string]string) map[string]string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	result := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		result[k] = v
	}
	for k, v := range b {
		result[k] = v
	}
	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
