package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/hpungsan/gallerist/internal/config"
	"github.com/hpungsan/gallerist/internal/journal"
	"github.com/hpungsan/gallerist/internal/logging"
	"github.com/hpungsan/gallerist/internal/manifest"
	"github.com/hpungsan/gallerist/internal/mcp"
	"github.com/hpungsan/gallerist/internal/metrics"
	"github.com/hpungsan/gallerist/internal/ops"
	"github.com/hpungsan/gallerist/internal/photo"
	"github.com/hpungsan/gallerist/internal/publish"
	"github.com/hpungsan/gallerist/internal/store"
	"github.com/hpungsan/gallerist/internal/style"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"serve": true, "watch": true, "content": true, "regenerate": true, "check": true,
	"page-create": true, "page-delete": true, "page-rename": true, "reorder": true,
	"photo-add": true, "photo-upload": true, "photo-remove": true, "photo-update": true, "photo-rotate": true,
	"settings": true, "home": true, "publish": true, "history": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a short banner when run interactively without args.
func printBanner() {
	fmt.Println(`
  gallerist: admin console for a static photo gallery

  Usage: gallerist <command> [options]
         gallerist serve        start the admin console
         gallerist --help

  MCP server mode requires piped input.`)
}

// app is the wired service graph shared by the CLI, the console and the MCP server.
type app struct {
	cfg     *config.Config
	root    string
	svc     *ops.Service
	metrics *metrics.Recorder
	journal *journal.Journal
}

// Close releases the journal.
func (a *app) Close() {
	if a.journal != nil {
		_ = a.journal.Close()
	}
}

// resolveRoot returns the absolute gallery root for cfg.
func resolveRoot(cfg *config.Config, cwd string) string {
	root := cfg.GalleryRoot
	if root == "" {
		return cwd
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(cwd, root)
	}
	return filepath.Clean(root)
}

// loadConfig merges the global and gallery configs, then overlays GALLERIST_*
// variables from the environment and the gallery's .env file.
func loadConfig(globalDir, cwd string) (*config.Config, string, error) {
	cfg, err := config.LoadWithRepo(globalDir, cwd)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.ApplyEnv(cfg, filepath.Join(resolveRoot(cfg, cwd), ".env")); err != nil {
		return nil, "", fmt.Errorf("failed to load environment: %w", err)
	}
	return cfg, resolveRoot(cfg, cwd), nil
}

// newApp wires the service over the gallery at root. The journal lives in
// globalDir so that it never becomes part of the published site.
func newApp(cfg *config.Config, root, globalDir string) (*app, error) {
	st := store.New(root, store.Options{
		ManifestFile: cfg.ManifestFile,
		SiteName:     cfg.SiteName,
		SiteURL:      cfg.SiteURL,
	})

	a := &app{cfg: cfg, root: root, metrics: metrics.NewRecorder(nil)}
	opts := ops.Options{
		Images: photo.NewProcessor(photo.Config{
			MaxDimension: cfg.ImageMaxDimension,
			Quality:      cfg.JPEGQuality,
		}),
		Publisher: publish.New(root, publish.Config{
			Remote:      cfg.GitRemote,
			AuthorName:  cfg.GitAuthorName,
			AuthorEmail: cfg.GitAuthorEmail,
			Token:       cfg.GitToken,
		}),
		Metrics: a.metrics,
		Fonts:   style.DefaultCatalog().WithExtra(cfg.TitleFonts, cfg.BodyFonts),
		Templates: map[manifest.Layout]string{
			manifest.LayoutMasonry: cfg.MasonryTemplate,
			manifest.LayoutSingle:  cfg.SingleTemplate,
		},
	}

	if !cfg.JournalDisabled {
		j, err := journal.Open(globalDir, root)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		a.journal = j
		opts.Journal = j
	}

	a.svc = ops.New(st, opts)
	return a, nil
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before wiring anything
	if isHelpOrVersion() {
		if err := newCLIApp(nil).Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if !isCLIMode() && len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'gallerist --help' for usage.\n")
		os.Exit(1)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine working directory: %v\n", err)
		os.Exit(1)
	}
	globalDir := filepath.Join(homeDir, ".gallerist")

	cfg, root, err := loadConfig(globalDir, cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	a, err := newApp(cfg, root, globalDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	// CLI mode: known subcommand
	if isCLIMode() {
		if err := newCLIApp(a).Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			a.Close()
			os.Exit(1)
		}
		return
	}

	// MCP server mode (default)
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		log.Warn().Strs("tools", unknown).Msg("unknown tools in disabled_tools")
	}
	log.Info().Str("root", root).Str("version", Version).Msg("mcp server starting")
	if err := mcp.Run(a.svc, cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		a.Close()
		os.Exit(1)
	}
}
