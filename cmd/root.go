// Package cmd implements the kb-plugins CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kb-labs/plugins/internal/config"
	"github.com/kb-labs/plugins/internal/installer"
	"github.com/kb-labs/plugins/internal/logger"
	"github.com/kb-labs/plugins/internal/pm"
	"github.com/kb-labs/plugins/internal/source"
)

// SetVersionInfo is called from main.go with values injected at build time via -ldflags.
// It must be called before Execute().
func SetVersionInfo(version, commit, date string) {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"kb-plugins %s (commit %s, built %s)\n", version, commit, date,
	))
	rootCmd.Version = version
}

var rootCmd = &cobra.Command{
	Use:   "kb-plugins",
	Short: "Install and manage KB Labs plugins",
	Long: `kb-plugins places plugin packages under a project's plugin directory.

Examples:
  kb-plugins install @acme/charts          install from the npm registry
  kb-plugins install github:acme/charts#v2 build from git and install
  kb-plugins install ./charts --dev        install without a version directory
  kb-plugins link ./charts                 symlink a local build
  kb-plugins uninstall @acme/charts --all  remove every installed version
  kb-plugins list                          show installed plugins`,
	SilenceUsage: true,
}

var (
	flagTarget   string
	flagRegistry string
	flagPM       string
	flagVerbose  bool
)

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagTarget, "target", "t", "", "plugin root directory (default "+config.DefaultTarget+")")
	pf.StringVar(&flagRegistry, "registry", "", "npm registry URL")
	pf.StringVar(&flagPM, "pm", "", "package manager for source builds: auto, npm or pnpm")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "echo the run log to stderr")
}

// settings is the effective configuration of one invocation.
type settings struct {
	cfg *config.Config
	// cwd is the project directory; target is the absolute plugin root.
	cwd    string
	target string
}

// loadSettings merges config file, environment and flags, in rising priority.
func loadSettings() (*settings, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}
	if flagTarget != "" {
		cfg.Target = flagTarget
	}
	if flagRegistry != "" {
		cfg.Registry = flagRegistry
	}
	if flagPM != "" {
		cfg.PackageManager = flagPM
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	target, err := cfg.ResolveTarget(cwd)
	if err != nil {
		return nil, err
	}
	return &settings{cfg: cfg, cwd: cwd, target: target}, nil
}

// openLog starts the run log. A log that cannot be created is not fatal.
func openLog() *logger.Logger {
	log, err := logger.New(logger.DefaultDir(), flagVerbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: run log disabled: %v\n", err)
		return logger.NewDiscard()
	}
	return log
}

func (s *settings) installer(log *logger.Logger) (*installer.Installer, error) {
	packageManager, err := pm.ByName(s.cfg.PackageManager)
	if err != nil {
		return nil, err
	}
	log.Printf("target %s, registry %s, using %s", s.target, s.cfg.Registry, packageManager.Name())
	return &installer.Installer{
		Source: source.New(s.cfg.Registry),
		PM:     packageManager,
		Log:    log,
	}, nil
}
