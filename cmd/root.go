package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/geosift/internal/app"
	"github.com/zjrosen/geosift/internal/config"
	"github.com/zjrosen/geosift/internal/log"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

const localConfigPath = ".geosift/config.yaml"

var (
	version    = "dev"
	cfgFile    string
	cfg        config.Config
	configPath string
	cfgErr     error
)

var rootCmd = &cobra.Command{
	Use:   "geosift",
	Short: "A terminal map for drawing regions and searching geographic records",
	Long: `A terminal user interface for annotating a map with rectangles, circles
and markers, and for searching a geographic records service.

Press 1 to draw a rectangle, 3 to draw a circle, 4 to place a circle by
coordinates, 2 to switch between the map and the result table, and ? for help.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .geosift/config.yaml or ~/.config/geosift/config.yaml)")
	rootCmd.PersistentFlags().String("server", "",
		"search service URL (overrides server.url)")
	rootCmd.PersistentFlags().Bool("debug", false,
		"write a debug log to debug.log (also GEOSIFT_DEBUG=1)")
	rootCmd.Flags().String("metrics-addr", "",
		"serve Prometheus metrics on this address, e.g. :9090")
	rootCmd.Flags().Bool("no-auto-reload", false,
		"do not reload the config file when it changes")

	// Bind flags to viper
	_ = viper.BindPFlag("server.url", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("metrics.addr", rootCmd.Flags().Lookup("metrics-addr"))
	viper.SetEnvPrefix("geosift")
	_ = viper.BindEnv("debug")
}

func initConfig() {
	home, _ := os.UserHomeDir()
	configPath, cfgErr = resolveConfigPath(cfgFile, home)
	if cfgErr != nil {
		return
	}

	cfg, cfgErr = config.Load(configPath)
	if cfgErr != nil {
		return
	}
	applyOverrides(&cfg)
}

// resolveConfigPath picks the config file. Lookup order:
//  1. the --config flag
//  2. .geosift/config.yaml (current directory)
//  3. ~/.config/geosift/config.yaml (user config)
//
// When nothing exists a default file is written at the explicit path, or
// at .geosift/config.yaml.
func resolveConfigPath(explicit, home string) (string, error) {
	candidates := []string{localConfigPath}
	if home != "" {
		candidates = append(candidates, filepath.Join(home, ".config", "geosift", "config.yaml"))
	}
	if explicit != "" {
		candidates = []string{explicit}
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("checking config %s: %w", p, err)
		}
	}

	target := candidates[0]
	if err := config.WriteDefaultConfig(target); err != nil {
		return "", fmt.Errorf("writing default config: %w", err)
	}
	return target, nil
}

// applyOverrides copies flag and environment values over the file config.
func applyOverrides(c *config.Config) {
	if url := viper.GetString("server.url"); url != "" {
		c.Server.URL = url
	}
	if addr := viper.GetString("metrics.addr"); addr != "" {
		c.Metrics.Addr = addr
	}
}

// initLogging enables the debug log when --debug or GEOSIFT_DEBUG is set.
// The returned cleanup is never nil.
func initLogging() (func(), error) {
	if !viper.GetBool("debug") {
		return func() {}, nil
	}
	cleanup, err := log.Init("debug.log", "geosift")
	if err != nil {
		return nil, err
	}
	log.Info(log.CatConfig, "debug logging enabled", "config", configPath, "version", version)
	return cleanup, nil
}

func runApp(cmd *cobra.Command, _ []string) error {
	if cfgErr != nil {
		return cfgErr
	}

	if noReload, _ := cmd.Flags().GetBool("no-auto-reload"); noReload {
		cfg.AutoReload = false
	}

	cleanupLog, err := initLogging()
	if err != nil {
		return err
	}
	defer cleanupLog()

	svc, err := newServices(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	zone.NewGlobal()

	model := app.New(app.Options{
		Config:     cfg,
		ConfigPath: configPath,
		Searcher:   svc.client,
		Metrics:    svc.metrics,
	})
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
	)

	final, err := p.Run()
	if m, ok := final.(app.Model); ok {
		model = m
	}

	// Stops the watcher and saves the map view
	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
