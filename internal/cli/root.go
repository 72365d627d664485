package cli

import (
	"io"
	"log"
	"os"
	"strings"

	"filedesk-cli/internal/api"
	"filedesk-cli/internal/config"
	"filedesk-cli/internal/format"
	"filedesk-cli/internal/store"
	"filedesk-cli/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	ConfigPath  string
	Server      string
	Format      string
	Pretty      bool
	DownloadDir string
	DebugLog    string

	cfg        *config.Config
	configPath string
	logger     *log.Logger
	logCloser  io.Closer

	// confirm asks the user a yes/no question before destructive commands.
	confirm func(cmd *cobra.Command, label string) (bool, error)
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{confirm: promptConfirm})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "filedesk",
		Short:        "Terminal client for the filedesk file service (TUI + CLI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  filedesk

  # Scriptable commands
  filedesk files list
  filedesk files show notes.txt --format text

  # Upload a folder, skipping logs
  filedesk upload ./docs --exclude '**/*.log'

  # Rewrite a file with the service's AI model
  filedesk files edit notes.txt --prompt "fix the typos"
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.load(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.logCloser != nil {
			return app.logCloser.Close()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Server, "server", envOr("FILEDESK_SERVER", ""), "Base URL of the file service (default http://localhost:8000)")
	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("FILEDESK_CONFIG", ""), "Config file (default ~/.filedesk/config.yaml)")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("FILEDESK_FORMAT", ""), "Output format ("+strings.Join(format.Formats, "|")+")")
	cmd.PersistentFlags().BoolVar(&app.Pretty, "pretty", false, "Pretty-print JSON/EDN output")
	cmd.PersistentFlags().StringVar(&app.DownloadDir, "download-dir", envOr("FILEDESK_DOWNLOAD_DIR", ""), "Directory downloads are written to")
	cmd.PersistentFlags().StringVar(&app.DebugLog, "debug-log", envOr("FILEDESK_DEBUG_LOG", ""), "Append debug lines (requests, TUI actions) to this file")

	cmd.AddCommand(newHealthCmd(app))
	cmd.AddCommand(newFilesCmd(app))
	cmd.AddCommand(newUploadCmd(app))
	cmd.AddCommand(newDownloadCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

// load resolves the configuration: defaults, then the file, then env, then
// flags that were given.
func (app *App) load(cmd *cobra.Command) error {
	path := app.ConfigPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if app.Server != "" {
		cfg.Server = app.Server
	}
	if app.Format != "" {
		cfg.Format = app.Format
	}
	if app.Pretty {
		cfg.Pretty = true
	}
	if app.DownloadDir != "" {
		cfg.DownloadDir = app.DownloadDir
	}
	if app.DebugLog != "" {
		cfg.DebugLog = app.DebugLog
	}
	app.cfg = cfg
	app.configPath = path

	// config commands must work even when the stored values are broken.
	if isConfigCmd(cmd) {
		return nil
	}
	return cfg.Validate()
}

func isConfigCmd(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" && c.Parent() != nil {
			return true
		}
	}
	return false
}

// client returns an API client for the configured server. Request logging
// goes to the debug log when one is configured.
func (app *App) client() (*api.Client, error) {
	c, err := api.New(app.cfg.Server, nil)
	if err != nil {
		return nil, err
	}
	if app.cfg.DebugLog != "" && app.logger == nil {
		f, err := os.OpenFile(app.cfg.DebugLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		app.logger = log.New(f, "filedesk ", log.LstdFlags|log.Lmicroseconds)
		app.logCloser = f
	}
	if app.logger != nil {
		c.Logf = app.logger.Printf
	}
	return c, nil
}

func (app *App) filter() store.UploadFilter {
	return store.UploadFilter{Include: app.cfg.Include, Exclude: app.cfg.Exclude}
}

func runTUI(app *App) error {
	c, err := api.New(app.cfg.Server, nil)
	if err != nil {
		return err
	}
	return tui.Run(tui.Options{
		Client:      c,
		DownloadDir: app.cfg.DownloadDir,
		DebugLog:    app.cfg.DebugLog,
		Filter:      app.filter(),
	})
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// writeOut prints a {"data": ...} envelope. The text format drops the
// envelope and prints the data itself.
func writeOut(cmd *cobra.Command, app *App, v any) error {
	if app.cfg.Format == "text" {
		if env, ok := v.(map[string]any); ok {
			if d, ok := env["data"]; ok {
				v = d
			}
		}
	}
	return format.Write(cmd.OutOrStdout(), v, app.cfg.Format, app.cfg.Pretty)
}
