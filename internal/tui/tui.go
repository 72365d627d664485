package tui

import (
	"filedesk-cli/internal/api"
	"filedesk-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

// Options configures the interactive client.
type Options struct {
	Client      *api.Client
	DownloadDir string
	// DebugLog, when set, is a file that receives one line per action, effect and request.
	DebugLog string
	Filter   store.UploadFilter
}

func Run(opts Options) error {
	applyThemePreference()
	applyColorProfilePreference()

	logger, closer, err := openDebugLog(opts.DebugLog)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	x := executor{
		client:    opts.Client,
		downloads: store.Downloads{Dir: opts.DownloadDir},
		after:     tickAfter,
	}
	if logger != nil {
		x.logf = logger.Printf
		opts.Client.Logf = logger.Printf
	}

	m := newModel(x, opts.Client.BaseURL, opts.Filter)
	m.logger = logger
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
