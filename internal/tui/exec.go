package tui

import (
	"context"
	"fmt"
	"io"
	"time"

	"filedesk-cli/internal/api"
	"filedesk-cli/internal/app"
	"filedesk-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

// actionMsg carries the outcome of an effect back into Update.
type actionMsg struct{ action app.Action }

// executor turns effects into commands. Requests run on Bubble Tea's command
// goroutines; several can be in flight and nothing is cancelled.
type executor struct {
	client    *api.Client
	downloads store.Downloads
	// after schedules a delayed action; tests replace it to control time.
	after func(time.Duration, app.Action) tea.Cmd
	logf  func(format string, args ...any)
}

func tickAfter(d time.Duration, a app.Action) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return actionMsg{action: a} })
}

func (x executor) log(format string, args ...any) {
	if x.logf != nil {
		x.logf(format, args...)
	}
}

func (x executor) batch(effs []app.Effect) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(effs))
	for _, e := range effs {
		x.log("effect %s", describeEffect(e))
		if c := x.cmd(e); c != nil {
			cmds = append(cmds, c)
		}
	}
	return tea.Batch(cmds...)
}

func (x executor) cmd(eff app.Effect) tea.Cmd {
	ctx := context.Background()
	c := x.client

	switch e := eff.(type) {
	case app.FetchHealth:
		return func() tea.Msg {
			resp, err := c.Health(ctx)
			return actionMsg{action: app.HealthChecked{Resp: resp, Err: err}}
		}

	case app.FetchFiles:
		return func() tea.Msg {
			resp, err := c.ListFiles(ctx)
			return actionMsg{action: app.FilesLoaded{Resp: resp, Err: err}}
		}

	case app.PostUpload:
		files := append([]string(nil), e.Files...)
		return func() tea.Msg {
			x.log("upload %d files, %s", len(files), store.HumanSize(store.TotalSize(files)))
			resp, err := c.Upload(ctx, api.FilesFromPaths(files))
			return actionMsg{action: app.Uploaded{Resp: resp, Err: err}}
		}

	case app.FetchFile:
		return func() tea.Msg {
			resp, err := c.GetFile(ctx, e.Name)
			return actionMsg{action: app.FileFetched{Name: e.Name, Resp: resp, Err: err}}
		}

	case app.PutAIEdit:
		return func() (msg tea.Msg) {
			// The loading overlay only clears on AIEdited, so it must always arrive.
			defer func() {
				if r := recover(); r != nil {
					err := &api.TransportError{Op: "ai edit", Err: fmt.Errorf("%v", r)}
					msg = actionMsg{action: app.AIEdited{Filename: e.Filename, Err: err}}
				}
			}()
			resp, err := c.EditAI(ctx, e.Filename, e.Prompt)
			return actionMsg{action: app.AIEdited{Filename: e.Filename, Resp: resp, Err: err}}
		}

	case app.PutSave:
		return func() tea.Msg {
			resp, err := c.Save(ctx, e.Filename, e.Content)
			return actionMsg{action: app.Saved{Filename: e.Filename, Resp: resp, Err: err}}
		}

	case app.SendDelete:
		return func() tea.Msg {
			resp, err := c.Delete(ctx, e.Name)
			return actionMsg{action: app.Deleted{Name: e.Name, Resp: resp, Err: err}}
		}

	case app.SendDeleteAll:
		names := append([]string(nil), e.Names...)
		return func() tea.Msg {
			n, err := c.DeleteEach(ctx, names, nil)
			return actionMsg{action: app.DeletedAll{Attempted: n, Err: err}}
		}

	case app.PostCreate:
		return func() tea.Msg {
			resp, err := c.Create(ctx, e.Filename, e.Content)
			return actionMsg{action: app.Created{Filename: e.Filename, Resp: resp, Err: err}}
		}

	case app.FetchDownload:
		return func() tea.Msg {
			path, n, err := x.downloads.Save(e.Name, func(w io.Writer) (int64, error) {
				return c.Download(ctx, e.Name, w)
			})
			if err == nil {
				x.log("downloaded %s to %s", e.Name, store.Describe(path, n))
			}
			return actionMsg{action: app.Downloaded{Name: e.Name, Path: path, Bytes: n, Err: err}}
		}

	case app.FetchDownloadAll:
		return func() tea.Msg {
			path, n, err := x.downloads.Save(api.ArchiveName, func(w io.Writer) (int64, error) {
				return c.DownloadAll(ctx, w)
			})
			if err == nil {
				x.log("downloaded archive to %s", store.Describe(path, n))
			}
			return actionMsg{action: app.DownloadedAll{Path: path, Bytes: n, Err: err}}
		}

	case app.After:
		if x.after == nil {
			return tickAfter(e.Delay, e.Action)
		}
		return x.after(e.Delay, e.Action)
	}

	x.log("unhandled effect %T", eff)
	return nil
}
