package tui

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"filedesk-cli/internal/app"
)

// openDebugLog returns a logger appending to path, or nil when path is empty.
func openDebugLog(path string) (*log.Logger, io.Closer, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open debug log %s: %w", path, err)
	}
	return log.New(f, "filedesk ", log.LstdFlags|log.Lmicroseconds), f, nil
}

func (m *model) debugf(format string, args ...any) {
	if m.logger == nil {
		return
	}
	m.logger.Printf(format, args...)
}

// describeAction is a compact one-line rendering; file contents and prompts are never logged.
func describeAction(a app.Action) string {
	switch a := a.(type) {
	case app.SetContent:
		return fmt.Sprintf("SetContent(len=%d)", len(a.Content))
	case app.SetCreateContent:
		return fmt.Sprintf("SetCreateContent(len=%d)", len(a.Content))
	case app.SetPrompt:
		return fmt.Sprintf("SetPrompt(len=%d)", len(a.Prompt))
	case app.FileFetched:
		return fmt.Sprintf("FileFetched(%s ok=%v err=%v len=%d)", a.Name, a.Resp.Success, a.Err, len(a.Resp.Content))
	case app.AIEdited:
		return fmt.Sprintf("AIEdited(%s ok=%v err=%v len=%d)", a.Filename, a.Resp.Success, a.Err, len(a.Resp.NewContent))
	case app.Saved:
		return fmt.Sprintf("Saved(%s ok=%v err=%v)", a.Filename, a.Resp.Success, a.Err)
	case app.Upload:
		return fmt.Sprintf("Upload(%d explicit=%v)", len(a.Files), a.Files != nil)
	}
	return strings.TrimPrefix(fmt.Sprintf("%T%+v", a, a), "app.")
}

func describeEffect(e app.Effect) string {
	switch e := e.(type) {
	case app.PutSave:
		return fmt.Sprintf("PutSave(%s len=%d)", e.Filename, len(e.Content))
	case app.PostCreate:
		return fmt.Sprintf("PostCreate(%s len=%d)", e.Filename, len(e.Content))
	case app.PutAIEdit:
		return fmt.Sprintf("PutAIEdit(%s prompt len=%d)", e.Filename, len(e.Prompt))
	case app.After:
		return fmt.Sprintf("After(%s %s)", e.Delay, describeAction(e.Action))
	}
	return strings.TrimPrefix(fmt.Sprintf("%T%+v", e, e), "app.")
}
