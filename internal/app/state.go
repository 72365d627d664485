// Package app holds the client's state and the pure transitions over it.
//
// Reduce never performs I/O. Work that has to happen outside (HTTP requests,
// timers) is returned as Effects; whoever executes them feeds the outcome back
// in as result actions. The TUI is one such executor.
package app

import "strings"

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Toast is a transient notification.
type Toast struct {
	ID       string
	Message  string
	Severity Severity
	// Hiding is set once the toast has been dismissed and is waiting out the
	// exit window before removal.
	Hiding bool
}

// EditorSession is "a file is currently open". The zero value is closed.
type EditorSession struct {
	CurrentFile string
	Content     string
	Prompt      string
}

func (e EditorSession) Open() bool { return e.CurrentFile != "" }

type AIStatus struct {
	Available bool
	Model     string
	// Checked is set after the first health response or failure.
	Checked bool
}

type ConfirmKind int

const (
	ConfirmDeleteFile ConfirmKind = iota + 1
	ConfirmDeleteAll
)

// Confirm is a pending destructive action waiting for the user's answer.
type Confirm struct {
	Kind     ConfirmKind
	Filename string
	Count    int
	Message  string
}

type CreateDialog struct {
	Open     bool
	Filename string
	Content  string
}

// UploadInputs mirrors the two pickers: a folder (every file below it) and a
// multi-file selection.
type UploadInputs struct {
	Folder []string
	Files  []string
}

type Focus int

const (
	FocusList Focus = iota
	FocusEditor
	FocusPrompt
)

// State is everything the client knows. It is rebuilt from the server on start.
type State struct {
	Files   []string
	Editor  EditorSession
	AI      AIStatus
	Toasts  []Toast
	Loading bool
	Confirm *Confirm
	Create  CreateDialog
	Uploads UploadInputs
	Focus   Focus

	// Listed is false until the first successful listing.
	Listed bool
}

// AIButtonLabel is the label of the AI edit control for the current status.
func (s State) AIButtonLabel() string {
	if s.AI.Available {
		return "Apply AI Edit (" + s.AI.Model + ")"
	}
	return "AI Service Unavailable"
}

// AIWarning is the note shown above the prompt when AI editing is disabled.
func (s State) AIWarning() string {
	if s.AI.Available || !s.AI.Checked {
		return ""
	}
	return "AI service is not available. Check server logs for API key configuration."
}

// FileCountLabel renders "(N file)" / "(N files)".
func (s State) FileCountLabel() string {
	return "(" + Pluralize(len(s.Files), "file", "files") + ")"
}

// EmptyListPlaceholder is shown instead of a list when there are no files.
const EmptyListPlaceholder = "No files uploaded yet"

// HasToast reports whether a toast with id is still displayed.
func (s State) HasToast(id string) bool {
	for _, t := range s.Toasts {
		if t.ID == id {
			return true
		}
	}
	return false
}

func trimmed(s string) string { return strings.TrimSpace(s) }
