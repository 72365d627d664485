package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// keyMap groups bindings by the context they apply in. Help text is generated
// from these, so the overlay always matches what the keys do.
type keyMap struct {
	Quit key.Binding
	Help key.Binding

	// CloseToast closes the newest toast. Where typing goes to a text field
	// only CloseToastInput applies.
	CloseToast      key.Binding
	CloseToastInput key.Binding

	// File list.
	Open        key.Binding
	Delete      key.Binding
	DeleteAll   key.Binding
	New         key.Binding
	UploadPaths key.Binding
	Browse      key.Binding
	Download    key.Binding
	DownloadAll key.Binding
	Refresh     key.Binding
	Health      key.Binding
	CopyName    key.Binding
	FocusNext   key.Binding

	// Editor and prompt.
	Save            key.Binding
	ApplyAI         key.Binding
	CloseFile       key.Binding
	DownloadCurrent key.Binding
	CopyContent     key.Binding
	Back            key.Binding

	// Dialogs.
	Confirm      key.Binding
	Cancel       key.Binding
	Submit       key.Binding
	UploadFolder key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),

		CloseToast:      key.NewBinding(key.WithKeys("x", "ctrl+x"), key.WithHelp("x", "close message")),
		CloseToastInput: key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "close message")),

		Open:        key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("enter/e", "edit file")),
		Delete:      key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete file")),
		DeleteAll:   key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete all files")),
		New:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new file")),
		UploadPaths: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload paths (type, paste or drop)")),
		Browse:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "browse for a file or folder to upload")),
		Download:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "download file")),
		DownloadAll: key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "download all as ZIP")),
		Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh list")),
		Health:      key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "check AI service")),
		CopyName:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy file name")),
		FocusNext:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),

		Save:            key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		ApplyAI:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply AI edit (prompt)")),
		CloseFile:       key.NewBinding(key.WithKeys("ctrl+w"), key.WithHelp("ctrl+w", "close file")),
		DownloadCurrent: key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "download open file")),
		CopyContent:     key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy content")),
		Back:            key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back to list")),

		Confirm:      key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y/enter", "confirm")),
		Cancel:       key.NewBinding(key.WithKeys("esc", "n", "ctrl+g"), key.WithHelp("esc/n", "cancel")),
		Submit:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "create")),
		UploadFolder: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "upload this folder")),
	}
}

func (k keyMap) listHints() []key.Binding {
	return []key.Binding{k.Open, k.New, k.UploadPaths, k.Browse, k.Delete, k.Download, k.Help, k.Quit}
}

func (k keyMap) editorHints() []key.Binding {
	return []key.Binding{k.Save, k.FocusNext, k.CloseFile, k.DownloadCurrent, k.Back}
}

func (k keyMap) promptHints() []key.Binding {
	return []key.Binding{k.ApplyAI, k.Save, k.FocusNext, k.Back}
}

func renderHints(bs []key.Binding) string {
	parts := make([]string, 0, len(bs))
	for _, b := range bs {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, "   ")
}

// helpMarkdown lists every binding, one table per context.
func (k keyMap) helpMarkdown() string {
	section := func(title string, bs ...key.Binding) string {
		var b strings.Builder
		b.WriteString("## " + title + "\n\n| Key | Action |\n|---|---|\n")
		for _, kb := range bs {
			h := kb.Help()
			b.WriteString("| `" + h.Key + "` | " + h.Desc + " |\n")
		}
		return b.String()
	}
	return strings.Join([]string{
		"# filedesk",
		section("Files", k.Open, k.New, k.UploadPaths, k.Browse, k.Delete, k.DeleteAll,
			k.Download, k.DownloadAll, k.CopyName, k.Refresh, k.Health, k.FocusNext, k.CloseToast),
		section("Editor", k.Save, k.FocusNext, k.CloseFile, k.DownloadCurrent, k.CopyContent, k.CloseToastInput, k.Back),
		section("AI prompt", k.ApplyAI, k.Save, k.CloseToastInput, k.Back),
		section("Dialogs", k.Confirm, k.Cancel, k.Submit, k.UploadFolder),
		"Dropping files onto the terminal uploads them.",
		section("General", k.Help, k.Quit),
	}, "\n")
}
