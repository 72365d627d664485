package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

type fileItem struct {
	name string
	// open marks the file currently loaded in the editor.
	open bool
}

func (i fileItem) FilterValue() string { return i.name }
func (i fileItem) Title() string       { return i.name }

// fileDelegate renders one filename per row, highlighted when selected.
type fileDelegate struct {
	normal   lipgloss.Style
	selected lipgloss.Style
	focused  *bool
}

func newFileDelegate(focused *bool) fileDelegate {
	return fileDelegate{
		normal: lipgloss.NewStyle(),
		selected: lipgloss.NewStyle().
			Foreground(colorSelectedFg).
			Background(colorSelectedBg).
			Bold(true),
		focused: focused,
	}
}

func (d fileDelegate) Height() int                             { return 1 }
func (d fileDelegate) Spacing() int                            { return 0 }
func (d fileDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d fileDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	contentW := m.Width()
	if contentW < 4 {
		return
	}
	it, ok := item.(fileItem)
	if !ok {
		fmt.Fprint(w, truncate(fmt.Sprint(item), contentW))
		return
	}

	marker := "  "
	if it.open {
		marker = "● "
	}
	line := marker + it.name
	line = truncate(line, contentW)
	if lw := xansi.StringWidth(line); lw < contentW {
		line += strings.Repeat(" ", contentW-lw)
	}

	style := d.normal
	if index == m.Index() && (d.focused == nil || *d.focused) {
		style = d.selected
	}
	fmt.Fprint(w, style.Render(line))
}

func newFileList(focused *bool) list.Model {
	l := list.New(nil, newFileDelegate(focused), 0, 0)
	l.Title = "Files"
	// Chrome is drawn by the pane; keep the list bare.
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.SetStatusBarItemName("file", "files")

	// Emacs-style aliases.
	l.KeyMap.CursorUp.SetKeys(append(append([]string{}, l.KeyMap.CursorUp.Keys()...), "ctrl+p")...)
	l.KeyMap.CursorDown.SetKeys(append(append([]string{}, l.KeyMap.CursorDown.Keys()...), "ctrl+n")...)
	// Single-letter page keys collide with file actions.
	l.KeyMap.PrevPage.SetKeys("pgup")
	l.KeyMap.NextPage.SetKeys("pgdown")
	return l
}
