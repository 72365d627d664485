package tui

import (
	"math"
	"strings"

	"filedesk-cli/internal/app"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

const (
	defaultWidth  = 100
	defaultHeight = 30

	headerLines = 1
	footerLines = 1
	minBodyH    = 8
)

func (m model) size() (int, int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

func (m model) bodyHeight() int {
	_, h := m.size()
	return max(h-headerLines-footerLines, minBodyH)
}

func (m model) listWidth() int {
	w, _ := m.size()
	lw := clamp(w/3, 24, 48)
	if lw > w-20 {
		lw = max(w/2, 10)
	}
	return lw
}

func (m model) modalWidth() int {
	w, _ := m.size()
	return clamp(w-8, 30, 80)
}

// layout sizes the widgets for the current window.
func (m *model) layout() {
	w, _ := m.size()
	bodyH := m.bodyHeight()
	listW := m.listWidth()
	edW := w - listW
	modalW := m.modalWidth()

	// Panes: 2 columns of border, 2 of padding; 2 lines of border.
	m.files.SetSize(max(listW-4, 1), max(bodyH-3, 1))
	m.content.SetWidth(max(edW-4, 10))
	m.content.SetHeight(max(bodyH-6, 1))
	m.prompt.Width = max(edW-4-xansi.StringWidth(m.prompt.Prompt)-1, 10)

	m.newName.Width = max(modalW-6-xansi.StringWidth(m.newName.Prompt)-1, 10)
	m.newBody.SetWidth(max(modalW-6, 10))
	m.newBody.SetHeight(clamp(bodyH-12, 3, 12))
	m.paths.Width = max(modalW-6-xansi.StringWidth(m.paths.Prompt)-1, 10)
	m.picker.Height = max(bodyH-10, 3)

	m.help.Width = max(modalW-6, 20)
	m.help.Height = max(bodyH-8, 3)
	if m.mode == modeHelp {
		m.help.SetContent(renderMarkdown(m.keys.helpMarkdown(), m.help.Width))
	}
}

func (m model) View() string {
	w, _ := m.size()
	bodyH := m.bodyHeight()

	var body string
	switch {
	case m.state.Loading:
		body = m.placeModal(m.viewLoading())
	case m.state.Confirm != nil:
		body = m.placeModal(m.viewConfirm())
	case m.state.Create.Open:
		body = m.placeModal(m.viewCreate())
	case m.mode == modeHelp:
		body = m.placeModal(m.viewHelp())
	case m.mode == modePicker:
		body = m.placeModal(m.viewPicker())
	case m.mode == modeUploadPaths:
		body = m.placeModal(m.viewPaths())
	default:
		body = m.viewMain()
	}
	body = m.overlayToasts(normalizePane(body, w, bodyH), w)

	return strings.Join([]string{m.viewHeader(w), body, m.viewFooter(w)}, "\n")
}

func (m model) viewHeader(w int) string {
	left := lipgloss.NewStyle().Bold(true).Render("filedesk") + "  " + styleChrome().Render(m.server)

	var right string
	switch {
	case !m.state.AI.Checked:
		right = styleMuted().Render("○ checking AI service")
	case m.state.AI.Available:
		right = lipgloss.NewStyle().Foreground(colorSuccess).Render("● AI: " + m.state.AI.Model)
	default:
		right = lipgloss.NewStyle().Foreground(colorError).Render("○ AI unavailable")
	}

	gap := w - xansi.StringWidth(left) - xansi.StringWidth(right)
	if gap < 1 {
		return truncate(left, w)
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m model) viewFooter(w int) string {
	var hints string
	switch {
	case m.state.Loading:
		hints = ""
	case m.state.Confirm != nil:
		hints = renderHints([]key.Binding{m.keys.Confirm, m.keys.Cancel})
	case m.state.Create.Open:
		hints = "tab: switch field   ctrl+s: create   esc: cancel"
	case m.mode == modeHelp:
		hints = "↑/↓: scroll   esc/?: close"
	case m.mode == modePicker:
		hints = "enter: upload file   a: upload this folder   h: up   esc: cancel"
	case m.mode == modeUploadPaths:
		hints = "enter: upload   esc: cancel"
	case m.state.Focus == app.FocusEditor:
		hints = renderHints(m.keys.editorHints())
	case m.state.Focus == app.FocusPrompt:
		hints = renderHints(m.keys.promptHints())
	default:
		hints = renderHints(m.keys.listHints())
	}
	if hints != "" && m.newestToast() != "" && m.mode == modeMain && m.state.Confirm == nil && !m.state.Create.Open {
		closeKey := m.keys.CloseToast
		if m.state.Focus != app.FocusList {
			closeKey = m.keys.CloseToastInput
		}
		hints = renderHints([]key.Binding{closeKey}) + "   " + hints
	}
	return styleMuted().Render(truncate(hints, w))
}

func (m model) viewMain() string {
	w, _ := m.size()
	bodyH := m.bodyHeight()
	listW := m.listWidth()
	edW := w - listW

	title := lipgloss.NewStyle().Bold(true).Render("Files") + " " + styleMuted().Render(m.state.FileCountLabel())
	var listBody string
	if len(m.state.Files) == 0 {
		listBody = styleMuted().Render(app.EmptyListPlaceholder)
	} else {
		listBody = m.files.View()
	}
	listPane := stylePane(m.state.Focus == app.FocusList).
		Width(listW - 2).
		Height(bodyH - 2).
		Render(normalizePane(title+"\n"+listBody, listW-4, bodyH-2))

	edPane := stylePane(m.state.Focus != app.FocusList).
		Width(edW - 2).
		Height(bodyH - 2).
		Render(normalizePane(m.viewEditor(edW-4), edW-4, bodyH-2))

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, edPane)
}

func (m model) viewEditor(width int) string {
	ed := m.state.Editor
	if !ed.Open() {
		return styleMuted().Render("Select a file and press enter to edit it, or press n to create one.")
	}

	title := lipgloss.NewStyle().Bold(true).Render("Editing: " + truncate(ed.CurrentFile, max(width-9, 1)))
	warning := ""
	if w := m.state.AIWarning(); w != "" {
		warning = lipgloss.NewStyle().Foreground(colorWarning).Render(truncate(w, width))
	}
	button := styleButton(m.state.AI.Available).Render(m.state.AIButtonLabel())

	return strings.Join([]string{
		title,
		m.content.View(),
		warning,
		m.prompt.View(),
		button,
	}, "\n")
}

func (m model) placeModal(content string) string {
	w, _ := m.size()
	box := styleModal().Width(m.modalWidth()).Render(content)
	return lipgloss.Place(w, m.bodyHeight(), lipgloss.Center, lipgloss.Center, box)
}

func modalTitle(s string) string {
	return lipgloss.NewStyle().Bold(true).Render(s)
}

func (m model) viewLoading() string {
	return m.spin.View() + " Processing with AI..."
}

func (m model) viewConfirm() string {
	c := m.state.Confirm
	title := "Delete file"
	action := "Delete"
	if c.Kind == app.ConfirmDeleteAll {
		title = "Delete all files"
		action = "Delete all"
	}
	body := lipgloss.NewStyle().Width(m.modalWidth() - 6).Render(c.Message)
	controls := styleButton(true).Render("y: "+action) + "  " + styleButton(false).Render("n: Cancel")
	return strings.Join([]string{modalTitle(title), "", body, "", controls}, "\n")
}

func (m model) viewCreate() string {
	return strings.Join([]string{
		modalTitle("Create new file"),
		"",
		m.newName.View(),
		"",
		m.newBody.View(),
	}, "\n")
}

func (m model) viewPaths() string {
	note := styleMuted().Width(m.modalWidth() - 6).Render(
		"Separate paths with spaces and quote paths that contain spaces. A folder uploads every file inside it.")
	return strings.Join([]string{modalTitle("Upload files"), "", m.paths.View(), "", note}, "\n")
}

func (m model) viewPicker() string {
	dir := styleMuted().Render(truncate(m.picker.CurrentDirectory, m.modalWidth()-6))
	return strings.Join([]string{modalTitle("Choose a file or folder to upload"), dir, "", m.picker.View()}, "\n")
}

func (m model) viewHelp() string {
	return m.help.View()
}

// overlayToasts draws the toast stack over the bottom-right corner of body,
// newest last. body lines must already be exactly w columns wide.
func (m model) overlayToasts(body string, w int) string {
	if len(m.state.Toasts) == 0 {
		return body
	}
	tw := min(clamp(w/2, 20, 50), w)

	var block []string
	for _, t := range m.state.Toasts {
		block = append(block, m.renderToast(t, tw)...)
	}
	lines := strings.Split(body, "\n")
	if len(block) > len(lines) {
		block = block[len(block)-len(lines):]
	}
	start := len(lines) - len(block)
	for i, bl := range block {
		j := start + i
		lines[j] = xansi.Cut(lines[j], 0, w-tw) + bl
	}
	return strings.Join(lines, "\n")
}

// renderToast is two lines: the message and a bar counting down to dismissal.
func (m model) renderToast(t app.Toast, width int) []string {
	fg := severityColor(t.Severity)
	msgStyle := lipgloss.NewStyle().Background(colorControlBg).Foreground(fg).Bold(true)
	if t.Hiding {
		msgStyle = styleMuted().Background(colorControlBg)
	}
	text := padRight(truncate(" "+severityGlyph(t.Severity)+" "+t.Message, width), width)

	filled := int(math.Round(m.toastRemaining(t) * float64(width)))
	bar := strings.Repeat("━", filled) + strings.Repeat(" ", width-filled)
	barStyle := lipgloss.NewStyle().Background(colorControlBg).Foreground(fg)

	return []string{msgStyle.Render(text), barStyle.Render(bar)}
}

// toastRemaining is the fraction of the toast's lifetime still to run.
func (m model) toastRemaining(t app.Toast) float64 {
	if t.Hiding {
		return 0
	}
	shown, ok := m.toastShown[t.ID]
	if !ok {
		return 1
	}
	frac := 1 - float64(m.now().Sub(shown))/float64(app.ToastLifetime)
	return math.Max(0, math.Min(1, frac))
}

func padRight(s string, width int) string {
	if w := xansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
