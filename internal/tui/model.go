package tui

import (
	"log"
	"os"
	"time"

	"filedesk-cli/internal/app"
	"filedesk-cli/internal/store"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// mode is a full-screen overlay owned by the TUI itself. Dialogs that live in
// app.State (confirm, create) take precedence over it.
type mode int

const (
	modeMain mode = iota
	modeUploadPaths
	modePicker
	modeHelp
)

const toastFrameInterval = 100 * time.Millisecond

type toastFrameMsg struct{}

type model struct {
	state   app.State
	reducer app.Reducer
	exec    executor
	keys    keyMap
	logger  *log.Logger

	server string
	filter store.UploadFilter

	width  int
	height int
	mode   mode

	files       list.Model
	listFocused *bool
	content     textarea.Model
	prompt      textinput.Model
	newName     textinput.Model
	newBody     textarea.Model
	// createOnName is true while the filename field of the create dialog has focus.
	createOnName bool
	paths        textinput.Model
	picker       filepicker.Model
	spin         spinner.Model
	help         viewport.Model

	// What the widgets were last loaded from, so typing isn't overwritten.
	syncedFiles   []string
	syncedFile    string
	syncedContent string
	syncedPrompt  string

	toastShown map[string]time.Time
	now        func() time.Time
	frame      func() tea.Cmd
	framing    bool
}

func newModel(x executor, server string, filter store.UploadFilter) model {
	focused := true
	m := model{
		exec:         x,
		keys:         defaultKeyMap(),
		server:       server,
		filter:       filter,
		listFocused:  &focused,
		createOnName: true,
		toastShown:   map[string]time.Time{},
		now:          time.Now,
		frame: func() tea.Cmd {
			return tea.Tick(toastFrameInterval, func(time.Time) tea.Msg { return toastFrameMsg{} })
		},
	}

	m.files = newFileList(m.listFocused)

	m.content = textarea.New()
	m.content.Placeholder = "File content"
	m.content.ShowLineNumbers = true
	m.content.CharLimit = 0
	m.content.MaxHeight = 0
	m.content.Cursor.SetMode(cursor.CursorStatic)

	m.prompt = textinput.New()
	m.prompt.Placeholder = "Describe the edit, e.g. \"fix the typos\""
	m.prompt.Prompt = "AI> "
	m.prompt.Cursor.SetMode(cursor.CursorStatic)

	m.newName = textinput.New()
	m.newName.Placeholder = "filename.txt"
	m.newName.Prompt = "Name: "
	m.newName.Cursor.SetMode(cursor.CursorStatic)

	m.newBody = textarea.New()
	m.newBody.Placeholder = "Initial content (optional)"
	m.newBody.CharLimit = 0
	m.newBody.MaxHeight = 0
	m.newBody.Cursor.SetMode(cursor.CursorStatic)

	m.paths = textinput.New()
	m.paths.Placeholder = "paths to upload; paste or drop files here"
	m.paths.Prompt = "> "
	m.paths.Cursor.SetMode(cursor.CursorStatic)

	m.picker = filepicker.New()
	m.picker.DirAllowed = false
	m.picker.FileAllowed = true
	m.picker.ShowHidden = false
	m.picker.AutoHeight = false
	if wd, err := os.Getwd(); err == nil {
		m.picker.CurrentDirectory = wd
	}
	// esc closes the picker instead of walking up a directory.
	m.picker.KeyMap.Back = key.NewBinding(key.WithKeys("h", "backspace", "left"), key.WithHelp("h", "back"))

	m.spin = spinner.New(spinner.WithSpinner(spinner.Dot))
	m.help = viewport.New(0, 0)

	m.layout()
	return m
}

func (m model) Init() tea.Cmd {
	// Init changes no state; only its effects matter.
	_, cmd := m.dispatch(app.Init{})
	return cmd
}

// dispatch runs a through the reducer, refreshes the widgets from the new
// state, and returns the commands for the resulting effects.
func (m model) dispatch(a app.Action) (model, tea.Cmd) {
	m.debugf("action %s", describeAction(a))
	wasLoading := m.state.Loading

	next, effs := m.reducer.Reduce(m.state, a)
	m.state = next
	m.sync()

	cmds := []tea.Cmd{m.exec.batch(effs)}
	if m.state.Loading && !wasLoading {
		cmds = append(cmds, m.spin.Tick)
	}
	cmds = append(cmds, m.trackToasts())
	return m, tea.Batch(cmds...)
}

// dispatchAll dispatches each action in order and batches their commands.
func (m model) dispatchAll(as ...app.Action) (model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, len(as))
	for _, a := range as {
		var cmd tea.Cmd
		m, cmd = m.dispatch(a)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case actionMsg:
		return m.dispatch(msg.action)

	case toastFrameMsg:
		m.framing = false
		return m, m.trackToasts()

	case spinner.TickMsg:
		if !m.state.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.updateKey(msg)
	}

	if m.mode == modePicker {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.state.Loading:
		// The AI request is in flight; input waits for it.
		return m, nil
	case m.state.Confirm != nil:
		return m.updateConfirm(msg)
	case m.state.Create.Open:
		return m.updateCreate(msg)
	}

	switch m.mode {
	case modeHelp:
		return m.updateHelp(msg)
	case modePicker:
		return m.updatePicker(msg)
	case modeUploadPaths:
		return m.updatePaths(msg)
	}

	switch m.state.Focus {
	case app.FocusEditor:
		return m.updateEditor(msg)
	case app.FocusPrompt:
		return m.updatePrompt(msg)
	}
	return m.updateList(msg)
}

func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A terminal drag-and-drop arrives as a paste of paths.
	if msg.Paste {
		return m.uploadDropped(string(msg.Runes))
	}

	sel := m.selectedFile()
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.openHelp()
		return m, nil
	case key.Matches(msg, k.CloseToast):
		return m.closeNewestToast()
	case key.Matches(msg, k.Open):
		if sel == "" {
			return m, nil
		}
		return m.dispatch(app.EditFile{Name: sel})
	case key.Matches(msg, k.Delete):
		if sel == "" {
			return m, nil
		}
		return m.dispatch(app.DeleteFile{Name: sel})
	case key.Matches(msg, k.DeleteAll):
		return m.dispatch(app.DeleteAllFiles{})
	case key.Matches(msg, k.New):
		m.createOnName = true
		return m.dispatch(app.ShowCreateDialog{})
	case key.Matches(msg, k.UploadPaths):
		m.mode = modeUploadPaths
		m.paths.SetValue("")
		m.paths.Focus()
		return m, nil
	case key.Matches(msg, k.Browse):
		m.mode = modePicker
		return m, m.picker.Init()
	case key.Matches(msg, k.Download):
		if sel == "" {
			return m, nil
		}
		return m.dispatch(app.DownloadFile{Name: sel})
	case key.Matches(msg, k.DownloadAll):
		return m.dispatch(app.DownloadAllFiles{})
	case key.Matches(msg, k.Refresh):
		return m.dispatch(app.LoadFiles{})
	case key.Matches(msg, k.Health):
		return m.dispatch(app.CheckHealth{})
	case key.Matches(msg, k.CopyName):
		if sel == "" {
			return m, nil
		}
		return m.copy(sel, "Copied "+sel+" to clipboard")
	case key.Matches(msg, k.FocusNext):
		return m.dispatch(app.SetFocus{Focus: app.FocusEditor})
	}

	var cmd tea.Cmd
	m.files, cmd = m.files.Update(msg)
	return m, cmd
}

func (m model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Save):
		return m.dispatch(app.SaveFile{})
	case key.Matches(msg, k.CloseFile):
		return m.dispatch(app.CloseEditor{})
	case key.Matches(msg, k.DownloadCurrent):
		return m.dispatch(app.DownloadCurrentFile{})
	case key.Matches(msg, k.CopyContent):
		return m.copy(m.state.Editor.Content, "Copied content of "+m.state.Editor.CurrentFile+" to clipboard")
	case key.Matches(msg, k.CloseToastInput):
		return m.closeNewestToast()
	case key.Matches(msg, k.Back):
		return m.dispatch(app.SetFocus{Focus: app.FocusList})
	case key.Matches(msg, k.FocusNext):
		return m.dispatch(app.SetFocus{Focus: app.FocusPrompt})
	}

	before := m.content.Value()
	var cmd tea.Cmd
	m.content, cmd = m.content.Update(msg)
	if v := m.content.Value(); v != before {
		m.syncedContent = v
		var dcmd tea.Cmd
		m, dcmd = m.dispatch(app.SetContent{Content: v})
		return m, tea.Batch(cmd, dcmd)
	}
	return m, cmd
}

func (m model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.ApplyAI):
		return m.dispatch(app.ApplyAIEdit{})
	case key.Matches(msg, k.Save):
		return m.dispatch(app.SaveFile{})
	case key.Matches(msg, k.CloseToastInput):
		return m.closeNewestToast()
	case key.Matches(msg, k.Back), key.Matches(msg, k.FocusNext):
		return m.dispatch(app.SetFocus{Focus: app.FocusList})
	case msg.String() == "shift+tab":
		return m.dispatch(app.SetFocus{Focus: app.FocusEditor})
	}

	before := m.prompt.Value()
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	if v := m.prompt.Value(); v != before {
		m.syncedPrompt = v
		var dcmd tea.Cmd
		m, dcmd = m.dispatch(app.SetPrompt{Prompt: v})
		return m, tea.Batch(cmd, dcmd)
	}
	return m, cmd
}

func (m model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		return m.dispatch(app.ConfirmAccept{})
	case key.Matches(msg, m.keys.Cancel):
		return m.dispatch(app.ConfirmReject{})
	}
	return m, nil
}

func (m model) updateCreate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+g":
		return m.dispatch(app.HideCreateDialog{})
	case "tab", "shift+tab":
		m.createOnName = !m.createOnName
		m.sync()
		return m, nil
	case "enter":
		if m.createOnName {
			m.createOnName = false
			m.sync()
			return m, nil
		}
	}
	if key.Matches(msg, m.keys.Submit) {
		return m.dispatch(app.CreateFile{})
	}

	var cmd tea.Cmd
	if m.createOnName {
		before := m.newName.Value()
		m.newName, cmd = m.newName.Update(msg)
		if v := m.newName.Value(); v != before {
			var dcmd tea.Cmd
			m, dcmd = m.dispatch(app.SetCreateFilename{Filename: v})
			return m, tea.Batch(cmd, dcmd)
		}
		return m, cmd
	}
	before := m.newBody.Value()
	m.newBody, cmd = m.newBody.Update(msg)
	if v := m.newBody.Value(); v != before {
		var dcmd tea.Cmd
		m, dcmd = m.dispatch(app.SetCreateContent{Content: v})
		return m, tea.Batch(cmd, dcmd)
	}
	return m, cmd
}

func (m model) updatePaths(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+g":
		m.mode = modeMain
		m.paths.Blur()
		return m, nil
	case "enter":
		text := m.paths.Value()
		m.mode = modeMain
		m.paths.Blur()
		m.paths.SetValue("")
		return m.uploadDropped(text)
	}
	var cmd tea.Cmd
	m.paths, cmd = m.paths.Update(msg)
	return m, cmd
}

func (m model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc" || msg.String() == "ctrl+g":
		m.mode = modeMain
		return m, nil
	case key.Matches(msg, m.keys.UploadFolder):
		dir := m.picker.CurrentDirectory
		m.mode = modeMain
		files, err := store.ExpandFolder(dir, m.filter)
		if err != nil {
			return m.dispatch(app.ShowStatus{Message: "Upload error: " + err.Error(), Severity: app.SeverityError})
		}
		if len(files) == 0 {
			return m.dispatchAll(
				app.SelectFolder{Files: files},
				app.ShowStatus{Message: "No files to upload in " + dir, Severity: app.SeverityWarning},
			)
		}
		return m.dispatch(app.SelectFolder{Files: files})
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.mode = modeMain
		next, dcmd := m.dispatch(app.SelectFiles{Files: []string{path}})
		return next, tea.Batch(cmd, dcmd)
	}
	return m, cmd
}

func (m model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "?":
		m.mode = modeMain
		return m, nil
	}
	var cmd tea.Cmd
	m.help, cmd = m.help.Update(msg)
	return m, cmd
}

// uploadDropped uploads the paths in text. Folders among them are expanded.
func (m model) uploadDropped(text string) (model, tea.Cmd) {
	files, err := store.ExpandPaths(store.SplitDropped(text), m.filter)
	if err != nil {
		return m.dispatch(app.ShowStatus{Message: "Upload error: " + err.Error(), Severity: app.SeverityError})
	}
	if files == nil {
		// Non-nil: an explicit empty selection, not "use the pickers".
		files = []string{}
	}
	return m.dispatch(app.Upload{Files: files})
}

// newestToast returns the ID of the most recent toast not already closing.
func (m model) newestToast() string {
	for i := len(m.state.Toasts) - 1; i >= 0; i-- {
		if !m.state.Toasts[i].Hiding {
			return m.state.Toasts[i].ID
		}
	}
	return ""
}

func (m model) closeNewestToast() (model, tea.Cmd) {
	id := m.newestToast()
	if id == "" {
		return m, nil
	}
	return m.dispatch(app.DismissToast{ID: id})
}

func (m model) copy(text, okMsg string) (model, tea.Cmd) {
	if err := copyToClipboard(text); err != nil {
		return m.dispatch(app.ShowStatus{Message: "Clipboard unavailable: " + err.Error(), Severity: app.SeverityError})
	}
	return m.dispatch(app.ShowStatus{Message: okMsg, Severity: app.SeveritySuccess})
}

func (m *model) openHelp() {
	m.mode = modeHelp
	m.help.SetContent(renderMarkdown(m.keys.helpMarkdown(), m.help.Width))
	m.help.GotoTop()
}

func (m model) selectedFile() string {
	if it, ok := m.files.SelectedItem().(fileItem); ok {
		return it.name
	}
	return ""
}

// sync loads widget values from state where state changed underneath them.
func (m *model) sync() {
	ed := m.state.Editor
	fileChanged := ed.CurrentFile != m.syncedFile

	if fileChanged || !sameStrings(m.syncedFiles, m.state.Files) {
		items := make([]list.Item, 0, len(m.state.Files))
		for _, f := range m.state.Files {
			items = append(items, fileItem{name: f, open: f == ed.CurrentFile})
		}
		m.files.SetItems(items)
		if idx := m.files.Index(); idx >= len(items) && len(items) > 0 {
			m.files.Select(len(items) - 1)
		}
		m.syncedFiles = append([]string(nil), m.state.Files...)
	}

	if fileChanged || ed.Content != m.syncedContent {
		m.content.SetValue(ed.Content)
		if fileChanged {
			for m.content.Line() > 0 {
				m.content.CursorUp()
			}
			m.content.CursorStart()
		}
		m.syncedContent = ed.Content
	}
	if fileChanged || ed.Prompt != m.syncedPrompt {
		m.prompt.SetValue(ed.Prompt)
		m.syncedPrompt = ed.Prompt
	}
	m.syncedFile = ed.CurrentFile

	*m.listFocused = m.state.Focus == app.FocusList
	switch m.state.Focus {
	case app.FocusEditor:
		m.content.Focus()
		m.prompt.Blur()
	case app.FocusPrompt:
		m.content.Blur()
		m.prompt.Focus()
	default:
		m.content.Blur()
		m.prompt.Blur()
	}

	c := m.state.Create
	if m.newName.Value() != c.Filename {
		m.newName.SetValue(c.Filename)
	}
	if m.newBody.Value() != c.Content {
		m.newBody.SetValue(c.Content)
	}
	if !c.Open {
		m.createOnName = true
		m.newName.Blur()
		m.newBody.Blur()
	} else if m.createOnName {
		m.newName.Focus()
		m.newBody.Blur()
	} else {
		m.newName.Blur()
		m.newBody.Focus()
	}
}

// trackToasts records when each toast appeared and keeps the countdown
// redrawing while any are on screen.
func (m *model) trackToasts() tea.Cmd {
	live := make(map[string]bool, len(m.state.Toasts))
	for _, t := range m.state.Toasts {
		live[t.ID] = true
		if _, ok := m.toastShown[t.ID]; !ok {
			m.toastShown[t.ID] = m.now()
		}
	}
	for id := range m.toastShown {
		if !live[id] {
			delete(m.toastShown, id)
		}
	}
	if len(m.state.Toasts) == 0 || m.framing || m.frame == nil {
		return nil
	}
	m.framing = true
	return m.frame()
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
