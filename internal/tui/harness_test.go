package tui

import (
	"fmt"
	"testing"
	"time"

	"filedesk-cli/internal/api"
	"filedesk-cli/internal/api/apitest"
	"filedesk-cli/internal/app"
	"filedesk-cli/internal/store"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// harness drives a model against a fake backend, running commands inline.
// Timers are captured instead of started; fire them explicitly.
type harness struct {
	t       *testing.T
	m       model
	backend *apitest.Backend
	dlDir   string
	timers  []app.After
	clock   time.Time
}

func newHarness(t *testing.T, files map[string]string, setup ...func(*apitest.Backend)) *harness {
	t.Helper()
	b := apitest.New(files)
	t.Cleanup(b.Close)
	for _, f := range setup {
		b.Update(f)
	}

	c, err := api.New(b.URL(), nil)
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	h := &harness{
		t:       t,
		backend: b,
		dlDir:   t.TempDir(),
		clock:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	x := executor{
		client:    c,
		downloads: store.Downloads{Dir: h.dlDir},
		after: func(d time.Duration, a app.Action) tea.Cmd {
			h.timers = append(h.timers, app.After{Delay: d, Action: a})
			return nil
		},
	}
	m := newModel(x, b.URL(), store.UploadFilter{})
	seq := 0
	m.reducer = app.Reducer{NewID: func() string {
		seq++
		return fmt.Sprintf("t%d", seq)
	}}
	m.frame = nil
	m.now = func() time.Time { return h.clock }
	h.m = m

	h.run(m.Init())
	return h
}

// run executes cmd and everything it leads to until nothing is left.
func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 10000 {
			h.t.Fatal("commands did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil, tea.QuitMsg, spinner.TickMsg, toastFrameMsg:
			// Animation frames and quitting have nothing to drain.
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			next, cmd := h.m.Update(msg)
			h.m = next.(model)
			queue = append(queue, cmd)
		}
	}
}

func (h *harness) send(msg tea.Msg) {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(model)
	h.run(cmd)
}

var namedKeys = map[string]tea.KeyType{
	"enter":     tea.KeyEnter,
	"esc":       tea.KeyEsc,
	"tab":       tea.KeyTab,
	"shift+tab": tea.KeyShiftTab,
	"down":      tea.KeyDown,
	"up":        tea.KeyUp,
	"backspace": tea.KeyBackspace,
	"ctrl+s":    tea.KeyCtrlS,
	"ctrl+w":    tea.KeyCtrlW,
	"ctrl+o":    tea.KeyCtrlO,
	"ctrl+y":    tea.KeyCtrlY,
	"ctrl+x":    tea.KeyCtrlX,
}

// press sends each key in order; names like "enter" are special keys,
// anything else is typed as runes.
func (h *harness) press(keys ...string) {
	h.t.Helper()
	for _, k := range keys {
		if kt, ok := namedKeys[k]; ok {
			h.send(tea.KeyMsg{Type: kt})
			continue
		}
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	}
}

// typeText types s one rune at a time.
func (h *harness) typeText(s string) {
	h.t.Helper()
	for _, r := range s {
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *harness) paste(s string) {
	h.t.Helper()
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s), Paste: true})
}

// fireTimers delivers every captured timer, including ones scheduled while
// delivering, in order.
func (h *harness) fireTimers() {
	h.t.Helper()
	for len(h.timers) > 0 {
		next := h.timers[0]
		h.timers = h.timers[1:]
		h.send(actionMsg{action: next.Action})
	}
}

func (h *harness) toastMessages() []string {
	out := make([]string, 0, len(h.m.state.Toasts))
	for _, t := range h.m.state.Toasts {
		out = append(out, t.Message)
	}
	return out
}

func (h *harness) lastToast() app.Toast {
	h.t.Helper()
	if len(h.m.state.Toasts) == 0 {
		h.t.Fatal("expected a toast")
	}
	return h.m.state.Toasts[len(h.m.state.Toasts)-1]
}

func (h *harness) wantLastToast(msg string, sev app.Severity) {
	h.t.Helper()
	got := h.lastToast()
	if got.Message != msg || got.Severity != sev {
		h.t.Fatalf("expected toast %q (%s); got %q (%s); all=%q", msg, sev, got.Message, got.Severity, h.toastMessages())
	}
}
