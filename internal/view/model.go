package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/connerohnesorge/mdstream/internal/block"
	"github.com/connerohnesorge/mdstream/internal/clip"
	"github.com/connerohnesorge/mdstream/internal/scheduler"
	"github.com/connerohnesorge/mdstream/internal/store"
	"github.com/connerohnesorge/mdstream/internal/theme"
)

const (
	keyUp   = "up"
	keyDown = "down"
	keyEsc  = "esc"
)

// MaxCountPrefixDigits bounds how many digits a vim-style count prefix
// ("9j") accumulates before being applied.
const MaxCountPrefixDigits = 4

// CountPrefixState accumulates a vim-style numeric prefix ("9" then
// "j") ahead of a navigation key.
type CountPrefixState struct {
	prefix string
}

// HandleKey records key as part of a count prefix, or reports the
// accumulated count once a navigation key (j/k/up/down) arrives.
func (c *CountPrefixState) HandleKey(key string) (count int, isNavKey, handled bool) {
	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		if len(c.prefix) < MaxCountPrefixDigits {
			c.prefix += key
		}

		return 1, false, true
	}

	lower := strings.ToLower(key)
	if lower == "j" || lower == "k" || lower == keyUp || lower == keyDown {
		n := c.parseCount()
		c.Reset()

		return n, true, true
	}

	if key == keyEsc && c.IsActive() {
		c.Reset()

		return 1, false, true
	}

	if c.IsActive() {
		c.Reset()

		return 1, false, true
	}

	return 1, false, false
}

// IsActive reports whether a prefix is currently being accumulated.
func (c *CountPrefixState) IsActive() bool { return c.prefix != "" }

// Reset clears the accumulated prefix.
func (c *CountPrefixState) Reset() { c.prefix = "" }

// String returns the accumulated digits for display.
func (c *CountPrefixState) String() string { return c.prefix }

func (c *CountPrefixState) parseCount() int {
	if c.prefix == "" {
		return 1
	}

	n, err := strconv.Atoi(c.prefix)
	if err != nil || n < 1 {
		return 1
	}

	return n
}

// updateMsg notifies the model that the store advanced to a new
// version; the model re-reads the store's current node graph in View.
type updateMsg uint64

// Model is the bubbletea program driving `mdstream watch`: it
// subscribes to a Store and redraws the block tree every time a commit
// lands, with vim-style navigation over the top-level blocks and a
// clipboard yank action on the block under the cursor.
type Model struct {
	store     *store.Store
	scheduler *scheduler.Scheduler
	theme     *theme.Theme

	width, height int
	cursor        int
	quitting      bool
	statusMsg     string

	updates     chan uint64
	unsubscribe func()
	countPrefix CountPrefixState

	spin spinner.Model
}

// NewModel constructs a Model watching store and reporting scheduler
// flush history in its status line, styled with theme.
func NewModel(st *store.Store, sched *scheduler.Scheduler, th *theme.Theme) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(th.Secondary)

	return &Model{
		store:     st,
		scheduler: sched,
		theme:     th,
		updates:   make(chan uint64, 8),
		spin:      sp,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	m.unsubscribe = m.store.Subscribe(func(version uint64) {
		select {
		case m.updates <- version:
		default:
		}
	})

	return tea.Batch(waitForUpdate(m.updates), m.spin.Tick)
}

func waitForUpdate(ch <-chan uint64) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}

		return updateMsg(v)
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

		return m, nil

	case updateMsg:
		return m, waitForUpdate(m.updates)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)

		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	if keyStr == "q" || keyStr == "ctrl+c" {
		m.quitting = true
		if m.unsubscribe != nil {
			m.unsubscribe()
		}

		return m, tea.Quit
	}

	if keyStr == "y" {
		m.yankSelected()

		return m, nil
	}

	count, isNavKey, handled := m.countPrefix.HandleKey(keyStr)
	if handled && isNavKey {
		blocks := m.topLevelBlocks()
		switch keyStr {
		case keyUp, "k":
			m.cursor = maxInt(0, m.cursor-count)
		case keyDown, "j":
			m.cursor = minInt(maxInt(0, len(blocks)-1), m.cursor+count)
		}

		return m, nil
	}

	return m, nil
}

func (m *Model) yankSelected() {
	blocks := m.topLevelBlocks()
	if m.cursor < 0 || m.cursor >= len(blocks) {
		return
	}

	text := RenderBlock(blocks[m.cursor], m.theme, false)
	if err := clip.Copy(text); err != nil {
		m.statusMsg = fmt.Sprintf("copy failed: %v", err)

		return
	}

	m.statusMsg = "copied: " + clip.TruncateString(strings.TrimSpace(text), 40)
}

func (m *Model) topLevelBlocks() []*block.Block {
	return m.store.TopLevelBlocks()
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	th := m.theme
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(th.Header).MarginBottom(1)
	helpStyle := lipgloss.NewStyle().Foreground(th.Muted).MarginTop(1)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s mdstream watch — version %d", m.spin.View(), m.store.Version())))
	sb.WriteString("\n\n")

	blocks := m.topLevelBlocks()
	for i, b := range blocks {
		sb.WriteString(RenderBlock(b, th, i == m.cursor))
	}

	sb.WriteString(m.statusLine())

	helpText := "↑/↓ or j/k: navigate | y: yank block | q: quit"
	if m.countPrefix.IsActive() {
		helpText += fmt.Sprintf(" | count: %s_", m.countPrefix.String())
	}
	sb.WriteString(helpStyle.Render(helpText))

	return sb.String()
}

func (m *Model) statusLine() string {
	th := m.theme
	style := lipgloss.NewStyle().Foreground(th.Success)

	if m.statusMsg != "" {
		return style.Render(m.statusMsg) + "\n"
	}

	hist := m.scheduler.GetHistory(1)
	if len(hist) == 0 {
		return ""
	}
	last := hist[0]

	return lipgloss.NewStyle().Foreground(th.Muted).Render(
		fmt.Sprintf("last flush: %s in %s (budget %s)", last.Strategy, last.Duration, last.BudgetAfter),
	) + "\n"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}

	return b
}
