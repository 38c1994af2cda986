package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ykarpov/billkeeper/internal/client"
	"github.com/ykarpov/billkeeper/models"
)

type tab int

const (
	tabBills tab = iota
	tabBudgets
)

type mainModel struct {
	ctx    context.Context
	app    *client.App
	states <-chan models.SyncState

	active  tab
	bills   []models.Entity
	budgets []models.Entity
	idx     int
	loading bool

	form      *formModel
	confirm   bool
	syncState models.SyncState
	spinner   spinner.Model
	status    string
	errMsg    string
}

func newMainModel(ctx context.Context, app *client.App, states <-chan models.SyncState) mainModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	return mainModel{
		ctx:       ctx,
		app:       app,
		states:    states,
		loading:   true,
		spinner:   s,
		syncState: app.SyncState(),
	}
}

func (m mainModel) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.waitStateCmd(), m.spinner.Tick)
}

func (m mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case listLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.bills, m.budgets = msg.bills, msg.budgets
		m.clampIndex()
		return m, nil

	case syncStateMsg:
		m.syncState = msg.state
		// a finished pass may have merged remote changes
		if msg.state.Phase == models.PhaseIdle {
			return m, tea.Batch(m.waitStateCmd(), m.loadCmd())
		}
		return m, m.waitStateCmd()

	case syncDoneMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		} else {
			m.status = "sync finished"
		}
		return m, m.loadCmd()

	case itemSavedMsg:
		m.form = nil
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		} else {
			m.status = "saved"
		}
		return m, m.loadCmd()

	case itemDeletedMsg:
		m.confirm = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		}
		return m, m.loadCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m mainModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form != nil {
		return m.updateForm(msg)
	}

	if m.confirm {
		switch {
		case key.Matches(msg, keys.yes):
			if item, ok := m.current(); ok {
				return m, m.deleteCmd(item.ID)
			}
			m.confirm = false
		case key.Matches(msg, keys.no), key.Matches(msg, keys.esc):
			m.confirm = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.quit):
		return m, tea.Quit

	case key.Matches(msg, keys.tab):
		if m.active == tabBills {
			m.active = tabBudgets
		} else {
			m.active = tabBills
		}
		m.idx = 0

	case key.Matches(msg, keys.up):
		if m.idx > 0 {
			m.idx--
		}

	case key.Matches(msg, keys.down):
		m.idx++
		m.clampIndex()

	case key.Matches(msg, keys.new):
		form := newFormModel(m.active)
		m.form = &form
		m.errMsg = ""

	case key.Matches(msg, keys.sync):
		m.status = ""
		m.errMsg = ""
		return m, m.syncCmd()

	case key.Matches(msg, keys.delete):
		if _, ok := m.current(); ok {
			m.confirm = true
		}
	}

	return m, nil
}

func (m mainModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.esc):
		m.form = nil
		return m, nil

	case key.Matches(msg, keys.enter):
		if m.form.lastFieldFocused() {
			return m, m.saveCmd(*m.form)
		}
		m.form.focusNext()
		return m, nil

	case key.Matches(msg, keys.tab):
		m.form.focusNext()
		return m, nil
	}

	cmd := m.form.update(msg)
	return m, cmd
}

func (m *mainModel) items() []models.Entity {
	if m.active == tabBudgets {
		return m.budgets
	}
	return m.bills
}

func (m *mainModel) current() (models.Entity, bool) {
	items := m.items()
	if len(items) == 0 || m.idx < 0 || m.idx >= len(items) {
		return models.Entity{}, false
	}
	return items[m.idx], true
}

func (m *mainModel) clampIndex() {
	if limit := len(m.items()) - 1; m.idx > limit {
		m.idx = limit
	}
	if m.idx < 0 {
		m.idx = 0
	}
}

// ─────────────────────────────────────────────
// Commands
// ─────────────────────────────────────────────

func (m mainModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		bills, err := m.app.Bills(m.ctx)
		if err != nil {
			return listLoadedMsg{err: err}
		}
		budgets, err := m.app.Budgets(m.ctx)
		if err != nil {
			return listLoadedMsg{err: err}
		}
		return listLoadedMsg{bills: bills, budgets: budgets}
	}
}

func (m mainModel) syncCmd() tea.Cmd {
	return func() tea.Msg {
		return syncDoneMsg{err: m.app.SyncNow(m.ctx)}
	}
}

func (m mainModel) deleteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return itemDeletedMsg{err: m.app.DeleteEntity(m.ctx, id)}
	}
}

func (m mainModel) saveCmd(form formModel) tea.Cmd {
	return func() tea.Msg {
		return itemSavedMsg{err: form.submit(m.ctx, m.app)}
	}
}

func (m mainModel) waitStateCmd() tea.Cmd {
	return func() tea.Msg {
		return syncStateMsg{state: <-m.states}
	}
}

// ─────────────────────────────────────────────
// View
// ─────────────────────────────────────────────

func (m mainModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("billkeeper"))
	b.WriteString("  ")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.renderSyncLine()))
	b.WriteString("\n\n")

	switch {
	case m.form != nil:
		b.WriteString(m.form.view())
	case m.confirm:
		b.WriteString("delete selected entry? (y/n)\n")
	case m.loading:
		b.WriteString("loading...\n")
	default:
		b.WriteString(m.renderList())
	}

	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render("error: "+m.errMsg) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("n new  s sync  d delete  tab switch  q quit"))
	return appStyle.Render(b.String())
}

func (m mainModel) renderTabs() string {
	bills, budgets := "bills", "budgets"
	if m.active == tabBills {
		bills = activeTabStyle.Render(bills)
	} else {
		budgets = activeTabStyle.Render(budgets)
	}
	return bills + " | " + budgets
}

func (m mainModel) renderList() string {
	items := m.items()
	if len(items) == 0 {
		return "no entries\n"
	}

	var b strings.Builder
	for i, item := range items {
		cursor := "  "
		if i == m.idx {
			cursor = "> "
		}
		detail := ""
		switch {
		case item.DueDay != nil:
			detail = fmt.Sprintf("due day %d", *item.DueDay)
		case item.Month != nil:
			detail = *item.Month
		}
		fmt.Fprintf(&b, "%s%-24s %10s  %s\n", cursor, item.Name, item.Amount.String(), detail)
	}
	return b.String()
}

func (m mainModel) renderSyncLine() string {
	state := m.syncState

	switch state.Phase {
	case models.PhaseSyncing:
		return m.spinner.View() + " syncing..."
	case models.PhaseBackoffWait:
		return fmt.Sprintf("%s retrying (attempt %d)...", m.spinner.View(), state.Attempt)
	case models.PhaseFailed:
		if state.Err != nil {
			return "sync failed: " + state.Err.Error()
		}
		return "sync failed"
	}

	line := "idle"
	if !state.IsOnline {
		line = "offline"
	}
	if state.PendingChanges > 0 {
		line += fmt.Sprintf(", %d pending", state.PendingChanges)
	}
	if !state.LastSyncTime.IsZero() {
		line += ", last sync " + state.LastSyncTime.Local().Format("15:04:05")
	}
	return line
}
