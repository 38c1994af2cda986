package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/ykarpov/billkeeper/internal/client"
)

const (
	fieldName = iota
	fieldCategory
	fieldAmount
	fieldExtra // due day for bills, month for budgets
	fieldCount
)

// formModel is the create form. The fourth field depends on the target tab:
// a due day number for bills, a "YYYY-MM" month for budgets.
type formModel struct {
	target tab
	inputs []textinput.Model
	focus  int
}

func newFormModel(target tab) formModel {
	inputs := make([]textinput.Model, fieldCount)

	labels := []string{"name", "category", "amount", "due day (1-31)"}
	if target == tabBudgets {
		labels[fieldExtra] = "month (YYYY-MM)"
	}

	for i := range inputs {
		in := textinput.New()
		in.Placeholder = labels[i]
		in.CharLimit = 64
		inputs[i] = in
	}
	inputs[fieldName].Focus()

	return formModel{target: target, inputs: inputs}
}

func (f *formModel) focusNext() {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + 1) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

func (f *formModel) lastFieldFocused() bool {
	return f.focus == len(f.inputs)-1
}

func (f *formModel) update(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// submit validates the field values and records the entry through the app.
func (f formModel) submit(ctx context.Context, app *client.App) error {
	name := strings.TrimSpace(f.inputs[fieldName].Value())
	if name == "" {
		return errors.New("name is required")
	}
	category := strings.TrimSpace(f.inputs[fieldCategory].Value())

	amount, err := decimal.NewFromString(strings.TrimSpace(f.inputs[fieldAmount].Value()))
	if err != nil {
		return errors.New("amount must be a decimal number")
	}
	if amount.IsNegative() {
		return errors.New("amount must not be negative")
	}

	extra := strings.TrimSpace(f.inputs[fieldExtra].Value())

	if f.target == tabBudgets {
		if len(extra) != 7 || extra[4] != '-' {
			return errors.New("month must use the YYYY-MM form")
		}
		_, err = app.RecordBudget(ctx, name, category, amount, extra)
		return err
	}

	dueDay, err := strconv.Atoi(extra)
	if err != nil || dueDay < 1 || dueDay > 31 {
		return errors.New("due day must be a number between 1 and 31")
	}
	_, err = app.RecordBill(ctx, name, category, amount, dueDay)
	return err
}

func (f formModel) view() string {
	var b strings.Builder

	if f.target == tabBudgets {
		b.WriteString("new budget\n\n")
	} else {
		b.WriteString("new bill\n\n")
	}

	for i := range f.inputs {
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
	}

	b.WriteString("\n" + helpStyle.Render("tab next field  enter save  esc cancel"))
	return b.String()
}
