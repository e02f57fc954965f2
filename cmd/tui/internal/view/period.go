package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Period is a predefined or custom VAT reporting range.
type Period int

const (
	PeriodThisMonth Period = iota
	PeriodLastMonth
	PeriodThisQuarter
	PeriodLastQuarter
	PeriodThisYear
	PeriodAll
	PeriodCustom
)

func (p Period) String() string {
	switch p {
	case PeriodThisMonth:
		return "This Month"
	case PeriodLastMonth:
		return "Last Month"
	case PeriodThisQuarter:
		return "This Quarter"
	case PeriodLastQuarter:
		return "Last Quarter"
	case PeriodThisYear:
		return "This Year"
	case PeriodAll:
		return "All Time"
	case PeriodCustom:
		return "Custom Range"
	}

	return "Unknown"
}

// PeriodRange returns the first and last day of p relative to now. Both are
// zero for PeriodAll and PeriodCustom.
func PeriodRange(p Period, now time.Time) (time.Time, time.Time) {
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	quarter := time.Date(now.Year(), now.Month()-(now.Month()-1)%3, 1, 0, 0, 0, 0, time.UTC)

	switch p {
	case PeriodThisMonth:
		return month, month.AddDate(0, 1, -1)
	case PeriodLastMonth:
		return month.AddDate(0, -1, 0), month.AddDate(0, 0, -1)
	case PeriodThisQuarter:
		return quarter, quarter.AddDate(0, 3, -1)
	case PeriodLastQuarter:
		return quarter.AddDate(0, -3, 0), quarter.AddDate(0, 0, -1)
	case PeriodThisYear:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, -1)
	}

	return time.Time{}, time.Time{}
}

// PeriodSelectedMsg is emitted once a range is chosen. Start and End are nil
// when the whole history was selected.
type PeriodSelectedMsg struct {
	Label string
	Start *time.Time
	End   *time.Time
}

type periodState int

const (
	periodStateSelect periodState = iota
	periodStateCustom
)

// PeriodPicker selects the date range of a report.
type PeriodPicker struct {
	state    periodState
	selected Period

	startInput textinput.Model
	endInput   textinput.Model
	focusIndex int

	now func() time.Time
	err error
}

func NewPeriodPicker() PeriodPicker {
	si := textinput.New()
	si.Placeholder = "YYYY-MM-DD"
	si.CharLimit = 10
	si.Width = 12
	si.Prompt = "Start Date: "

	ei := textinput.New()
	ei.Placeholder = "YYYY-MM-DD"
	ei.CharLimit = 10
	ei.Width = 12
	ei.Prompt = "End Date:   "

	return PeriodPicker{
		selected:   PeriodLastMonth,
		startInput: si,
		endInput:   ei,
		now:        time.Now,
	}
}

func (m PeriodPicker) Update(msg tea.Msg) (PeriodPicker, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch m.state {
		case periodStateSelect:
			return m.updateSelect(key)
		case periodStateCustom:
			if next, cmd, handled := m.updateCustom(key); handled {
				return next, cmd
			}
		}
	}

	if m.state == periodStateCustom {
		var cmds []tea.Cmd
		var c tea.Cmd

		m.startInput, c = m.startInput.Update(msg)
		cmds = append(cmds, c)
		m.endInput, c = m.endInput.Update(msg)
		cmds = append(cmds, c)

		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m PeriodPicker) updateSelect(msg tea.KeyMsg) (PeriodPicker, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.selected > PeriodThisMonth {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < PeriodCustom {
			m.selected++
		}
	case tea.KeyEnter:
		switch m.selected {
		case PeriodCustom:
			m.state = periodStateCustom
			m.focusIndex = 0
			m.startInput.Focus()

			return m, textinput.Blink
		case PeriodAll:
			return m, selected(PeriodSelectedMsg{Label: m.selected.String()})
		}

		start, end := PeriodRange(m.selected, m.now())

		return m, selected(PeriodSelectedMsg{Label: m.selected.String(), Start: &start, End: &end})
	}

	return m, nil
}

func (m PeriodPicker) updateCustom(msg tea.KeyMsg) (PeriodPicker, tea.Cmd, bool) {
	switch msg.String() {
	case "tab", "shift+tab":
		m.focusIndex = (m.focusIndex + 1) % 2
		m.startInput.Blur()
		m.endInput.Blur()

		if m.focusIndex == 0 {
			m.startInput.Focus()
		} else {
			m.endInput.Focus()
		}

		return m, textinput.Blink, true
	case "enter":
		start, err := time.Parse(time.DateOnly, m.startInput.Value())
		if err != nil {
			m.err = fmt.Errorf("invalid start date (YYYY-MM-DD)")
			return m, nil, true
		}

		end, err := time.Parse(time.DateOnly, m.endInput.Value())
		if err != nil {
			m.err = fmt.Errorf("invalid end date (YYYY-MM-DD)")
			return m, nil, true
		}

		if end.Before(start) {
			m.err = fmt.Errorf("end date is before start date")
			return m, nil, true
		}

		m.err = nil
		label := FormatDate(start) + " – " + FormatDate(end)

		return m, selected(PeriodSelectedMsg{Label: label, Start: &start, End: &end}), true
	case "esc":
		m.state = periodStateSelect
		m.err = nil

		return m, nil, true
	}

	return m, nil, false
}

func selected(msg PeriodSelectedMsg) tea.Cmd {
	return func() tea.Msg { return msg }
}

func (m PeriodPicker) View() string {
	errStr := ""
	if m.err != nil {
		errStr = errorStyle(fmt.Sprintf("\n\nError: %v", m.err))
	}

	if m.state == periodStateCustom {
		return fmt.Sprintf(
			"Enter Custom Range:\n\n%s\n%s\n\n(Enter to confirm, Tab to switch, Esc to back)%s",
			m.startInput.View(),
			m.endInput.View(),
			errStr,
		)
	}

	s := "Select Period:\n\n"
	for p := PeriodThisMonth; p <= PeriodCustom; p++ {
		cursor := " "
		if m.selected == p {
			cursor = ">"
		}

		s += fmt.Sprintf("%s %s\n", cursor, p.String())
	}

	s += "\n(Enter to select, Esc to back)"

	return s + errStr
}

// IsSelecting reports whether the picker shows the preset list.
func (m PeriodPicker) IsSelecting() bool {
	return m.state == periodStateSelect
}
