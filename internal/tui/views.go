package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/edupay/internal/cli"
	"github.com/Veraticus/edupay/internal/model"
	"github.com/Veraticus/edupay/internal/query"
)

// chromeLines is the number of lines around the table.
const chromeLines = 9

var columnTitles = map[query.SortKey]string{
	query.SortCollectID:         "Collect ID",
	query.SortSchoolID:          "School",
	query.SortGateway:           "Gateway",
	query.SortOrderAmount:       "Order Amt",
	query.SortTransactionAmount: "Txn Amt",
	query.SortStatus:            "Status",
	query.SortCustomOrderID:     "Order ID",
	query.SortPaymentTime:       "Payment Time",
}

// columnWeights split the available width in query.SortKeys order.
var columnWeights = []int{14, 20, 10, 11, 11, 8, 12, 14}

func tableHeight(height int) int {
	return max(3, height-chromeLines)
}

// columns lays out one column per sortable field and marks the sorted one.
func columns(state query.State, width int) []table.Column {
	total := 0
	for _, w := range columnWeights {
		total += w
	}
	usable := max(width-2*len(columnWeights), total)

	cols := make([]table.Column, len(query.SortKeys))
	for i, k := range query.SortKeys {
		title := columnTitles[k]
		if k == state.SortKey {
			if state.SortOrder == query.Desc {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		cols[i] = table.Column{Title: title, Width: columnWeights[i] * usable / total}
	}
	return cols
}

func rows(items []model.Transaction) []table.Row {
	out := make([]table.Row, 0, len(items))
	for _, txn := range items {
		out = append(out, table.Row{
			txn.CollectID,
			txn.SchoolName(),
			txn.Gateway,
			cli.FormatAmount(txn.OrderAmount),
			cli.FormatAmount(txn.TransactionAmount),
			txn.Status.Label(),
			txn.CustomOrderID,
			cli.FormatTime(txn.PaymentTime),
		})
	}
	return out
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch m.mode {
	case modeDetail:
		b.WriteString(m.renderDetail())
	case modeHelp:
		h := m.help
		h.ShowAll = true
		b.WriteString(h.View(m.keymap))
	default:
		b.WriteString(m.table.View())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.theme.Title.Render(cli.SchoolIcon + " " + m.config.Title)
	if m.loading {
		title += " " + m.theme.Subtitle.Render("loading…")
	}

	var chips []string
	s := m.state
	if s.Search != "" {
		chips = append(chips, fmt.Sprintf("search: %q", s.Search))
	}
	if len(s.Statuses) > 0 {
		labels := make([]string, len(s.Statuses))
		for i, st := range s.Statuses {
			labels[i] = st.Label()
		}
		chips = append(chips, "status: "+strings.Join(labels, ", "))
	}
	if len(s.Schools) > 0 {
		names := make([]string, len(s.Schools))
		for i, id := range s.Schools {
			names[i] = model.SchoolName(id)
		}
		chips = append(chips, "school: "+strings.Join(names, ", "))
	}
	if r := formatRange(s); r != "" {
		chips = append(chips, "dates: "+r)
	}

	line := m.theme.Subtitle.Render("no filters")
	if len(chips) > 0 {
		rendered := make([]string, len(chips))
		for i, c := range chips {
			rendered[i] = m.theme.Chip.Render(c)
		}
		line = lipgloss.JoinHorizontal(lipgloss.Center, rendered...)
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, line)
}

func (m Model) renderDetail() string {
	var b strings.Builder
	if err := cli.WriteTransactionDetail(&b, m.detail); err != nil {
		return m.theme.ErrorLine.Render(err.Error())
	}
	return m.theme.Detail.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Bold.Render("Transaction "+m.detail.CollectID),
			m.statusStyle(m.detail.Status).Render(m.detail.Status.Label()),
			"",
			b.String(),
		))
}

func (m Model) statusStyle(s model.Status) lipgloss.Style {
	switch s {
	case model.StatusSuccess:
		return m.theme.StatusSuccess
	case model.StatusPending:
		return m.theme.StatusPending
	case model.StatusFailed:
		return m.theme.StatusError
	default:
		return m.theme.Subtitle
	}
}

func (m Model) renderFooter() string {
	lines := []string{m.theme.Subtitle.Render(
		fmt.Sprintf("%s · %d per page · history %s%s",
			cli.PageFooter(m.view), m.state.Limit, arrow(m.history.CanBack(), "◀"), arrow(m.history.CanForward(), "▶")),
	)}

	if m.err != nil {
		lines = append(lines, m.theme.ErrorLine.Render(cli.ErrorIcon+" "+m.err.Error()))
	}

	switch m.mode {
	case modeSearch, modeDate:
		lines = append(lines, m.input.View())
	default:
		if m.config.ShowHelp {
			lines = append(lines, m.help.View(m.keymap))
		}
	}

	return strings.Join(lines, "\n")
}

func arrow(enabled bool, glyph string) string {
	if enabled {
		return glyph
	}
	return "·"
}
