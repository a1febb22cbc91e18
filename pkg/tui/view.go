package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"spyglass-hq/spyglass/pkg/txstore"
)

// tabDefs drives the header tab bar, in display order.
var tabDefs = []struct {
	tab   Tab
	label string
}{
	{TabStats, "1:Stats"},
	{TabRequests, "2:Requests"},
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	var content []string
	switch m.activeTab {
	case TabStats:
		content = m.renderStatsTab()
	case TabRequests:
		content = m.renderRequestsTab()
	}
	sections = append(sections, padLines(content, m.contentHeight())...)

	sections = append(sections, m.renderStatusBar())
	sections = append(sections, m.renderHelp())

	return strings.Join(sections, "\n")
}

// contentHeight is the number of lines between the tab bar and the
// status bar.
func (m Model) contentHeight() int {
	height := m.height - 3
	if height < 1 {
		height = 1
	}
	return height
}

// padLines extends lines with blanks to exactly count entries so the
// status and help bars stay pinned to the bottom of the screen.
func padLines(lines []string, count int) []string {
	if len(lines) > count {
		return lines[:count]
	}
	for len(lines) < count {
		lines = append(lines, "")
	}
	return lines
}

// renderHeader renders the tab bar as a single line in the btop style:
// tab labels embedded in a horizontal rule with a traffic summary on
// the right.
//
// Example: ─── 1:Stats ─── 2:Requests ────── 42 requests  3 active ─
func (m Model) renderHeader() string {
	separatorStyle := lipgloss.NewStyle().
		Foreground(m.theme.BorderColor)
	activeStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.theme.HeaderForeground)
	inactiveStyle := lipgloss.NewStyle().
		Foreground(m.theme.FaintText)
	summaryStyle := lipgloss.NewStyle().
		Foreground(m.theme.FaintText)

	left := separatorStyle.Render("───")
	width := 3

	for index, tabDef := range tabDefs {
		if m.activeTab == tabDef.tab {
			left += " " + activeStyle.Render(tabDef.label) + " "
		} else {
			left += " " + inactiveStyle.Render(tabDef.label) + " "
		}
		width += 2 + lipgloss.Width(tabDef.label)

		sepCount := 3
		if index == len(tabDefs)-1 {
			sepCount = 1
		}
		left += separatorStyle.Render(strings.Repeat("─", sepCount))
		width += sepCount
	}

	summaryText := fmt.Sprintf("%d requests  %d active",
		m.stats.Requests.TotalRequests, m.stats.Requests.ActiveRequests)
	right := " " + summaryStyle.Render(summaryText) + " " + separatorStyle.Render("─")
	rightWidth := 1 + lipgloss.Width(summaryText) + 1 + 1

	fillCount := m.width - width - rightWidth
	if fillCount < 1 {
		fillCount = 1
	}
	fill := strings.Repeat("─", fillCount)

	return left + separatorStyle.Render(fill) + right
}

// renderStatsTab renders the aggregate counters and the per-upstream
// health table.
func (m Model) renderStatsTab() []string {
	if !m.connected {
		return []string{"", "  waiting for control API…"}
	}

	headingStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.theme.HeaderForeground)
	labelStyle := lipgloss.NewStyle().
		Foreground(m.theme.FaintText)
	valueStyle := lipgloss.NewStyle().
		Foreground(m.theme.NormalText)

	row := func(label, value string) string {
		return "  " + labelStyle.Render(fmt.Sprintf("%-16s", label)) + valueStyle.Render(value)
	}

	requests := m.stats.Requests
	lines := []string{
		"",
		headingStyle.Render("  Requests"),
		row("total", strconv.FormatInt(requests.TotalRequests, 10)),
		row("active", strconv.FormatInt(requests.ActiveRequests, 10)),
		row("success", strconv.FormatInt(requests.SuccessfulRequests, 10)),
		row("failed", strconv.FormatInt(requests.FailedRequests, 10)),
		row("cancelled", strconv.FormatInt(requests.CancelledRequests, 10)),
		"",
		headingStyle.Render("  Traffic"),
		row("request bytes", humanBytes(requests.RequestBytes)),
		row("response bytes", humanBytes(requests.ResponseBytes)),
		"",
		headingStyle.Render("  Upstreams"),
	}

	if len(m.stats.Upstreams) == 0 {
		lines = append(lines, labelStyle.Render("  none configured"))
		return lines
	}

	urlWidth := m.width - 34
	if urlWidth < 20 {
		urlWidth = 20
	}

	lines = append(lines, labelStyle.Render(
		fmt.Sprintf("  %-*s  %-8s  %9s  %9s", urlWidth, "URL", "STATUS", "FAILURES", "COOLDOWN")))

	for _, upstream := range m.stats.Upstreams {
		statusStyle := lipgloss.NewStyle().Foreground(m.theme.HealthColor(upstream.Status))

		cooldown := "-"
		if upstream.Status == "cooling" {
			remaining := time.Until(upstream.CooldownExpiry).Round(time.Second)
			if remaining < 0 {
				remaining = 0
			}
			cooldown = remaining.String()
		}

		lines = append(lines, fmt.Sprintf("  %s  %s  %s  %s",
			valueStyle.Render(fmt.Sprintf("%-*s", urlWidth, truncate(upstream.URL, urlWidth))),
			statusStyle.Render(fmt.Sprintf("%-8s", upstream.Status)),
			valueStyle.Render(fmt.Sprintf("%9d", upstream.ConsecutiveFailures)),
			valueStyle.Render(fmt.Sprintf("%9s", cooldown)),
		))
	}

	return lines
}

// renderRequestsTab renders the transaction table with the selected row
// highlighted.
func (m Model) renderRequestsTab() []string {
	labelStyle := lipgloss.NewStyle().Foreground(m.theme.FaintText)

	pathWidth := m.width - 69
	if pathWidth < 10 {
		pathWidth = 10
	}

	lines := []string{labelStyle.Render(fmt.Sprintf("  %6s  %-8s  %-7s  %-*s  %6s  %9s  %s",
		"ID", "TIME", "METHOD", pathWidth, "HOST+PATH", "STATUS", "DURATION", "OUTCOME"))}

	if !m.connected {
		return append(lines, "", "  waiting for control API…")
	}
	if len(m.transactions) == 0 {
		return append(lines, "", labelStyle.Render("  no transactions yet"))
	}

	end := m.scrollOffset + m.visibleRows()
	if end > len(m.transactions) {
		end = len(m.transactions)
	}

	for index := m.scrollOffset; index < end; index++ {
		lines = append(lines, m.renderTransactionRow(m.transactions[index], index == m.cursor, pathWidth))
	}

	return lines
}

// renderTransactionRow renders one transaction line. Selected rows use
// a uniform highlight; normal rows color the outcome column.
func (m Model) renderTransactionRow(tx txstore.Transaction, selected bool, pathWidth int) string {
	marker := " "
	if tx.ReplayOf != 0 {
		marker = "↻"
	}

	hostPath := tx.Host + tx.Path
	if tx.Query != "" {
		hostPath += "?" + tx.Query
	}

	status := "-"
	if tx.Status != 0 {
		status = strconv.Itoa(tx.Status)
	}

	left := fmt.Sprintf("%s %6d  %s  %-7s  %-*s  %6s  %9s  ",
		marker,
		tx.ID,
		tx.StartTime.Format("15:04:05"),
		truncate(tx.Method, 7),
		pathWidth, truncate(hostPath, pathWidth),
		status,
		formatDuration(tx.DurationMillis),
	)

	if selected {
		return lipgloss.NewStyle().
			Background(m.theme.SelectedBackground).
			Foreground(m.theme.SelectedForeground).
			Render(left + string(tx.Outcome))
	}

	outcomeStyle := lipgloss.NewStyle().Foreground(m.theme.OutcomeColor(tx.Outcome))
	return lipgloss.NewStyle().Foreground(m.theme.NormalText).Render(left) +
		outcomeStyle.Render(string(tx.Outcome))
}

// renderStatusBar renders the line above the help bar: poll errors keep
// priority over replay notices; an idle bar shows the last update time.
func (m Model) renderStatusBar() string {
	switch {
	case m.pollError != "":
		return lipgloss.NewStyle().
			Foreground(m.theme.ErrorText).
			Render(" ⚠ " + truncate(m.pollError, m.width-4))

	case m.notice != "":
		color := m.theme.NoticeText
		if m.noticeIsErr {
			color = m.theme.ErrorText
		}
		return lipgloss.NewStyle().
			Foreground(color).
			Render(" " + truncate(m.notice, m.width-2))

	case m.connected:
		return lipgloss.NewStyle().
			Foreground(m.theme.FaintText).
			Render(fmt.Sprintf(" last update %s", m.lastUpdate.Format("15:04:05")))

	default:
		return lipgloss.NewStyle().
			Foreground(m.theme.FaintText).
			Render(" connecting…")
	}
}

// renderHelp renders the bottom help bar with key hints and position.
func (m Model) renderHelp() string {
	style := lipgloss.NewStyle().Foreground(m.theme.HelpText)

	tabName := "STATS"
	if m.activeTab == TabRequests {
		tabName = "REQUESTS"
	}

	help := fmt.Sprintf(" [%s] q quit  1/2/Tab tabs", tabName)
	if m.activeTab == TabRequests {
		help += "  ↑↓ navigate  r replay"

		if len(m.transactions) > 0 {
			help += fmt.Sprintf("  %d/%d", m.cursor+1, len(m.transactions))
		}
	}

	return style.Render(help)
}

// truncate shortens text to at most width cells, ending with an
// ellipsis when something was cut.
func truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(text) <= width {
		return text
	}

	runes := []rune(text)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// humanBytes formats a byte count for display.
func humanBytes(count int64) string {
	const unit = 1024
	if count < unit {
		return fmt.Sprintf("%d B", count)
	}
	div, exp := int64(unit), 0
	for n := count / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(count)/float64(div), "KMGTPE"[exp])
}

// formatDuration renders a millisecond duration compactly: sub-second
// values in whole milliseconds, the rest in seconds with one decimal.
func formatDuration(millis int64) string {
	if millis < 1000 {
		return fmt.Sprintf("%dms", millis)
	}
	return fmt.Sprintf("%.1fs", float64(millis)/1000)
}
