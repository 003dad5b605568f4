package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/flowgate/internal/state"
)

func (m Model) renderMain() string {
	styles := m.theme.Styles()
	sections := []string{
		m.renderHeader(styles),
		m.renderStatus(styles),
	}
	if m.rating {
		sections = append(sections, styles.Banner.Render("Enjoying the app? Leave a rating! (any key to dismiss)"))
	}
	if m.editing {
		sections = append(sections, m.input.View())
	}
	if m.showLogs {
		sections = append(sections, m.logView.View())
	}
	sections = append(sections, styles.Footer.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader(styles Styles) string {
	parts := []string{
		styles.Logo.Render("flowgate"),
		styles.ModeStyle(m.snapshot.Mode).Render(strings.ToUpper(m.snapshot.Mode.String())),
	}
	if m.snapshot.Loading {
		parts = append(parts, m.spinner.View()+styles.MutedText.Render(" preparing"))
	}
	if !m.lastUpdated.IsZero() {
		parts = append(parts, styles.FaintText.Render("updated "+m.lastUpdated.Format("15:04:05")))
	}
	line := strings.Join(parts, " ")
	if m.width > 0 {
		return styles.Header.Width(m.width).Render(line)
	}
	return styles.Header.Render(line)
}

func (m Model) renderStatus(styles Styles) string {
	s := m.snapshot
	width := max(m.width-24, 20)

	endpoint := styles.MutedText.Render("none")
	if s.HasEndpoint {
		endpoint = styles.AccentText.Render(truncateMiddle(s.Endpoint, width))
	}

	rows := [][2]string{
		{"Mode", modeLabel(styles, s.Mode)},
		{"Endpoint", endpoint},
		{"Loading", yesNo(styles, s.Loading)},
		{"Rating", ternary(s.RatingRequested, styles.SuccessText.Render("requested"), styles.MutedText.Render("not yet"))},
	}
	if m.lastReport != "" {
		rows = append(rows, [2]string{"Last report", styles.Text.Render(truncateMiddle(m.lastReport, width))})
	}

	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s", styles.MutedText.Render(padRight(row[0]+":", 13)), row[1])
	}
	return styles.Panel.Render(b.String())
}

func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	title := styles.Logo.Render("flowgate") + styles.MutedText.Render(" keys")
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		m.help.View(m.keys),
		"",
		styles.FaintText.Render("press any key to close"),
	)
}

func (m Model) renderLogEntries() string {
	styles := m.theme.Styles()
	if len(m.logEntries) == 0 {
		return styles.FaintText.Render("no log output yet")
	}
	lines := make([]string, 0, len(m.logEntries))
	for _, e := range m.logEntries {
		var parts []string
		if e.Time != "" {
			parts = append(parts, styles.FaintText.Render(e.Time))
		}
		if e.Level != "" {
			parts = append(parts, levelStyle(styles, e.Level).Render(padRight(e.Level, 5)))
		}
		if e.Logger != "" {
			parts = append(parts, styles.AccentText.Render("["+e.Logger+"]"))
		}
		parts = append(parts, styles.Text.Render(e.Message))
		if len(e.Fields) > 0 {
			parts = append(parts, styles.MutedText.Render(strings.Join(e.Fields, " ")))
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n")
}

func levelStyle(styles Styles, level string) lipgloss.Style {
	switch level {
	case "ERROR", "DPANIC", "PANIC", "FATAL":
		return styles.DangerText
	case "WARN":
		return styles.WarningText
	case "INFO":
		return styles.SuccessText
	default:
		return styles.MutedText
	}
}

func modeLabel(styles Styles, mode state.Mode) string {
	switch mode {
	case state.ModeWebContent:
		return styles.SuccessText.Render("web content")
	case state.ModeOriginal:
		return styles.Text.Render("original content")
	default:
		return styles.WarningText.Render("preparing")
	}
}

func yesNo(styles Styles, v bool) string {
	if v {
		return styles.WarningText.Render("yes")
	}
	return styles.MutedText.Render("no")
}
