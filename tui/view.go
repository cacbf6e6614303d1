package tui

import (
	"fmt"
	"strings"

	"pustaka/session"
	"pustaka/types"
)

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("📚 Pustaka+ Book Briefs"))
	b.WriteString("\n\n")

	switch m.Screen {
	case ScreenLookup:
		m.renderLookup(&b)
	case ScreenVerified:
		m.renderVerified(&b)
	case ScreenGenerating:
		m.renderGenerating(&b)
	default:
		m.renderLibrary(&b)
	}

	if m.Err != nil {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render("✗ " + m.Err.Error()))
		b.WriteString("\n")
	}

	if len(m.Logs) > 0 {
		b.WriteString("\n")
		b.WriteString(InfoStyle.Render("📝 Recent Activity:"))
		b.WriteString("\n")
		for _, logMsg := range m.Logs {
			b.WriteString(InfoStyle.Render("   " + logMsg))
			b.WriteString("\n")
		}
	}

	return b.String()
}

var fieldLabels = [fieldCount]string{"Title", "Author", "ISBN"}

// shortDate trims an RFC 3339 timestamp to its date part for display
func shortDate(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

// renderLookup draws the book lookup form
func (m Model) renderLookup(b *strings.Builder) {
	b.WriteString(InfoStyle.Render("Identify the book to brief:"))
	b.WriteString("\n\n")
	for i, label := range fieldLabels {
		line := fmt.Sprintf("%-7s %s", label+":", m.Fields[i])
		if i == m.Focused {
			line += "▌"
			b.WriteString(HighlightStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render("tab: next field | enter: verify | esc: back"))
	b.WriteString("\n")
}

// renderVerified draws the verification outcome and duplicate warning
func (m Model) renderVerified(b *strings.Builder) {
	v := m.Verification
	if v == nil {
		return
	}

	switch v.Status {
	case types.VerificationSuccess:
		b.WriteString(StatusStyle.Render("✓ " + v.Message))
	case types.VerificationWarning:
		b.WriteString(WarningStyle.Render("⚠ " + v.Message))
	default:
		b.WriteString(ErrorStyle.Render("✗ " + v.Message))
	}
	b.WriteString("\n\n")

	for _, src := range v.Sources {
		line := fmt.Sprintf("   %s - %s (%s)", src.Title, src.Author, src.SourceName)
		b.WriteString(InfoStyle.Render(line))
		b.WriteString("\n")
	}

	if m.Duplicate != nil {
		b.WriteString("\n")
		warn := fmt.Sprintf("⚠ Already briefed with %s on %s",
			m.Duplicate.Variant.Model, shortDate(m.Duplicate.Variant.Timestamp))
		b.WriteString(WarningStyle.Render(warn))
		b.WriteString("\n")
		b.WriteString(InfoStyle.Render("g: generate anyway | v: view existing | esc: back"))
	} else {
		b.WriteString("\n")
		b.WriteString(InfoStyle.Render(fmt.Sprintf("g: generate brief with %s | esc: back", m.Config.Model)))
	}
	b.WriteString("\n")
}

// renderGenerating draws the live stream, final result included
func (m Model) renderGenerating(b *strings.Builder) {
	snap := m.Snapshot

	switch snap.State {
	case session.StateConnecting:
		b.WriteString(WarningStyle.Render("● " + snap.Status))
	case session.StateStreaming:
		label := snap.Status
		if snap.Progress > 0 {
			label = fmt.Sprintf("%s (%d%%)", snap.Status, snap.Progress)
		}
		b.WriteString(StatusStyle.Render("● " + label))
	case session.StateCompleted:
		b.WriteString(StatusStyle.Render("✓ Brief complete"))
	case session.StateAborted:
		b.WriteString(WarningStyle.Render("■ " + snap.Status))
	case session.StateFailed:
		b.WriteString(ErrorStyle.Render("✗ Generation failed"))
	}
	b.WriteString("\n\n")

	if snap.Content != "" {
		b.WriteString(ContentStyle.Render(snap.Content))
		b.WriteString("\n\n")
	}

	if m.Result != nil {
		m.renderStats(b, m.Result)
	}

	b.WriteString(m.generatingFooter(snap))
	b.WriteString("\n")
}

// renderStats draws the usage box under a finished brief
func (m Model) renderStats(b *strings.Builder, res *session.Result) {
	var lines []string
	lines = append(lines, fmt.Sprintf("Model: %s (%s)", res.Stats.Model, res.Stats.Provider))
	lines = append(lines, fmt.Sprintf("Tokens: %d prompt + %d completion = %d",
		res.Stats.Tokens.PromptTokens, res.Stats.Tokens.CompletionTokens, res.Stats.Tokens.TotalTokens))
	if res.Stats.CostEstimate.IsFree {
		lines = append(lines, "Cost: free")
	} else {
		lines = append(lines, fmt.Sprintf("Cost: %.6f %s",
			res.Stats.CostEstimate.TotalUSD, res.Stats.CostEstimate.Currency))
	}
	if res.Diversity != nil {
		lines = append(lines, fmt.Sprintf("Diversity: %.2f (%s)",
			res.Diversity.DiversityScore, res.Diversity.Interpretation))
	}
	if res.Synthesis != nil {
		lines = append(lines, fmt.Sprintf("Synthesized from %d briefs (%s)",
			res.Synthesis.SourceCount, strings.Join(res.Synthesis.SourceModels, ", ")))
	}
	b.WriteString(BoxStyle.Render(strings.Join(lines, "\n")))
	b.WriteString("\n\n")
}

// generatingFooter picks the key hints for the current session state
func (m Model) generatingFooter(snap session.Snapshot) string {
	switch snap.State {
	case session.StateCompleted:
		if m.Saved {
			return InfoStyle.Render("esc: back to library")
		}
		return InfoStyle.Render("s: save to archive | esc: discard")
	case session.StateFailed:
		if m.Synthesis == nil {
			return InfoStyle.Render("r: resume from partial | esc: back")
		}
		return InfoStyle.Render("esc: back")
	case session.StateAborted:
		return InfoStyle.Render("esc: back")
	default:
		return InfoStyle.Render("a: abort | esc: cancel and go back")
	}
}

// renderLibrary draws the saved archive browser
func (m Model) renderLibrary(b *strings.Builder) {
	if m.Store.Len() == 0 {
		b.WriteString(InfoStyle.Render("No saved briefs yet."))
		b.WriteString("\n\n")
		b.WriteString(InfoStyle.Render("n: new brief | r: refresh | q: quit"))
		b.WriteString("\n")
		return
	}

	i := 0
	for _, book := range m.Store.Books() {
		header := fmt.Sprintf("%s - %s", book.Title, book.Author)
		if book.ISBN != "" {
			header += "  (" + book.ISBN + ")"
		}
		b.WriteString(header)
		b.WriteString("\n")
		for _, v := range book.Variants {
			marker := "[ ]"
			if m.Selected[v.ID] {
				marker = "[x]"
			}
			line := fmt.Sprintf("  %s %s · %s · %d tokens",
				marker, v.Model, shortDate(v.Timestamp), v.UsageStats.Tokens.TotalTokens)
			if v.UsageStats.IsSynthesis {
				line += " · synthesis"
			}
			switch {
			case i == m.Cursor:
				b.WriteString(HighlightStyle.Render(line))
			case m.Selected[v.ID]:
				b.WriteString(SelectedStyle.Render(line))
			default:
				b.WriteString(InfoStyle.Render(line))
			}
			b.WriteString("\n")
			i++
		}
	}

	b.WriteString("\n")
	hints := "n: new brief | space: select | d: delete brief | D: delete book | r: refresh | q: quit"
	if len(m.Selected) >= 2 {
		hints = fmt.Sprintf("s: synthesize %d briefs | ", len(m.Selected)) + hints
	}
	b.WriteString(InfoStyle.Render(hints))
	b.WriteString("\n")
}
