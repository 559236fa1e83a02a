package chat

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"symptrack/internal/core"
	"symptrack/pkg"
)

// AnalyzingPlaceholder is shown while a call is in flight.
const AnalyzingPlaceholder = "Analyzing your symptoms..."

// RiskColor picks the badge color for a risk level.
func RiskColor(risk pkg.RiskLevel) *color.Color {
	switch risk {
	case pkg.RiskHigh:
		return color.New(color.FgRed, color.Bold)
	case pkg.RiskLow:
		return color.New(color.FgGreen, color.Bold)
	default:
		return color.New(color.FgWhite)
	}
}

// RiskBadge renders risk as a colored "[label]".
func RiskBadge(risk pkg.RiskLevel) string {
	return RiskColor(risk).Sprintf("[%s]", risk)
}

// RenderTranscript writes the conversation and, while loading, the
// placeholder.
func RenderTranscript(w io.Writer, s State) {
	you := color.New(color.FgCyan, color.Bold)
	bot := color.New(color.FgMagenta, color.Bold)
	for _, m := range s.Transcript {
		if m.Role == pkg.RoleUser {
			fmt.Fprintf(w, "%s %s\n", you.Sprint("you>"), m.Content)
		} else {
			fmt.Fprintf(w, "%s %s\n", bot.Sprint("bot>"), m.Content)
		}
	}
	if s.Loading {
		fmt.Fprintf(w, "%s %s\n", bot.Sprint("bot>"), color.HiBlackString(AnalyzingPlaceholder))
	}
}

// RenderHistory writes past entries newest first, relabelling dates
// against now.
func RenderHistory(w io.Writer, now time.Time, history []pkg.ChatEntry) {
	if len(history) == 0 {
		fmt.Fprintln(w, color.HiBlackString("No past entries yet."))
		return
	}
	for _, e := range history {
		fmt.Fprintf(w, "%-12s %s %s\n", RelativeDate(now, e.CreatedAt), RiskBadge(e.Risk), e.Disease)
		fmt.Fprintf(w, "             %s\n", color.HiBlackString(e.Symptoms))
	}
}

// SummaryView is the summary of the latest analysis.
type SummaryView struct {
	Date     string `json:"date" yaml:"date"`
	Symptoms string `json:"symptoms" yaml:"symptoms"`

	core.Summary `yaml:",inline"`
}

// Summarize combines a history entry with its result.
func Summarize(entry pkg.ChatEntry, result pkg.AnalysisResult) SummaryView {
	return SummaryView{
		Date:     entry.Date,
		Symptoms: entry.Symptoms,
		Summary:  core.Summarize(result),
	}
}

// RenderSummary writes the summary view.
func RenderSummary(w io.Writer, v SummaryView) {
	heading := color.New(color.FgWhite, color.Bold)
	heading.Fprintln(w, "Today's Health Summary")
	fmt.Fprintf(w, "  Date:       %s\n", v.Date)
	fmt.Fprintf(w, "  Symptoms:   %s\n", v.Symptoms)
	fmt.Fprintf(w, "  Condition:  %s\n", v.Disease)
	fmt.Fprintf(w, "  Risk:       %s\n\n", RiskBadge(v.RiskLevel))
	heading.Fprintln(w, "AI Summary")
	fmt.Fprintln(w, indent(v.AISummary, "  "))
	fmt.Fprintln(w)
	heading.Fprintln(w, "Suggestion")
	fmt.Fprintln(w, indent(v.Suggestion, "  "))
}

// RenderResult writes a one-shot analysis for the terminal.
func RenderResult(w io.Writer, res *pkg.AnalysisResult) {
	fmt.Fprintln(w)
	color.New(color.FgCyan, color.Bold).Fprint(w, "Possible condition: ")
	fmt.Fprintf(w, "%s  %s\n\n", res.Disease, RiskBadge(res.Risk))
	fmt.Fprintln(w, indent(res.Analysis, "  "))
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintln(w, color.HiBlackString("Not a diagnosis. Run with -o json or -o yaml for machine-readable output."))
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
