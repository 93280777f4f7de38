package prex

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	ruleStyle     = color.New(color.FgCyan, color.Bold)
	validStyle    = color.New(color.FgGreen, color.Bold)
	partialStyle  = color.New(color.FgYellow)
	finalStyle    = color.New(color.FgGreen)
	coverageStyle = color.New(color.FgHiBlue)
)

// FormatReport renders one rule's inference results for the console.
func FormatReport(report Report) string {
	var builder strings.Builder

	builder.WriteString(ruleStyle.Sprintf("rule: %s\n", report.Rule))

	if report.Valid {
		builder.WriteString("  ")
		builder.WriteString(validStyle.Sprint("valid without a precondition"))
		builder.WriteString("\n")
		return builder.String()
	}

	for _, pre := range report.Preconditions {
		builder.WriteString("  ")
		if pre.Final {
			builder.WriteString(finalStyle.Sprintf("pre: %s", pre.Pre))
		} else {
			builder.WriteString(partialStyle.Sprintf("partial: %s", pre.Pre))
		}
		builder.WriteString(coverageStyle.Sprintf("  (covers %d)", pre.Coverage))
		builder.WriteString("\n")
	}
	if n := len(report.Preconditions); n == 0 || !report.Preconditions[n-1].Final {
		builder.WriteString("  ")
		builder.WriteString(partialStyle.Sprint("no complete precondition found"))
		builder.WriteString("\n")
	}
	return builder.String()
}

// FormatReports renders all reports, separated by blank lines.
func FormatReports(reports []Report) string {
	parts := make([]string, len(reports))
	for i, r := range reports {
		parts[i] = FormatReport(r)
	}
	return strings.Join(parts, "\n")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
