package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/synqronlabs/mailaudit"
	"github.com/synqronlabs/mailaudit/rules"
)

// Styles for terminal output.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14")).
			MarginTop(1)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	missingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	gradeStyles = map[string]lipgloss.Style{
		"A": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		"B": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		"C": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		"D": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		"F": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}

	criticalStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	importantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	infoTierStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
)

func statusStyle(s mailaudit.Status) lipgloss.Style {
	switch s {
	case mailaudit.StatusValid:
		return okStyle
	case mailaudit.StatusMissing:
		return missingStyle
	}
	return errStyle
}

func tierStyle(t rules.Tier) lipgloss.Style {
	switch t {
	case rules.TierCritical:
		return criticalStyle
	case rules.TierImportant:
		return importantStyle
	}
	return infoTierStyle
}

func renderReport(report *mailaudit.Report) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Email Security Report: "+report.Domain) + "\n")

	grade := gradeStyles[report.Score.Grade]
	sb.WriteString(fmt.Sprintf("Score: %s  Grade: %s  Provider: %s\n",
		grade.Render(fmt.Sprintf("%.1f/100", report.Score.Score)),
		grade.Render(report.Score.Grade+" ("+report.Score.Status+")"),
		report.Provider))
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("Scan %s completed in %s", report.ID, report.Duration.Round(time.Millisecond))) + "\n")

	sb.WriteString(sectionStyle.Render("Components") + "\n")
	writeComponent(&sb, report, "MX", "mx", string(report.MX.Status), report.MX.Description)
	writeComponent(&sb, report, "SPF", "spf", string(report.SPF.Status), report.SPF.Description)
	writeComponent(&sb, report, "DMARC", "dmarc", string(report.DMARC.Status), report.DMARC.Description)
	writeComponent(&sb, report, "DKIM", "dkim", string(report.DKIM.Status), report.DKIM.Description)

	if len(report.DKIM.Selectors) > 0 {
		sb.WriteString(sectionStyle.Render("DKIM Selectors") + "\n")
		for _, s := range report.DKIM.Selectors {
			detail := string(s.Source)
			if s.KeyType != "" {
				detail += fmt.Sprintf(", %s %d bits, %s", s.KeyType, s.KeyBits, s.Strength)
			}
			sb.WriteString(fmt.Sprintf("  %s %s\n", okStyle.Render(s.Selector), mutedStyle.Render("("+detail+")")))
		}
		sb.WriteString(mutedStyle.Render(fmt.Sprintf(
			"  checked %d of %d candidates in %s",
			report.DKIM.Analytics.Checked,
			report.DKIM.Analytics.TotalAvailable,
			report.DKIM.Analytics.Duration.Round(time.Millisecond))) + "\n")
	}

	if len(report.Recommendations) > 0 {
		sb.WriteString(sectionStyle.Render("Recommendations") + "\n")
		for _, rec := range report.Recommendations {
			sb.WriteString(fmt.Sprintf("  %s %s\n",
				tierStyle(rec.Tier).Render("["+strings.ToUpper(string(rec.Tier))+"]"),
				rec.Title))
			sb.WriteString("    " + mutedStyle.Render(rec.Description) + "\n")
			if rec.Example != "" {
				sb.WriteString("    " + mutedStyle.Render("e.g. "+rec.Example) + "\n")
			}
		}
	}

	return sb.String()
}

func writeComponent(sb *strings.Builder, report *mailaudit.Report, label, key, status, description string) {
	comp := report.Score.Components[key]
	sb.WriteString(fmt.Sprintf("  %-6s %s  %s\n",
		label,
		statusStyle(mailaudit.Status(status)).Render(fmt.Sprintf("%-8s", status)),
		mutedStyle.Render(fmt.Sprintf("%.1f pts | %s", comp.Total, description))))
}

func renderDKIMSection(domain string, section *mailaudit.DKIMSection) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("DKIM Scan: "+domain) + "\n")
	sb.WriteString(statusStyle(section.Status).Render(string(section.Status)) + "  " + section.Description + "\n")

	for _, s := range section.Selectors {
		sb.WriteString(fmt.Sprintf("  %s %s\n", okStyle.Render(s.Selector), mutedStyle.Render(s.Record)))
	}
	sb.WriteString(mutedStyle.Render(fmt.Sprintf(
		"checked %d candidates (%d custom, %d admin, %d discovered, %d brute force) in %s",
		section.Analytics.Checked,
		section.Analytics.Counts.Custom,
		section.Analytics.Counts.Admin,
		section.Analytics.Counts.Discovered,
		section.Analytics.Counts.BruteForce,
		section.Analytics.Duration.Round(time.Millisecond))) + "\n")
	return sb.String()
}
