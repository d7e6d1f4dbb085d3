// Package report renders estimation results for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/Dan9191/outbreak-estimator/internal/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle   = lipgloss.NewStyle().Width(34).Foreground(lipgloss.Color("#A0A0A0"))
	valueStyle   = lipgloss.NewStyle().Width(16).Align(lipgloss.Right)
	deficitStyle = valueStyle.Foreground(lipgloss.Color("#FF5F5F"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Table renders both scenarios of result side by side
func Table(result *models.EstimationResult, days int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(header(&result.Data, days)))
	b.WriteString("\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(scenario("Impact", &result.Impact)),
		boxStyle.Render(scenario("Severe impact", &result.SevereImpact)),
	))
	b.WriteString("\n")
	return b.String()
}

func header(in *models.EstimationInput, days int) string {
	region := "unknown region"
	if in.Region != nil && in.Region.Name != "" {
		region = in.Region.Name
	}
	reported := 0
	if in.ReportedCases != nil {
		reported = *in.ReportedCases
	}
	return fmt.Sprintf("%s: %s reported cases, projected over %d days", region, humanize.Comma(int64(reported)), days)
}

func scenario(title string, s *models.ScenarioEstimate) string {
	rows := []struct {
		label string
		value int64
	}{
		{"Currently infected", s.CurrentlyInfected},
		{"Infections by requested time", s.InfectionsByRequestedTime},
		{"Severe cases", s.SevereCasesByRequestedTime},
		{"Hospital beds available", s.HospitalBedsByRequestedTime},
		{"Cases needing ICU care", s.CasesForICUByRequestedTime},
		{"Cases needing ventilators", s.CasesForVentilatorsByRequestedTime},
	}

	lines := []string{headingStyle.Render(title)}
	for _, r := range rows {
		style := valueStyle
		if r.value < 0 {
			style = deficitStyle
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(r.label), style.Render(humanize.Comma(r.value))))
	}
	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render("Dollars in flight (USD)"),
		valueStyle.Render(humanize.CommafWithDigits(s.DollarsInFlight, 2)),
	))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Chart plots the infection growth of the baseline and severe timelines.
// It returns an empty string when there are fewer than two points to draw.
func Chart(impact, severe []models.TimelinePoint, width, height int) string {
	if len(impact) < 2 && len(severe) < 2 {
		return ""
	}

	// Ensure minimum dimensions
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	n := len(impact)
	if len(severe) > n {
		n = len(severe)
	}
	impactData := series(impact, n)
	severeData := series(severe, n)

	return asciigraph.PlotMany([][]float64{impactData, severeData},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("Projected infections, impact (blue) vs severe impact (red)"),
		asciigraph.SeriesColors(
			asciigraph.Blue,
			asciigraph.Red,
		),
	)
}

// series pads points to n values with zeros
func series(points []models.TimelinePoint, n int) []float64 {
	out := make([]float64, n)
	for i, p := range points {
		out[i] = float64(p.Infections)
	}
	return out
}
