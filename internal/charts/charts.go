package charts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"audit-backend/internal/audit"
)

var riskColors = map[string]drawing.Color{
	audit.RiskLow:    drawing.ColorFromHex("2ecc71"),
	audit.RiskMedium: drawing.ColorFromHex("f39c12"),
	audit.RiskHigh:   drawing.ColorFromHex("e74c3c"),
}

var severityColors = map[string]drawing.Color{
	audit.SeverityLow:    drawing.ColorFromHex("3498db"),
	audit.SeverityMedium: drawing.ColorFromHex("f39c12"),
	audit.SeverityHigh:   drawing.ColorFromHex("e74c3c"),
}

// Renderer writes report charts as PNG files into OutputDir with
// collision-resistant timestamped names.
type Renderer struct {
	OutputDir string
}

// NewRenderer creates the output directory if needed.
func NewRenderer(outputDir string) (*Renderer, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart output dir: %w", err)
	}
	return &Renderer{OutputDir: outputDir}, nil
}

// RenderReportCharts renders the full chart set for one analysis result.
func (r *Renderer) RenderReportCharts(ctx context.Context, result audit.AnalysisResult) (audit.ChartSet, error) {
	if err := ctx.Err(); err != nil {
		return audit.ChartSet{}, err
	}

	var set audit.ChartSet
	var err error

	if set.FlagsByCategory, err = r.renderFlagsByCategory(result.Flags); err != nil {
		return audit.ChartSet{}, fmt.Errorf("flags by category: %w", err)
	}
	if set.SeverityDistribution, err = r.renderSeverityDistribution(result.Flags); err != nil {
		return audit.ChartSet{}, fmt.Errorf("severity distribution: %w", err)
	}
	if set.RiskSummary, err = r.renderRiskSummary(result); err != nil {
		return audit.ChartSet{}, fmt.Errorf("risk summary: %w", err)
	}
	if set.Dashboard, err = r.renderAmountByCategory(result); err != nil {
		return audit.ChartSet{}, fmt.Errorf("amount by category: %w", err)
	}
	return set, nil
}

// Cleanup deletes rendered PNGs older than maxAge and returns the count.
func (r *Renderer) Cleanup(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(r.OutputDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read chart output dir: %w", err)
	}

	deleted := 0
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".png") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(r.OutputDir, entry.Name())); err == nil {
				deleted++
			}
		}
	}
	return deleted, nil
}

func (r *Renderer) renderFlagsByCategory(flags []audit.FraudFlag) (string, error) {
	counts := map[string]int{}
	for _, flag := range flags {
		counts[flag.Category]++
	}

	bars := make([]chart.Value, 0, len(counts))
	for category, count := range counts {
		bars = append(bars, chart.Value{
			Label: titleCase(category),
			Value: float64(count),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Value > bars[j].Value })
	if len(bars) == 0 {
		bars = append(bars, chart.Value{Label: "No Flags", Value: 1, Style: chart.Style{FillColor: riskColors[audit.RiskLow]}})
	}

	graph := chart.BarChart{
		Title:      "Fraud Flags by Category",
		Width:      1024,
		Height:     512,
		BarWidth:   60,
		Bars:       bars,
		YAxis:      chart.YAxis{Range: barRange(bars)},
		Background: chart.Style{Padding: chart.Box{Top: 40}},
	}
	return r.renderPNG("flags_by_category", graph.Render)
}

func (r *Renderer) renderSeverityDistribution(flags []audit.FraudFlag) (string, error) {
	counts := map[string]int{}
	for _, flag := range flags {
		counts[flag.Severity]++
	}

	values := make([]chart.Value, 0, 3)
	for _, severity := range []string{audit.SeverityHigh, audit.SeverityMedium, audit.SeverityLow} {
		if counts[severity] == 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: strings.ToUpper(severity),
			Value: float64(counts[severity]),
			Style: chart.Style{FillColor: severityColors[severity]},
		})
	}
	if len(values) == 0 {
		values = append(values, chart.Value{Label: "No Flags", Value: 1, Style: chart.Style{FillColor: riskColors[audit.RiskLow]}})
	}

	graph := chart.PieChart{
		Title:  "Severity Distribution",
		Width:  640,
		Height: 640,
		Values: values,
	}
	return r.renderPNG("severity_distribution", graph.Render)
}

func (r *Renderer) renderRiskSummary(result audit.AnalysisResult) (string, error) {
	highSeverity := 0
	for _, flag := range result.Flags {
		if flag.Severity == audit.SeverityHigh {
			highSeverity++
		}
	}

	color, ok := riskColors[result.RiskLevel]
	if !ok {
		color = drawing.ColorFromHex("95a5a6")
	}
	bars := []chart.Value{
		{Label: "Total Flags", Value: float64(max(len(result.Flags), 1)), Style: chart.Style{FillColor: color}},
		{Label: "High Severity", Value: float64(max(highSeverity, 1)), Style: chart.Style{FillColor: severityColors[audit.SeverityHigh]}},
	}
	graph := chart.BarChart{
		Title:      fmt.Sprintf("Risk Summary: %s ($%.2f flagged)", result.RiskLevel, result.TotalFlaggedAmount),
		Width:      1024,
		Height:     512,
		BarWidth:   80,
		Bars:       bars,
		YAxis:      chart.YAxis{Range: barRange(bars)},
		Background: chart.Style{Padding: chart.Box{Top: 40}},
	}
	return r.renderPNG("risk_summary", graph.Render)
}

func (r *Renderer) renderAmountByCategory(result audit.AnalysisResult) (string, error) {
	amounts := map[string]float64{}
	for _, flag := range result.Flags {
		if flag.AmountInvolved != nil {
			amounts[flag.Category] += *flag.AmountInvolved
		}
	}

	bars := make([]chart.Value, 0, len(amounts))
	for category, amount := range amounts {
		if amount <= 0 {
			continue
		}
		bars = append(bars, chart.Value{Label: titleCase(category), Value: amount})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Value > bars[j].Value })
	if len(bars) == 0 {
		bars = append(bars, chart.Value{Label: "No Amount Data", Value: 1})
	}

	graph := chart.BarChart{
		Title:      "Flagged Amount by Category ($)",
		Width:      1024,
		Height:     512,
		BarWidth:   60,
		Bars:       bars,
		YAxis:      chart.YAxis{Range: barRange(bars)},
		Background: chart.Style{Padding: chart.Box{Top: 40}},
	}
	return r.renderPNG("dashboard", graph.Render)
}

func (r *Renderer) renderPNG(prefix string, render func(chart.RendererProvider, io.Writer) error) (string, error) {
	path := filepath.Join(r.OutputDir, uniqueFileName(prefix))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := render(chart.PNG, f); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// barRange pins the y-axis to [0, max]. Without an explicit range the bar
// chart derives it from the values and errors out when every bar is equal,
// which is the normal case for clean documents.
func barRange(bars []chart.Value) *chart.ContinuousRange {
	maxVal := 0.0
	for _, b := range bars {
		if b.Value > maxVal {
			maxVal = b.Value
		}
	}
	if maxVal <= 0 {
		maxVal = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: maxVal}
}

func uniqueFileName(prefix string) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.png", prefix, timestamp, uuid.NewString()[:8])
}

func titleCase(category string) string {
	parts := strings.Split(category, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}

var _ audit.ChartRenderer = (*Renderer)(nil)
