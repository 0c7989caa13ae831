package camio

import (
	_ "embed"
	"encoding/base64"
	"fmt"
	"html"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

//go:embed html_templates/report.html
var reportTemplate string

//go:embed html_templates/dashboard.html
var dashboardTemplate string

// ReportTimestampLayout names report directories.
const ReportTimestampLayout = "20060102_150405"

// ConversionReport represents one conversion run for the HTML report.
type ConversionReport struct {
	RunID      string        `json:"run_id"`
	Source     string        `json:"source"`
	Timestamp  string        `json:"timestamp"`
	Version    int           `json:"camio_version"`
	FOVMode    string        `json:"fov_mode"`
	Mode       string        `json:"rotation_mode"`
	Params     Params        `json:"params"`
	FrameCount int           `json:"frame_count"`
	Warnings   []string      `json:"warnings"`
	Dropped    int           `json:"dropped"`
	Summary    string        `json:"summary"`
	Details    string        `json:"details"`           // full warning report
	Preview    template.URL  `json:"preview,omitempty"` // PNG data URL
	Frames     []OutputFrame `json:"frames"`            // first keyframes only
}

// reportSampleSize limits the keyframe table.
const reportSampleSize = 12

// NewConversionReport captures res under a fresh run id.
func NewConversionReport(source string, res *Result) ConversionReport {
	report := ConversionReport{
		RunID:      uuid.NewString(),
		Source:     source,
		Timestamp:  time.Now().Format(ReportTimestampLayout),
		Version:    res.Header.Version,
		FOVMode:    res.Header.FOVMode.String(),
		Mode:       res.Mode.String(),
		Params:     res.Params,
		FrameCount: len(res.Frames),
		Dropped:    res.Dropped,
		Summary:    res.Summary,
		Details:    res.Report,
	}
	for _, w := range res.Warnings {
		report.Warnings = append(report.Warnings, w.Error())
	}

	sample := res.Frames
	if len(sample) > reportSampleSize {
		sample = sample[:reportSampleSize]
	}
	report.Frames = append([]OutputFrame(nil), sample...)
	return report
}

// AttachPreview embeds a PNG preview.
func (r *ConversionReport) AttachPreview(png []byte) {
	r.Preview = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}

// HTMLReportGenerator writes conversion reports
type HTMLReportGenerator struct {
	outputDir     string
	templateCache map[string]*template.Template
}

// DashboardEntry represents a single report for the dashboard
type DashboardEntry struct {
	Source       string    `json:"source"`
	Timestamp    string    `json:"timestamp"`
	FrameCount   int       `json:"frame_count"`
	Mode         string    `json:"rotation_mode"`
	RelativePath string    `json:"relative_path"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewHTMLReportGenerator creates a new report generator
func NewHTMLReportGenerator(outputDir string) *HTMLReportGenerator {
	return &HTMLReportGenerator{
		outputDir:     outputDir,
		templateCache: make(map[string]*template.Template),
	}
}

// GenerateReport writes index.html into the output directory.
func (g *HTMLReportGenerator) GenerateReport(report ConversionReport) error {
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(filepath.Join(g.outputDir, "index.html"))
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	defer file.Close()

	if err := g.template("report", reportTemplate).Execute(file, report); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}
	return nil
}

func (g *HTMLReportGenerator) template(name, text string) *template.Template {
	if tmpl, exists := g.templateCache[name]; exists {
		return tmpl
	}

	tmpl := template.Must(template.New(name).Funcs(template.FuncMap{
		"fixed": func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) },
	}).Parse(text))
	g.templateCache[name] = tmpl
	return tmpl
}

var (
	reportSourcePattern = regexp.MustCompile(`<title>(.+?) - CamIO Conversion</title>`)
	reportFramesPattern = regexp.MustCompile(`<strong>Keyframes:</strong> (\d+)`)
	reportModePattern   = regexp.MustCompile(`<strong>Rotation:</strong> (\w+)`)
)

// GenerateDashboard indexes every timestamped report below baseDir and
// returns the number found.
func GenerateDashboard(baseDir string) (int, error) {
	entries, err := scanReports(baseDir)
	if err != nil {
		return 0, fmt.Errorf("failed to scan reports: %w", err)
	}

	file, err := os.Create(filepath.Join(baseDir, "index.html"))
	if err != nil {
		return 0, fmt.Errorf("failed to create dashboard file: %w", err)
	}
	defer file.Close()

	data := struct {
		Reports     []DashboardEntry
		GeneratedAt time.Time
	}{
		Reports:     entries,
		GeneratedAt: time.Now(),
	}

	tmpl := NewHTMLReportGenerator(baseDir).template("dashboard", dashboardTemplate)
	if err := tmpl.Execute(file, data); err != nil {
		return 0, fmt.Errorf("failed to execute dashboard template: %w", err)
	}
	return len(entries), nil
}

// scanReports finds <baseDir>/<timestamp>/index.html reports, newest first.
func scanReports(baseDir string) ([]DashboardEntry, error) {
	dirs, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, err
	}

	var entries []DashboardEntry
	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}
		created, err := time.ParseInLocation(ReportTimestampLayout, dir.Name(), time.Local)
		if err != nil {
			continue
		}

		path := filepath.Join(baseDir, dir.Name(), "index.html")
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		entry := DashboardEntry{
			Timestamp:    dir.Name(),
			RelativePath: filepath.Join(dir.Name(), "index.html"),
			CreatedAt:    created,
		}
		if m := reportSourcePattern.FindSubmatch(content); m != nil {
			entry.Source = html.UnescapeString(string(m[1]))
		}
		if m := reportFramesPattern.FindSubmatch(content); m != nil {
			entry.FrameCount, _ = strconv.Atoi(string(m[1]))
		}
		if m := reportModePattern.FindSubmatch(content); m != nil {
			entry.Mode = string(m[1])
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}
