// Package report renders case run results as plain text, HTML or XML.
package report

import (
	"bytes"
	"embed"
	"encoding/xml"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/caseflow/caseflow/pkg/engine"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Format selects the report output format.
type Format string

const (
	// FormatText renders a plain-text table report.
	FormatText Format = "text"

	// FormatHTML renders a standalone HTML report.
	FormatHTML Format = "html"

	// FormatXML renders a machine-readable XML report.
	FormatXML Format = "xml"
)

// ParseFormat converts a string to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText:
		return FormatText, nil
	case FormatHTML:
		return FormatHTML, nil
	case FormatXML:
		return FormatXML, nil
	default:
		return "", fmt.Errorf("unknown report format: %s", s)
	}
}

// Summary aggregates a run's results.
type Summary struct {
	TotalCases    int
	PassedCases   int
	FailedCases   int
	TotalSteps    int
	PassedSteps   int
	FailedSteps   int
	TotalDuration time.Duration
	GeneratedAt   time.Time
}

// Summarize computes the aggregate view over a set of case results.
func Summarize(results []engine.CaseResult) Summary {
	s := Summary{TotalCases: len(results), GeneratedAt: time.Now()}
	for _, r := range results {
		if r.OverallSuccess {
			s.PassedCases++
		} else {
			s.FailedCases++
		}
		s.TotalSteps += len(r.Steps)
		s.PassedSteps += r.PassedSteps()
		s.FailedSteps += r.FailedSteps()
		s.TotalDuration += r.TotalDuration
	}
	return s
}

// Generator renders case results into a chosen format.
type Generator struct {
	htmlTemplate *template.Template
}

// NewGenerator creates a report generator.
func NewGenerator() (*Generator, error) {
	tmpl, err := template.New("report.html.tmpl").
		Funcs(template.FuncMap{
			"statusLabel": statusLabel,
			"duration":    formatDuration,
		}).
		ParseFS(templateFS, "templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing report template: %w", err)
	}
	return &Generator{htmlTemplate: tmpl}, nil
}

// Generate renders the results in the given format.
func (g *Generator) Generate(results []engine.CaseResult, format Format) ([]byte, error) {
	switch format {
	case FormatText:
		return g.generateText(results), nil
	case FormatHTML:
		return g.generateHTML(results)
	case FormatXML:
		return g.generateXML(results)
	default:
		return nil, fmt.Errorf("unknown report format: %s", format)
	}
}

// Save renders the results and writes them to path.
func (g *Generator) Save(path string, results []engine.CaseResult, format Format) error {
	data, err := g.Generate(results, format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (g *Generator) generateText(results []engine.CaseResult) []byte {
	var buf bytes.Buffer
	summary := Summarize(results)

	tw := table.NewWriter()
	tw.SetOutputMirror(&buf)
	tw.SetStyle(table.StyleLight)
	tw.SetTitle("Test Case Report")
	tw.AppendHeader(table.Row{"#", "Case", "Result", "Steps", "Failed", "Duration", "Error"})
	for _, r := range results {
		tw.AppendRow(table.Row{
			r.CaseID,
			r.CaseName,
			statusLabel(r.OverallSuccess),
			len(r.Steps),
			r.FailedSteps(),
			formatDuration(r.TotalDuration),
			r.ErrorMessage,
		})
	}
	tw.AppendFooter(table.Row{
		"", "TOTAL",
		fmt.Sprintf("%d/%d passed", summary.PassedCases, summary.TotalCases),
		summary.TotalSteps,
		summary.FailedSteps,
		formatDuration(summary.TotalDuration),
		"",
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Result", Align: text.AlignCenter},
	})
	tw.Render()

	// Per-case step detail only for failures, to keep the report short.
	for _, r := range results {
		if r.OverallSuccess {
			continue
		}
		fmt.Fprintf(&buf, "\nFailed steps in case %q:\n", r.CaseName)
		for _, se := range r.Steps {
			if se.Result.Success {
				continue
			}
			fmt.Fprintf(&buf, "  step %d (code %d): %s\n",
				se.StepID, se.Result.ErrorCode, se.Result.Message)
		}
	}
	return buf.Bytes()
}

// htmlReport is the template input.
type htmlReport struct {
	Summary Summary
	Results []engine.CaseResult
}

func (g *Generator) generateHTML(results []engine.CaseResult) ([]byte, error) {
	var buf bytes.Buffer
	data := htmlReport{Summary: Summarize(results), Results: results}
	if err := g.htmlTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering HTML report: %w", err)
	}
	return buf.Bytes(), nil
}

// XML report document shapes.
type xmlReport struct {
	XMLName     xml.Name  `xml:"test_report"`
	GeneratedAt string    `xml:"generated_at,attr"`
	Passed      int       `xml:"passed,attr"`
	Failed      int       `xml:"failed,attr"`
	Cases       []xmlCase `xml:"case"`
}

type xmlCase struct {
	ID       int       `xml:"id,attr"`
	Name     string    `xml:"name,attr"`
	Success  bool      `xml:"success,attr"`
	Duration string    `xml:"duration,attr"`
	Error    string    `xml:"error,omitempty"`
	Steps    []xmlStep `xml:"step"`
}

type xmlStep struct {
	ID        int    `xml:"id,attr"`
	Success   bool   `xml:"success,attr"`
	ErrorCode int    `xml:"error_code,attr,omitempty"`
	Duration  string `xml:"duration,attr"`
	Message   string `xml:",chardata"`
}

func (g *Generator) generateXML(results []engine.CaseResult) ([]byte, error) {
	summary := Summarize(results)
	doc := xmlReport{
		GeneratedAt: summary.GeneratedAt.Format(time.RFC3339),
		Passed:      summary.PassedCases,
		Failed:      summary.FailedCases,
	}
	for _, r := range results {
		c := xmlCase{
			ID:       r.CaseID,
			Name:     r.CaseName,
			Success:  r.OverallSuccess,
			Duration: formatDuration(r.TotalDuration),
			Error:    r.ErrorMessage,
		}
		for _, se := range r.Steps {
			c.Steps = append(c.Steps, xmlStep{
				ID:        se.StepID,
				Success:   se.Result.Success,
				ErrorCode: se.Result.ErrorCode,
				Duration:  formatDuration(se.Duration),
				Message:   se.Result.Message,
			})
		}
		doc.Cases = append(doc.Cases, c)
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("rendering XML report: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

func statusLabel(success bool) string {
	if success {
		return "PASS"
	}
	return "FAIL"
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
