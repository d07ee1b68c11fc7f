package report

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/caseflow/caseflow/pkg/engine"
)

func sampleResults() []engine.CaseResult {
	return []engine.CaseResult{
		{
			CaseID:         1,
			CaseName:       "login flow",
			OverallSuccess: true,
			TotalDuration:  120 * time.Millisecond,
			Steps: []engine.StepExecution{
				{StepID: 1, Result: engine.StepResult{Success: true, Message: "clicked"}, Duration: 60 * time.Millisecond},
				{StepID: 2, Result: engine.StepResult{Success: true, Message: "entered text"}, Duration: 60 * time.Millisecond},
			},
		},
		{
			CaseID:         2,
			CaseName:       "broken flow",
			OverallSuccess: false,
			TotalDuration:  40 * time.Millisecond,
			ErrorMessage:   "",
			Steps: []engine.StepExecution{
				{
					StepID: 1,
					Result: engine.StepResult{
						Success:   false,
						ErrorCode: engine.CodePluginNotFound,
						Message:   "plugin not found: ghost",
					},
					Duration: 40 * time.Millisecond,
				},
			},
		},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleResults())

	if s.TotalCases != 2 || s.PassedCases != 1 || s.FailedCases != 1 {
		t.Errorf("case counts wrong: %+v", s)
	}
	if s.TotalSteps != 3 || s.PassedSteps != 2 || s.FailedSteps != 1 {
		t.Errorf("step counts wrong: %+v", s)
	}
	if s.TotalDuration != 160*time.Millisecond {
		t.Errorf("duration wrong: %s", s.TotalDuration)
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"text", "HTML", "Xml"} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", s, err)
		}
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestGenerateText(t *testing.T) {
	g, err := NewGenerator()
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	out, err := g.Generate(sampleResults(), FormatText)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	report := string(out)

	for _, want := range []string{
		"login flow", "broken flow", "PASS", "FAIL",
		"1/2 passed", "plugin not found: ghost",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("text report missing %q", want)
		}
	}
	if !strings.Contains(report, `Failed steps in case "broken flow"`) {
		t.Error("text report missing failure detail section")
	}
	if strings.Contains(report, `Failed steps in case "login flow"`) {
		t.Error("passing cases must not get a failure detail section")
	}
}

func TestGenerateHTML(t *testing.T) {
	g, err := NewGenerator()
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	out, err := g.Generate(sampleResults(), FormatHTML)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	report := string(out)

	for _, want := range []string{
		"<!DOCTYPE html>", "login flow", "broken flow",
		`class="pass"`, `class="fail"`, "1/2 cases passed",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("HTML report missing %q", want)
		}
	}
}

func TestGenerateHTMLEscapes(t *testing.T) {
	g, err := NewGenerator()
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	results := []engine.CaseResult{{
		CaseID:   1,
		CaseName: `<script>alert("x")</script>`,
	}}
	out, err := g.Generate(results, FormatHTML)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if strings.Contains(string(out), "<script>alert") {
		t.Error("case names must be HTML-escaped")
	}
}

func TestGenerateXML(t *testing.T) {
	g, err := NewGenerator()
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	out, err := g.Generate(sampleResults(), FormatXML)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var doc struct {
		XMLName xml.Name `xml:"test_report"`
		Passed  int      `xml:"passed,attr"`
		Failed  int      `xml:"failed,attr"`
		Cases   []struct {
			Name    string `xml:"name,attr"`
			Success bool   `xml:"success,attr"`
			Steps   []struct {
				ErrorCode int `xml:"error_code,attr"`
			} `xml:"step"`
		} `xml:"case"`
	}
	if err := xml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("XML report does not parse: %v", err)
	}
	if doc.Passed != 1 || doc.Failed != 1 {
		t.Errorf("summary attributes wrong: %+v", doc)
	}
	if len(doc.Cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(doc.Cases))
	}
	if doc.Cases[1].Steps[0].ErrorCode != engine.CodePluginNotFound {
		t.Errorf("error code lost: %d", doc.Cases[1].Steps[0].ErrorCode)
	}
}

func TestGenerateUnknownFormat(t *testing.T) {
	g, err := NewGenerator()
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	if _, err := g.Generate(nil, Format("pdf")); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestSave(t *testing.T) {
	g, err := NewGenerator()
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "report.html")
	if err := g.Save(path, sampleResults(), FormatHTML); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved report: %v", err)
	}
	if !strings.Contains(string(data), "login flow") {
		t.Error("saved report incomplete")
	}
}
