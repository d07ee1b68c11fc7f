package automation

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/caseflow/caseflow/pkg/datastore"
	"github.com/caseflow/caseflow/pkg/engine"
	"github.com/caseflow/caseflow/pkg/plugins/uistub"
	"github.com/caseflow/caseflow/pkg/report"
)

func newCore(t *testing.T, opts Options) *Core {
	t.Helper()
	core, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = core.Close() })
	return core
}

func loginCase() engine.TestCase {
	return engine.TestCase{
		ID:   1,
		Name: "login flow",
		Steps: []engine.TestStep{
			{
				ID:         1,
				PluginName: "uistub",
				Param: engine.StepParam{
					Action: "input",
					Target: "main/text_field",
					Value:  "${login.username}",
				},
				StopOnFailure: true,
			},
			{
				ID:         2,
				PluginName: "uistub",
				Param: engine.StepParam{
					Action: "check",
					Target: "main/text_field",
					Value:  "admin",
				},
				StopOnFailure: true,
			},
		},
	}
}

func seedLoginData(t *testing.T, core *Core) {
	t.Helper()
	ds, err := core.Data().CreateDataset("login", "")
	if err != nil {
		t.Fatalf("CreateDataset failed: %v", err)
	}
	if err := core.Data().AddItem(ds.ID, datastore.Item{Name: "username", Value: "admin"}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
}

func TestEndToEndCaseRun(t *testing.T) {
	core := newCore(t, Options{})
	if err := core.RegisterPlugin(uistub.Module{}); err != nil {
		t.Fatalf("RegisterPlugin failed: %v", err)
	}
	seedLoginData(t, core)

	result := core.RunCase(context.Background(), loginCase())
	if !result.OverallSuccess {
		t.Fatalf("case failed: %+v", result)
	}
	if len(result.Steps) != 2 {
		t.Fatalf("expected 2 step executions, got %d", len(result.Steps))
	}
}

func TestPluginManagement(t *testing.T) {
	core := newCore(t, Options{})
	if err := core.RegisterPlugin(uistub.Module{}); err != nil {
		t.Fatalf("RegisterPlugin failed: %v", err)
	}

	if !core.IsPluginAvailable("uistub") {
		t.Error("registered plugin must be available")
	}
	if names := core.ListPlugins(); len(names) != 1 || names[0] != "uistub" {
		t.Errorf("unexpected plugin list: %v", names)
	}
	if infos := core.PluginInfos(); infos["uistub"].Version == "" || infos["uistub"].Description == "" {
		t.Error("plugin metadata missing")
	}
	actions, ok := core.ListActions("uistub")
	if !ok || len(actions) == 0 {
		t.Error("plugin actions missing")
	}

	if !core.UnregisterPlugin("uistub") {
		t.Error("unregistration must succeed")
	}
	if core.IsPluginAvailable("uistub") {
		t.Error("unregistered plugin must not be available")
	}
}

func TestDataReferenceHelpers(t *testing.T) {
	core := newCore(t, Options{})
	seedLoginData(t, core)

	got, err := core.ResolveDataReference("${login.username}")
	if err != nil || got != "admin" {
		t.Errorf("ResolveDataReference = %q, err=%v", got, err)
	}

	sub := core.SubstituteDataReferences("hi ${login.username}, miss ${login.ghost}")
	if sub != "hi admin, miss ${login.ghost}" {
		t.Errorf("SubstituteDataReferences = %q", sub)
	}
}

func TestRunCasePersistsHistory(t *testing.T) {
	core := newCore(t, Options{
		HistoryPath: filepath.Join(t.TempDir(), "history.db"),
	})
	if err := core.RegisterPlugin(uistub.Module{}); err != nil {
		t.Fatalf("RegisterPlugin failed: %v", err)
	}
	seedLoginData(t, core)

	core.RunCase(context.Background(), loginCase())

	history := core.History()
	if history == nil {
		t.Fatal("history must be enabled")
	}
	results, err := history.ListResults(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(results) != 1 || results[0].CaseName != "login flow" {
		t.Errorf("run was not persisted: %+v", results)
	}
}

func TestLoadRunReportPipeline(t *testing.T) {
	core := newCore(t, Options{})
	if err := core.RegisterPlugin(uistub.Module{}); err != nil {
		t.Fatalf("RegisterPlugin failed: %v", err)
	}
	seedLoginData(t, core)

	dir := t.TempDir()
	casePath := filepath.Join(dir, "cases.yaml")
	if err := core.SaveCases(casePath, []engine.TestCase{loginCase()}); err != nil {
		t.Fatalf("SaveCases failed: %v", err)
	}

	loaded, err := core.LoadCases(casePath)
	if err != nil {
		t.Fatalf("LoadCases failed: %v", err)
	}
	results := core.RunCases(context.Background(), loaded)
	if len(results) != 1 || !results[0].OverallSuccess {
		t.Fatalf("pipeline run failed: %+v", results)
	}

	out, err := core.GenerateReport(results, report.FormatText)
	if err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}
	if !strings.Contains(string(out), "login flow") {
		t.Error("report missing case name")
	}

	reportPath := filepath.Join(dir, "report.xml")
	if err := core.SaveReport(reportPath, results, report.FormatXML); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
}

func TestValidateCase(t *testing.T) {
	core := newCore(t, Options{})

	if err := core.ValidateCase(loginCase()); err != nil {
		t.Errorf("valid case rejected: %v", err)
	}
	if err := core.ValidateCase(engine.TestCase{Name: "no steps"}); err == nil {
		t.Error("invalid case accepted")
	}
}
