package uistub

import (
	"context"
	"strings"
	"testing"

	"github.com/caseflow/caseflow/pkg/engine"
)

func newInitializedPlugin(t *testing.T) *Plugin {
	t.Helper()
	p, err := Module{}.CreatePlugin()
	if err != nil {
		t.Fatalf("CreatePlugin failed: %v", err)
	}
	if err := p.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return p.(*Plugin)
}

func exec(p *Plugin, action, target, value string) engine.StepResult {
	return p.ExecuteStep(context.Background(), engine.StepParam{
		Action: action,
		Target: target,
		Value:  value,
	})
}

func TestInputCheckGetTextRoundTrip(t *testing.T) {
	p := newInitializedPlugin(t)

	if res := exec(p, "input", "main/text_field", "hello"); !res.Success {
		t.Fatalf("input failed: %s", res.Message)
	}
	if res := exec(p, "check", "main/text_field", "hello"); !res.Success {
		t.Errorf("check failed: %s", res.Message)
	}
	if res := exec(p, "check", "main/text_field", "goodbye"); res.Success {
		t.Error("check must fail on mismatched text")
	} else if res.ErrorCode != codeCheckFailed {
		t.Errorf("expected code %d, got %d", codeCheckFailed, res.ErrorCode)
	}

	res := exec(p, "get_text", "main/text_field", "")
	if !res.Success || res.ExtraData != "hello" {
		t.Errorf("get_text returned %q (success=%v)", res.ExtraData, res.Success)
	}
}

func TestMissingTargets(t *testing.T) {
	p := newInitializedPlugin(t)

	tests := []struct {
		name   string
		target string
	}{
		{"unknown window", "ghost/button"},
		{"unknown control", "main/ghost"},
		{"window without control", "main"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := exec(p, "click", tt.target, "")
			if res.Success {
				t.Fatal("expected failure")
			}
			if res.ErrorCode != codeTargetNotFound {
				t.Errorf("expected code %d, got %d", codeTargetNotFound, res.ErrorCode)
			}
		})
	}
}

func TestExistsProbe(t *testing.T) {
	p := newInitializedPlugin(t)
	p.OpenWindow("login", "username", "password")

	tests := []struct {
		target string
		want   string
	}{
		{"login/username", "true"},
		{"login/ghost", "false"},
		{"login", "true"},
		{"ghost", "false"},
	}
	for _, tt := range tests {
		res := exec(p, "exists", tt.target, "")
		if !res.Success {
			t.Errorf("%s: exists probe itself must succeed", tt.target)
		}
		if res.ExtraData != tt.want {
			t.Errorf("%s: ExtraData = %q, want %q", tt.target, res.ExtraData, tt.want)
		}
	}
}

func TestWait(t *testing.T) {
	p := newInitializedPlugin(t)

	if res := exec(p, "wait", "", "1ms"); !res.Success {
		t.Errorf("wait failed: %s", res.Message)
	}
	if res := exec(p, "wait", "", "not-a-duration"); res.Success {
		t.Error("invalid duration must fail")
	} else if res.ErrorCode != codeBadValue {
		t.Errorf("expected code %d, got %d", codeBadValue, res.ErrorCode)
	}
}

func TestWaitHonorsContext(t *testing.T) {
	p := newInitializedPlugin(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := p.ExecuteStep(ctx, engine.StepParam{Action: "wait", Value: "10s"})
	if res.Success {
		t.Error("cancelled wait must fail")
	}
	if !strings.Contains(res.Message, "interrupted") {
		t.Errorf("unexpected message: %q", res.Message)
	}
}

func TestUninitializeDropsState(t *testing.T) {
	p := newInitializedPlugin(t)
	p.Uninitialize()

	res := exec(p, "click", "main/ok_button", "")
	if res.Success {
		t.Error("actions after Uninitialize must fail")
	}
}

func TestContractMetadata(t *testing.T) {
	p := newInitializedPlugin(t)
	if p.Name() != "uistub" {
		t.Errorf("unexpected name: %s", p.Name())
	}
	if p.Version() == "" {
		t.Error("version must be set")
	}
	if len(p.SupportedActions()) != 6 {
		t.Errorf("unexpected action count: %v", p.SupportedActions())
	}
}
