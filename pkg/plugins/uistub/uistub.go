// Package uistub provides an in-memory UI automation plugin. It simulates
// a small window/control tree so case flows can be exercised end to end
// without a real desktop session. Targets use the form "window/control";
// a bare name addresses a window.
package uistub

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/caseflow/caseflow/pkg/engine"
)

// Plugin action error codes. The orchestrator reserves negative codes, so
// plugin-reported codes start at 1.
const (
	codeTargetNotFound = 1
	codeCheckFailed    = 2
	codeBadValue       = 3
)

// control is one simulated UI control with its current text.
type control struct {
	text    string
	checked bool
}

// window is a simulated top-level window holding named controls.
type window struct {
	controls map[string]*control
}

// Plugin simulates a UI automation driver against an in-memory window
// tree. It is safe for concurrent step dispatch.
type Plugin struct {
	mu      sync.Mutex
	windows map[string]*window
}

// Module is the registry-facing factory for the stub plugin.
type Module struct{}

// CreatePlugin constructs a fresh stub plugin instance.
func (Module) CreatePlugin() (engine.Plugin, error) {
	return &Plugin{}, nil
}

// DestroyPlugin releases the instance. The stub holds no external
// resources.
func (Module) DestroyPlugin(_ engine.Plugin) {}

// Name returns the plugin name.
func (p *Plugin) Name() string { return "uistub" }

// Description returns the plugin description.
func (p *Plugin) Description() string {
	return "in-memory UI automation stub for exercising case flows"
}

// Version returns the plugin version.
func (p *Plugin) Version() string { return "1.0.0" }

// SupportedActions returns the declared action vocabulary.
func (p *Plugin) SupportedActions() []string {
	return []string{"click", "input", "check", "get_text", "wait", "exists"}
}

// Initialize seeds the simulated desktop with a default window.
func (p *Plugin) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.windows = map[string]*window{
		"main": {controls: map[string]*control{
			"ok_button":  {},
			"text_field": {},
		}},
	}
	return nil
}

// Uninitialize drops the simulated desktop.
func (p *Plugin) Uninitialize() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.windows = nil
}

// ExecuteStep performs one simulated UI action.
func (p *Plugin) ExecuteStep(ctx context.Context, param engine.StepParam) engine.StepResult {
	switch param.Action {
	case "click":
		return p.click(param)
	case "input":
		return p.input(param)
	case "check":
		return p.check(param)
	case "get_text":
		return p.getText(param)
	case "wait":
		return p.wait(ctx, param)
	case "exists":
		return p.exists(param)
	default:
		// Unreachable through the runner, which verifies the action set.
		return engine.StepResult{
			Success:   false,
			ErrorCode: engine.CodeUnsupportedAction,
			Message:   fmt.Sprintf("unknown action: %s", param.Action),
		}
	}
}

// OpenWindow adds a simulated window with the given controls. Intended for
// scenario setup.
func (p *Plugin) OpenWindow(name string, controls ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.windows == nil {
		p.windows = make(map[string]*window)
	}
	w := &window{controls: make(map[string]*control, len(controls))}
	for _, c := range controls {
		w.controls[c] = &control{}
	}
	p.windows[name] = w
}

func (p *Plugin) click(param engine.StepParam) engine.StepResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, res := p.findControl(param.Target)
	if c == nil {
		return res
	}
	c.checked = !c.checked
	return engine.StepResult{Success: true, Message: fmt.Sprintf("clicked %s", param.Target)}
}

func (p *Plugin) input(param engine.StepParam) engine.StepResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, res := p.findControl(param.Target)
	if c == nil {
		return res
	}
	c.text = param.Value
	return engine.StepResult{Success: true, Message: fmt.Sprintf("entered text into %s", param.Target)}
}

func (p *Plugin) check(param engine.StepParam) engine.StepResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, res := p.findControl(param.Target)
	if c == nil {
		return res
	}
	if c.text != param.Value {
		return engine.StepResult{
			Success:   false,
			ErrorCode: codeCheckFailed,
			Message:   fmt.Sprintf("check failed on %s: got %q, want %q", param.Target, c.text, param.Value),
		}
	}
	return engine.StepResult{Success: true, Message: fmt.Sprintf("check passed on %s", param.Target)}
}

func (p *Plugin) getText(param engine.StepParam) engine.StepResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, res := p.findControl(param.Target)
	if c == nil {
		return res
	}
	return engine.StepResult{
		Success:   true,
		Message:   fmt.Sprintf("read text from %s", param.Target),
		ExtraData: c.text,
	}
}

func (p *Plugin) wait(ctx context.Context, param engine.StepParam) engine.StepResult {
	d, err := time.ParseDuration(param.Value)
	if err != nil {
		return engine.StepResult{
			Success:   false,
			ErrorCode: codeBadValue,
			Message:   fmt.Sprintf("invalid wait duration %q: %v", param.Value, err),
		}
	}

	select {
	case <-time.After(d):
		return engine.StepResult{Success: true, Message: fmt.Sprintf("waited %s", d)}
	case <-ctx.Done():
		return engine.StepResult{
			Success:   false,
			ErrorCode: codeBadValue,
			Message:   fmt.Sprintf("wait interrupted: %v", ctx.Err()),
		}
	}
}

func (p *Plugin) exists(param engine.StepParam) engine.StepResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	winName, ctlName := splitTarget(param.Target)
	w, ok := p.windows[winName]
	if ok && ctlName != "" {
		_, ok = w.controls[ctlName]
	}
	return engine.StepResult{
		Success:   true,
		Message:   fmt.Sprintf("existence probe for %s", param.Target),
		ExtraData: fmt.Sprintf("%t", ok),
	}
}

// findControl locates a control by target path. The caller holds the lock.
// When the target is missing, the returned result carries the failure.
func (p *Plugin) findControl(target string) (*control, engine.StepResult) {
	winName, ctlName := splitTarget(target)
	w, ok := p.windows[winName]
	if !ok {
		return nil, engine.StepResult{
			Success:   false,
			ErrorCode: codeTargetNotFound,
			Message:   fmt.Sprintf("window not found: %s", winName),
		}
	}
	if ctlName == "" {
		return nil, engine.StepResult{
			Success:   false,
			ErrorCode: codeTargetNotFound,
			Message:   fmt.Sprintf("target %s names a window, control required", target),
		}
	}
	c, ok := w.controls[ctlName]
	if !ok {
		return nil, engine.StepResult{
			Success:   false,
			ErrorCode: codeTargetNotFound,
			Message:   fmt.Sprintf("control not found: %s", target),
		}
	}
	return c, engine.StepResult{}
}

func splitTarget(target string) (win, ctl string) {
	win, ctl, _ = strings.Cut(target, "/")
	return win, ctl
}
