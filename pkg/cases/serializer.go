// Package cases loads and saves test case definitions as JSON or YAML.
// File definitions are validated structurally before they become
// engine.TestCase values; defaults friendly to hand-written files
// (stop-on-failure on, sequential step IDs) are applied on load.
package cases

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caseflow/caseflow/pkg/engine"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// caseSpec is the on-disk shape of a test case.
type caseSpec struct {
	ID           int        `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string     `json:"name" yaml:"name" validate:"required"`
	Description  string     `json:"description,omitempty" yaml:"description,omitempty"`
	SetupHook    string     `json:"setup_hook,omitempty" yaml:"setup_hook,omitempty"`
	TeardownHook string     `json:"teardown_hook,omitempty" yaml:"teardown_hook,omitempty"`
	DatasetIDs   []string   `json:"dataset_ids,omitempty" yaml:"dataset_ids,omitempty"`
	Steps        []stepSpec `json:"steps" yaml:"steps" validate:"required,min=1,dive"`
}

// stepSpec is the on-disk shape of a test step.
type stepSpec struct {
	ID     int               `json:"id,omitempty" yaml:"id,omitempty"`
	Plugin string            `json:"plugin" yaml:"plugin" validate:"required"`
	Action string            `json:"action" yaml:"action" validate:"required"`
	Target string            `json:"target,omitempty" yaml:"target,omitempty"`
	Value  string            `json:"value,omitempty" yaml:"value,omitempty"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`

	// Timeout is a duration string like "5s".
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	Optional bool `json:"optional,omitempty" yaml:"optional,omitempty"`

	// StopOnFailure defaults to true when omitted.
	StopOnFailure *bool `json:"stop_on_failure,omitempty" yaml:"stop_on_failure,omitempty"`
}

// Serializer converts test cases between files and engine values.
type Serializer struct {
	validate *validator.Validate
}

// NewSerializer creates a case serializer.
func NewSerializer() *Serializer {
	return &Serializer{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// LoadFile reads test cases from a JSON or YAML file, chosen by
// extension. The file may hold a single case or a list.
func (s *Serializer) LoadFile(path string) ([]engine.TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading case file: %w", err)
	}

	var specs []caseSpec
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &specs); err != nil {
			var single caseSpec
			if err := json.Unmarshal(data, &single); err != nil {
				return nil, fmt.Errorf("parsing JSON case file %s: %w", path, err)
			}
			specs = []caseSpec{single}
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &specs); err != nil {
			var single caseSpec
			if err := yaml.Unmarshal(data, &single); err != nil {
				return nil, fmt.Errorf("parsing YAML case file %s: %w", path, err)
			}
			specs = []caseSpec{single}
		}
	default:
		return nil, fmt.Errorf("unsupported case file extension: %s", path)
	}

	out := make([]engine.TestCase, 0, len(specs))
	for i, spec := range specs {
		tc, err := s.toTestCase(spec, i+1)
		if err != nil {
			return nil, fmt.Errorf("case %d in %s: %w", i+1, path, err)
		}
		out = append(out, tc)
	}
	return out, nil
}

// SaveFile writes test cases to a JSON or YAML file, chosen by
// extension.
func (s *Serializer) SaveFile(path string, cases []engine.TestCase) error {
	specs := make([]caseSpec, 0, len(cases))
	for _, tc := range cases {
		specs = append(specs, fromTestCase(tc))
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(specs, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(specs)
	default:
		return fmt.Errorf("unsupported case file extension: %s", path)
	}
	if err != nil {
		return fmt.Errorf("encoding cases: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks a loaded case against the structural rules without
// converting it.
func (s *Serializer) Validate(tc engine.TestCase) error {
	spec := fromTestCase(tc)
	if err := s.validate.Struct(spec); err != nil {
		return engine.NewCaseError("case validation failed", err).
			WithCode(engine.ErrCodeValidation)
	}
	return nil
}

// toTestCase validates a spec and converts it, applying defaults.
func (s *Serializer) toTestCase(spec caseSpec, ordinal int) (engine.TestCase, error) {
	if err := s.validate.Struct(spec); err != nil {
		return engine.TestCase{}, engine.NewCaseError("case validation failed", err).
			WithCode(engine.ErrCodeValidation)
	}

	tc := engine.TestCase{
		ID:           spec.ID,
		Name:         spec.Name,
		Description:  spec.Description,
		SetupHook:    spec.SetupHook,
		TeardownHook: spec.TeardownHook,
		DatasetIDs:   spec.DatasetIDs,
		Steps:        make([]engine.TestStep, 0, len(spec.Steps)),
	}
	if tc.ID == 0 {
		tc.ID = ordinal
	}

	for i, step := range spec.Steps {
		var timeout time.Duration
		if step.Timeout != "" {
			d, err := time.ParseDuration(step.Timeout)
			if err != nil {
				return engine.TestCase{}, engine.NewCaseError(
					fmt.Sprintf("step %d has invalid timeout %q", i+1, step.Timeout), err).
					WithCode(engine.ErrCodeValidation)
			}
			timeout = d
		}

		stop := true
		if step.StopOnFailure != nil {
			stop = *step.StopOnFailure
		}

		id := step.ID
		if id == 0 {
			id = i + 1
		}

		tc.Steps = append(tc.Steps, engine.TestStep{
			ID:         id,
			PluginName: step.Plugin,
			Param: engine.StepParam{
				Action:  step.Action,
				Target:  step.Target,
				Value:   step.Value,
				Params:  step.Params,
				Timeout: timeout,
			},
			IsOptional:    step.Optional,
			StopOnFailure: stop,
		})
	}
	return tc, nil
}

// fromTestCase converts an engine case back to its file shape.
func fromTestCase(tc engine.TestCase) caseSpec {
	spec := caseSpec{
		ID:           tc.ID,
		Name:         tc.Name,
		Description:  tc.Description,
		SetupHook:    tc.SetupHook,
		TeardownHook: tc.TeardownHook,
		DatasetIDs:   tc.DatasetIDs,
		Steps:        make([]stepSpec, 0, len(tc.Steps)),
	}
	for _, step := range tc.Steps {
		ss := stepSpec{
			ID:       step.ID,
			Plugin:   step.PluginName,
			Action:   step.Param.Action,
			Target:   step.Param.Target,
			Value:    step.Param.Value,
			Params:   step.Param.Params,
			Optional: step.IsOptional,
		}
		if step.Param.Timeout > 0 {
			ss.Timeout = step.Param.Timeout.String()
		}
		if !step.StopOnFailure {
			stop := false
			ss.StopOnFailure = &stop
		}
		spec.Steps = append(spec.Steps, ss)
	}
	return spec
}
