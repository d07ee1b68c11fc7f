package engine

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want []string
	}{
		{
			name: "plain",
			err:  NewRegistrationError("duplicate plugin name", nil),
			want: []string{"[registration]", "duplicate plugin name"},
		},
		{
			name: "with cause",
			err:  NewRegistrationError("initialize failed", errors.New("driver missing")),
			want: []string{"[registration]", "initialize failed", "driver missing"},
		},
		{
			name: "with plugin",
			err:  NewDispatchError("unsupported action", nil).WithPlugin("uistub"),
			want: []string{"[dispatch]", "plugin=uistub"},
		},
		{
			name: "with reference",
			err:  NewResolutionError("unknown dataset", nil).WithReference("${login.username}"),
			want: []string{"[resolution]", "reference=${login.username}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, fragment := range tt.want {
				if !strings.Contains(msg, fragment) {
					t.Errorf("message %q missing %q", msg, fragment)
				}
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewCaseError("setup failed", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	var e *Error
	if !errors.As(wrapped, &e) {
		t.Fatal("errors.As should find *Error in the chain")
	}
	if e.Class != ErrorClassCase {
		t.Errorf("expected case class, got %s", e.Class)
	}
}

func TestErrorIsMatchesClassAndCode(t *testing.T) {
	err := NewResolutionError("unknown item", nil).WithCode(ErrCodeUnknownItem)

	if !errors.Is(err, &Error{Class: ErrorClassResolution, Code: ErrCodeUnknownItem}) {
		t.Error("expected match on class and code")
	}
	if errors.Is(err, &Error{Class: ErrorClassResolution, Code: ErrCodeUnknownDataset}) {
		t.Error("different codes must not match")
	}
	if errors.Is(err, &Error{Class: ErrorClassDispatch, Code: ErrCodeUnknownItem}) {
		t.Error("different classes must not match")
	}
}

func TestHasClassAndHasCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w",
		NewRegistrationError("empty plugin name", nil).WithCode(ErrCodeEmptyName))

	if !HasClass(err, ErrorClassRegistration) {
		t.Error("HasClass should see through wrapping")
	}
	if HasClass(err, ErrorClassDispatch) {
		t.Error("HasClass must not match a different class")
	}
	if !HasCode(err, ErrCodeEmptyName) {
		t.Error("HasCode should see through wrapping")
	}
	if HasCode(errors.New("plain"), ErrCodeEmptyName) {
		t.Error("HasCode must not match a plain error")
	}
}
