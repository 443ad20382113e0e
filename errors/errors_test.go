package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSaveError_Error(t *testing.T) {
	tests := []struct {
		name      string
		op        Operation
		component string
		code      ErrorCode
		err       error
		want      string
	}{
		{
			name:      "with component and code",
			op:        OpSave,
			component: "client",
			code:      ErrCodeNetworkFailure,
			err:       fmt.Errorf("failed to connect"),
			want:      "save operation failed in client component [NETWORK_FAILURE]: failed to connect",
		},
		{
			name:      "with component no code",
			op:        OpSave,
			component: "client",
			err:       fmt.Errorf("failed to connect"),
			want:      "save operation failed in client component: failed to connect",
		},
		{
			name: "without component with code",
			op:   OpConflictResolve,
			code: ErrCodeConflictFailure,
			err:  fmt.Errorf("version mismatch"),
			want: "conflict_resolve operation failed [CONFLICT_FAILURE]: version mismatch",
		},
		{
			name: "without component or code",
			op:   OpReset,
			err:  fmt.Errorf("already closed"),
			want: "reset operation failed: already closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &SaveError{
				Op:        tt.op,
				Component: tt.component,
				Err:       tt.err,
				Code:      tt.code,
			}

			if got := e.Error(); got != tt.want {
				t.Errorf("SaveError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewTransientError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	saveErr := NewTransientError(OpSave, cause)

	if saveErr.Code != ErrCodeNetworkFailure {
		t.Errorf("NewTransientError() Code = %v, want %v", saveErr.Code, ErrCodeNetworkFailure)
	}
	if saveErr.Component != "client" {
		t.Errorf("NewTransientError() Component = %v, want %v", saveErr.Component, "client")
	}
	if saveErr.Kind != KindTransient {
		t.Errorf("NewTransientError() Kind = %v, want %v", saveErr.Kind, KindTransient)
	}
	if saveErr.Err != cause {
		t.Errorf("NewTransientError() Err = %v, want %v", saveErr.Err, cause)
	}
	if !saveErr.Retryable {
		t.Error("NewTransientError() created non-retryable error")
	}
}

func TestNewConflictError(t *testing.T) {
	cause := fmt.Errorf("server copy changed")
	saveErr := NewConflictError(OpSave, cause)

	if saveErr.Code != ErrCodeConflictFailure {
		t.Errorf("NewConflictError() Code = %v, want %v", saveErr.Code, ErrCodeConflictFailure)
	}
	if saveErr.Kind != KindConflict {
		t.Errorf("NewConflictError() Kind = %v, want %v", saveErr.Kind, KindConflict)
	}
	if saveErr.Retryable {
		t.Error("NewConflictError() created retryable error when it shouldn't")
	}
}

func TestNewExhaustedError(t *testing.T) {
	cause := fmt.Errorf("3 consecutive failures")
	saveErr := NewExhaustedError(OpSave, cause)

	if saveErr.Code != ErrCodeRetryExhausted {
		t.Errorf("NewExhaustedError() Code = %v, want %v", saveErr.Code, ErrCodeRetryExhausted)
	}
	if saveErr.Kind != KindExhausted {
		t.Errorf("NewExhaustedError() Kind = %v, want %v", saveErr.Kind, KindExhausted)
	}
	if saveErr.Retryable {
		t.Error("NewExhaustedError() created retryable error when it shouldn't")
	}
}

func TestNewStorageError(t *testing.T) {
	cause := fmt.Errorf("disk full")
	saveErr := NewStorageError(OpDraftStore, cause)

	if saveErr.Code != ErrCodeStorageFailure {
		t.Errorf("NewStorageError() Code = %v, want %v", saveErr.Code, ErrCodeStorageFailure)
	}
	if saveErr.Component != "store" {
		t.Errorf("NewStorageError() Component = %v, want %v", saveErr.Component, "store")
	}
	if !saveErr.Retryable {
		t.Error("NewStorageError() created non-retryable error")
	}
}

func TestE_Builder(t *testing.T) {
	cause := fmt.Errorf("bad config")
	e := E(Op("config_load"), Component("config"), KindInvalid, ErrCodeValidationFailure, cause, "missing field")

	if e.Op != OpConfigLoad {
		t.Errorf("E() Op = %v, want %v", e.Op, OpConfigLoad)
	}
	if e.Component != "config" {
		t.Errorf("E() Component = %v, want config", e.Component)
	}
	if e.Kind != KindInvalid {
		t.Errorf("E() Kind = %v, want %v", e.Kind, KindInvalid)
	}
	if e.Err != cause {
		t.Errorf("E() Err = %v, want %v", e.Err, cause)
	}
	if e.Metadata["note"] != "missing field" {
		t.Errorf("E() Metadata note = %v, want 'missing field'", e.Metadata["note"])
	}
	if e.Retryable {
		t.Error("E() with KindInvalid should not be retryable")
	}
}

func TestE_TransientKindIsRetryable(t *testing.T) {
	e := E(OpSave, KindTransient, fmt.Errorf("timeout"))
	if !e.Retryable {
		t.Error("E() with KindTransient should be retryable")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"retryable save error", NewRetryable(OpSave, fmt.Errorf("x")), true},
		{"non-retryable save error", NewValidationError(OpSave, fmt.Errorf("x")), false},
		{"wrapped retryable", fmt.Errorf("outer: %w", NewTransientError(OpSave, fmt.Errorf("x"))), true},
		{"plain error", errors.New("plain"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(NewConflictError(OpSave, fmt.Errorf("x"))); got != KindConflict {
		t.Errorf("KindOf() = %v, want %v", got, KindConflict)
	}
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("KindOf(plain) = %v, want %v", got, KindInternal)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	e := NewWithComponent(OpSave, "client", cause)

	if !errors.Is(e, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}

func TestWrapOpComponent(t *testing.T) {
	if WrapOpComponent(nil, "save", "client") != nil {
		t.Error("WrapOpComponent(nil) should return nil")
	}

	cause := errors.New("boom")
	err := WrapOpComponent(cause, "save", "client")
	var saveErr *SaveError
	if !errors.As(err, &saveErr) {
		t.Fatal("WrapOpComponent should produce a *SaveError")
	}
	if saveErr.Op != OpSave || saveErr.Component != "client" {
		t.Errorf("WrapOpComponent produced Op=%v Component=%v", saveErr.Op, saveErr.Component)
	}
}
