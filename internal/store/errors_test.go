package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hyperengineering/labbook/internal/types"
	"github.com/hyperengineering/labbook/internal/validation"
)

var sentinels = []struct {
	name string
	err  error
}{
	{"ErrNotFound", ErrNotFound},
	{"ErrDuplicateName", ErrDuplicateName},
	{"ErrConstraintViolation", ErrConstraintViolation},
	{"ErrConcurrencyConflict", ErrConcurrencyConflict},
	{"ErrInvalidAction", ErrInvalidAction},
	{"ErrUnsupported", ErrUnsupported},
	{"ErrSnapshotExists", ErrSnapshotExists},
}

func TestSentinelErrors_Identity(t *testing.T) {
	for _, s := range sentinels {
		t.Run(s.name, func(t *testing.T) {
			if s.err == nil {
				t.Fatal("Sentinel error should not be nil")
			}
			if s.err.Error() == "" {
				t.Fatal("Sentinel error should have a message")
			}
		})
	}
}

func TestSentinelErrors_WrappedIdentity(t *testing.T) {
	for _, s := range sentinels {
		t.Run(s.name+"_wrapped", func(t *testing.T) {
			wrapped := fmt.Errorf("operation failed: %w", s.err)
			if !errors.Is(wrapped, s.err) {
				t.Errorf("errors.Is should return true for wrapped %s", s.name)
			}
		})
	}
}

func TestErrValidation_MatchesFieldErrors(t *testing.T) {
	err := fmt.Errorf("item 0: %w", validation.Field("name", "is required"))
	if !errors.Is(err, ErrValidation) {
		t.Errorf("errors.Is(%v, ErrValidation) = false", err)
	}
	if errors.Is(ErrNotFound, ErrValidation) {
		t.Error("ErrNotFound should not match ErrValidation")
	}
}

func TestClassifyConstraint(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		kind types.Kind
		want error
	}{
		{"recipe name", "constraint failed: UNIQUE constraint failed: recipes.name (2067)", types.KindRecipe, ErrDuplicateName},
		{"culture sequence", "constraint failed: UNIQUE constraint failed: cultures.created_on, cultures.seq (2067)", types.KindCulture, ErrConcurrencyConflict},
		{"foreign key", "constraint failed: FOREIGN KEY constraint failed (787)", types.KindTerminal, ErrConstraintViolation},
		{"check", "constraint failed: CHECK constraint failed: action IN ('destroyed') (275)", types.KindCulture, ErrConstraintViolation},
		{"not null", "constraint failed: NOT NULL constraint failed: recipes.name (1299)", types.KindRecipe, ErrConstraintViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := errors.New(tt.msg)
			got := classifyConstraint(raw, tt.kind)
			if !errors.Is(got, tt.want) {
				t.Errorf("classifyConstraint(%q) = %v, want %v", tt.msg, got, tt.want)
			}
			if !errors.Is(got, raw) {
				t.Error("original error should stay in the chain")
			}
		})
	}

	other := errors.New("disk I/O error")
	if got := classifyConstraint(codedError{code: 1, msg: "SQL logic error"}, types.KindCulture); errors.Is(got, ErrConcurrencyConflict) {
		t.Errorf("generic error classified as conflict: %v", got)
	}
	if got := classifyConstraint(other, types.KindCulture); got != other {
		t.Errorf("unrelated error rewrapped: %v", got)
	}
	if classifyConstraint(nil, types.KindCulture) != nil {
		t.Error("nil error should stay nil")
	}
}

// codedError mimics a driver error carrying an SQLite result code.
type codedError struct {
	code int
	msg  string
}

func (e codedError) Error() string { return e.msg }
func (e codedError) Code() int     { return e.code }

func TestClassifyConstraint_LockedDatabase(t *testing.T) {
	tests := []struct {
		name string
		code int
	}{
		{"busy", 5},
		{"busy snapshot", 517},
		{"locked", 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := codedError{code: tt.code, msg: fmt.Sprintf("database is locked (%d)", tt.code)}
			got := classifyConstraint(fmt.Errorf("insert culture: %w", raw), types.KindCulture)
			if !errors.Is(got, ErrConcurrencyConflict) {
				t.Errorf("classifyConstraint(code %d) = %v, want ErrConcurrencyConflict", tt.code, got)
			}
			if reason := failureReason(got); reason != "conflict" {
				t.Errorf("failureReason = %q, want conflict", reason)
			}
		})
	}
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: %w", ErrInvalidAction, validation.Field("action", "bad")), "invalid_action"},
		{fmt.Errorf("%w: %w", validation.Field("culture_id", "missing"), ErrNotFound), "not_found"},
		{validation.Field("name", "is required"), "validation"},
		{fmt.Errorf("x: %w", ErrDuplicateName), "duplicate_name"},
		{fmt.Errorf("x: %w", ErrConcurrencyConflict), "conflict"},
		{fmt.Errorf("x: %w", ErrConstraintViolation), "constraint"},
		{fmt.Errorf("x: %w", ErrUnsupported), "unsupported"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := failureReason(tt.err); got != tt.want {
			t.Errorf("failureReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
