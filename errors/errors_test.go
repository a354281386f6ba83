package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseWrite,
				Kind:   KindTypeMismatch,
				Path:   []string{"SDL_Rect", "origin", "x"},
				GoType: "string",
				CType:  "int32_t",
				Detail: "cannot convert",
			},
			contains: []string{"[write]", "type_mismatch", "SDL_Rect.origin.x", "string", "int32_t", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseRead,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[read]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseBinding,
				Kind:   KindAllocation,
				Detail: "guest memory full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[binding]", "allocation", "guest memory full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseWrite,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseWrite,
		Kind:  KindTypeMismatch,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseWrite, Kind: KindTypeMismatch}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseRead, Kind: KindTypeMismatch}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseWrite, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}
	if !err.Is(&Error{Kind: KindTypeMismatch}) {
		t.Error("phaseless target should match on kind")
	}
	if err.Is(errors.New("other")) {
		t.Error("Is should not match foreign error")
	}
}

func TestSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"schema", Schema([]string{"Point"}, "duplicate order %d", 1), ErrSchema},
		{"length", LengthMismatch([]string{"data"}, 5, 4), ErrLengthMismatch},
		{"binding read", BindingNotConfigured(PhaseRead, nil), ErrBindingNotConfigured},
		{"binding write", BindingNotConfigured(PhaseWrite, nil), ErrBindingNotConfigured},
		{"unsupported", Unsupported(PhaseRead, nil, "f16"), ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false", tt.err)
			}
		})
	}

	if errors.Is(Schema(nil, "x"), ErrLengthMismatch) {
		t.Error("schema error must not match length sentinel")
	}

	wrapped := Wrap(PhaseNative, KindInvalidData, LengthMismatch(nil, 3, 2), "build args")
	if !errors.Is(wrapped, ErrLengthMismatch) {
		t.Error("sentinel should match through cause chain")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseWrite, KindTypeMismatch).
		Path("rect", "w").
		GoType("string").
		CType("uint32_t").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "integer", "string").
		Build()

	if err.Phase != PhaseWrite {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseWrite)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "rect" || err.Path[1] != "w" {
		t.Errorf("Path = %v, want [rect w]", err.Path)
	}
	if err.GoType != "string" {
		t.Errorf("GoType = %v, want 'string'", err.GoType)
	}
	if err.CType != "uint32_t" {
		t.Errorf("CType = %v, want 'uint32_t'", err.CType)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected integer, got string" {
		t.Errorf("Detail = %v", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("LengthMismatch", func(t *testing.T) {
		err := LengthMismatch([]string{"color"}, 5, 4)
		if err.Kind != KindLengthMismatch {
			t.Errorf("Kind = %v, want %v", err.Kind, KindLengthMismatch)
		}
		if err.Value != 5 {
			t.Errorf("Value = %v, want 5", err.Value)
		}
	})

	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(PhaseBinding, 1024, 8, nil)
		if err.Kind != KindAllocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAllocation)
		}
		if !strings.Contains(err.Detail, "1024") {
			t.Errorf("Detail = %v, should contain size", err.Detail)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseRead, []string{"list"}, 10, 5)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != 10 {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})

	t.Run("NilPointer", func(t *testing.T) {
		err := NilPointer(PhaseRead, []string{"next"}, "struct pointer")
		if err.Kind != KindNilPointer {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNilPointer)
		}
	})

	t.Run("FieldUnknown", func(t *testing.T) {
		err := FieldUnknown(PhaseRead, []string{"VkExtent2D"}, "depth")
		if err.Kind != KindFieldUnknown {
			t.Errorf("Kind = %v, want %v", err.Kind, KindFieldUnknown)
		}
		if !strings.Contains(err.Error(), `"depth"`) {
			t.Errorf("message %q should quote field name", err.Error())
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseLoad, "struct", "Point")
		if err.Kind != KindNotFound {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotFound)
		}
	})

	t.Run("ParseFailed", func(t *testing.T) {
		err := ParseFailed("schema document", errors.New("bad yaml"))
		if err.Phase != PhaseLoad || err.Cause == nil {
			t.Errorf("unexpected error %+v", err)
		}
	})
}
