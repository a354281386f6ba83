// Package errors provides structured error types for the cstruct library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go/C type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseWrite, errors.KindTypeMismatch).
//		Path("VkExtent2D", "width").
//		GoType("string").
//		CType("uint32_t").
//		Detail("cannot convert string to integer").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Schema(path, "duplicate order %d", 3)
//	err := errors.LengthMismatch(path, 5, 4)
//
// The sentinels ErrSchema, ErrLengthMismatch, ErrBindingNotConfigured and
// ErrUnsupported match any error of their kind:
//
//	if errors.Is(err, cserrors.ErrLengthMismatch) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
