package native

import (
	"strings"

	"github.com/wippyai/cstruct/errors"
)

// LibError reports a failure to load, resolve or call into a library.
type LibError struct {
	Cause   error
	Library string
	Symbol  string
	Op      string
}

func (e *LibError) Error() string {
	var b strings.Builder
	b.WriteString("native ")
	b.WriteString(e.Op)
	if e.Library != "" {
		b.WriteString(" ")
		b.WriteString(e.Library)
	}
	if e.Symbol != "" {
		b.WriteString(": ")
		b.WriteString(e.Symbol)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *LibError) Unwrap() error {
	return e.Cause
}

func unsupported() error {
	return errors.Unsupported(errors.PhaseNative, nil, "dynamic loading on this platform")
}
