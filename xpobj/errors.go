package xpobj

import (
	"fmt"

	"github.com/pkg/errors"
)

type ErrorKind int

const (
	ErrHeader ErrorKind = iota
	ErrToken
	ErrInteger
	ErrFloat
	ErrName
	ErrMisc
	ErrPanel
)

var errorKindText = [...]string{"Header", "Command", "Integer", "Number", "Name", "Misc", "Panel"}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(errorKindText) {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return errorKindText[k]
}

// ParseError aborts an import. Line is 0 when the error is not tied to input.
type ParseError struct {
	Kind  ErrorKind
	Line  int
	Token string
	Msg   string
}

func (e *ParseError) Error() string {
	s := fmt.Sprintf("%s error", e.Kind)
	if e.Line > 0 {
		s = fmt.Sprintf("line %d: %s", e.Line, s)
	}
	if e.Token != "" {
		s += fmt.Sprintf(" near %q", e.Token)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

// IsKind reports whether err is a *ParseError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Kind == kind
}
