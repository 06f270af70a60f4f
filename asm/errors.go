package asm

import (
	"fmt"

	"github.com/pkg/errors"
)

// wrap annotates err with a call-site message using pkg/errors, preserving
// the original *Error (and its structured fields) for errors.As while still
// letting a %+v format verb print the chain of context during development.
func wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.WithMessage(err, message)
}

// ErrorKind enumerates the diagnostic categories the tokenizer and parser
// can raise. Every ErrorKind is reported through an *Error carrying its
// source location, so a caller can render "line:col: message" style
// diagnostics.
type ErrorKind int

const (
	InvalidLiteral ErrorKind = iota
	UnclosedStringLiteral
	IllegalCharacter
	IllegalLineStart
	ExpectingComma
	ExpectingOperand
	ExpectingLiteral
	ExpectingRightBracket
	ExpectingLabel
	EndOfTokens
	ExtraTokens
	IncorrectPushPop
	UnknownLabel
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidLiteral:
		return "InvalidLiteral"
	case UnclosedStringLiteral:
		return "UnclosedStringLiteral"
	case IllegalCharacter:
		return "IllegalCharacter"
	case IllegalLineStart:
		return "IllegalLineStart"
	case ExpectingComma:
		return "ExpectingComma"
	case ExpectingOperand:
		return "ExpectingOperand"
	case ExpectingLiteral:
		return "ExpectingLiteral"
	case ExpectingRightBracket:
		return "ExpectingRightBracket"
	case ExpectingLabel:
		return "ExpectingLabel"
	case EndOfTokens:
		return "EndOfTokens"
	case ExtraTokens:
		return "ExtraTokens"
	case IncorrectPushPop:
		return "IncorrectPushPop"
	case UnknownLabel:
		return "UnknownLabel"
	default:
		return "UnknownError"
	}
}

// Error is the single diagnostic type the tokenizer and parser raise. Line
// and Col are 1-based; Len is the span of the offending token in runes,
// used by callers that want to underline source.
type Error struct {
	Line, Col, Len int
	Kind           ErrorKind
	Label          string // set only for UnknownLabel
}

func (e *Error) Error() string {
	if e.Kind == UnknownLabel {
		return fmt.Sprintf("%d:%d: undefined label %q", e.Line, e.Col, e.Label)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Kind)
}

func newError(line, col, length int, kind ErrorKind) *Error {
	return &Error{Line: line, Col: col, Len: length, Kind: kind}
}
