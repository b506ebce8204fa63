package formats

import (
	"errors"
	"fmt"
)

// Error kinds shared by every decoder in this package.
var (
	ErrFormatMismatch   = errors.New("format mismatch")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrIO               = errors.New("i/o error")
	ErrRange            = errors.New("out of range")
	ErrParse            = errors.New("parse error")

	ErrTruncated = errors.New("truncated data")
)

// ErrorKind classifies a decode failure.
type ErrorKind int

const (
	KindFormat   ErrorKind = iota + 1 // bad magic or version
	KindChecksum                      // companion files disagree
	KindIO                            // file missing or unreadable
	KindRange                         // LOD index or table offset out of bounds
	KindParse                         // material script failure
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindFormat:
		return "FormatMismatch"
	case KindChecksum:
		return "ChecksumMismatch"
	case KindIO:
		return "IoError"
	case KindRange:
		return "RangeError"
	case KindParse:
		return "ParseError"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindFormat:
		return ErrFormatMismatch
	case KindChecksum:
		return ErrChecksumMismatch
	case KindIO:
		return ErrIO
	case KindRange:
		return ErrRange
	case KindParse:
		return ErrParse
	}
	return nil
}

// FileKind names the file an error refers to.
type FileKind string

// File kinds.
const (
	FileStudio   FileKind = "mdl"
	FileStrip    FileKind = "vtx"
	FileVertex   FileKind = "vvd"
	FileTexture  FileKind = "vtf"
	FileMaterial FileKind = "vmt"
)

// Error is the typed error returned by all decoders.
// errors.Is matches it against the sentinel of its Kind.
type Error struct {
	Kind  ErrorKind
	File  FileKind
	Field string
	Err   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.File, e.Kind.sentinel())
	if e.Field != "" {
		msg += " in " + e.Field
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// NewError builds an *Error. A nil cause is allowed.
func NewError(kind ErrorKind, file FileKind, field string, err error) *Error {
	return &Error{Kind: kind, File: file, Field: field, Err: err}
}

func formatError(file FileKind, field string, err error) error {
	return NewError(KindFormat, file, field, err)
}

func rangeError(file FileKind, field string, err error) error {
	return NewError(KindRange, file, field, err)
}

func parseError(field string, err error) error {
	return NewError(KindParse, FileMaterial, field, err)
}
