package app

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// ErrorKind вид ошибки обработки снимка.
type ErrorKind string

const (
	KindFileNotFound  ErrorKind = "FileNotFound"
	KindImageDecode   ErrorKind = "ImageDecodeError"
	KindResponseParse ErrorKind = "ResponseParseError"
	KindEncodeIO      ErrorKind = "EncodeIOError"
	KindUnclassified  ErrorKind = "Unclassified"
)

// DetectionError ошибка с видом и стеком на момент возникновения.
type DetectionError struct {
	Kind  ErrorKind
	Err   error
	Stack []byte
}

func newError(kind ErrorKind, err error) *DetectionError {
	return &DetectionError{Kind: kind, Err: err, Stack: debug.Stack()}
}

func (e *DetectionError) Error() string {
	return e.Err.Error()
}

func (e *DetectionError) Unwrap() error {
	return e.Err
}

// Details диагностический след: вид, цепочка причин и стек.
func (e *DetectionError) Details() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v\n", e.Kind, e.Err)
	for cause := errors.Unwrap(e.Err); cause != nil; cause = errors.Unwrap(cause) {
		fmt.Fprintf(&b, "caused by: %v\n", cause)
	}
	b.Write(e.Stack)
	return b.String()
}

// KindOf возвращает вид ошибки, для посторонних ошибок KindUnclassified.
func KindOf(err error) ErrorKind {
	var de *DetectionError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnclassified
}
