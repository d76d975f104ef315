package printing

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures on the print path
type ErrorKind string

const (
	KindConfiguration        ErrorKind = "CONFIGURATION_ERROR"
	KindUnsupportedCharacter ErrorKind = "UNSUPPORTED_CHARACTER"
	KindUnsupportedStyle     ErrorKind = "UNSUPPORTED_STYLE"
	KindDeviceUnavailable    ErrorKind = "DEVICE_UNAVAILABLE"
	KindDeviceBusy           ErrorKind = "DEVICE_BUSY"
	KindWriteFailed          ErrorKind = "WRITE_FAILED"
	KindLayoutOverflow       ErrorKind = "LAYOUT_OVERFLOW"
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	return string(k)
}

// PrintError is the error type returned by layout, encoding and dispatch
type PrintError struct {
	Kind    ErrorKind
	Message string
	Device  string
	Cause   error
}

// Error implements the error interface
func (e *PrintError) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Device != "" {
		msg += fmt.Sprintf(" (device %q)", e.Device)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *PrintError) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors by kind. A target carrying a message or device
// only matches an error with the same values.
func (e *PrintError) Is(target error) bool {
	t, ok := target.(*PrintError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.Message != "" && t.Message != e.Message {
		return false
	}
	if t.Device != "" && t.Device != e.Device {
		return false
	}
	return true
}

// Sentinels for errors.Is
var (
	ErrConfiguration        = &PrintError{Kind: KindConfiguration}
	ErrUnsupportedCharacter = &PrintError{Kind: KindUnsupportedCharacter}
	ErrDeviceUnavailable    = &PrintError{Kind: KindDeviceUnavailable}
	ErrDeviceBusy           = &PrintError{Kind: KindDeviceBusy}
	ErrWriteFailed          = &PrintError{Kind: KindWriteFailed}
)

// NewConfigurationError creates a configuration error
func NewConfigurationError(format string, args ...any) *PrintError {
	return &PrintError{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// NewUnsupportedCharacterError reports a rune the target cannot encode.
// pos is the rune index within text.
func NewUnsupportedCharacterError(target BackendKind, text string, r rune, pos int) *PrintError {
	return &PrintError{
		Kind:    KindUnsupportedCharacter,
		Message: fmt.Sprintf("%s cannot encode %q (U+%04X) at position %d of %q", target, r, r, pos, text),
	}
}

// NewDeviceUnavailableError reports a device that could not be opened
func NewDeviceUnavailableError(device string, cause error) *PrintError {
	return &PrintError{Kind: KindDeviceUnavailable, Message: "device could not be opened", Device: device, Cause: cause}
}

// NewDeviceBusyError reports a device held by another dispatch past the wait bound
func NewDeviceBusyError(device string, cause error) *PrintError {
	return &PrintError{Kind: KindDeviceBusy, Message: "device is held by another job", Device: device, Cause: cause}
}

// NewWriteFailedError reports a write that did not complete
func NewWriteFailedError(device string, cause error) *PrintError {
	return &PrintError{Kind: KindWriteFailed, Message: "write did not complete", Device: device, Cause: cause}
}

// KindOf returns the kind of the first PrintError in err's chain, or "" if none
func KindOf(err error) ErrorKind {
	var pe *PrintError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsEncodeError reports whether err was raised while building or encoding
// output. Such errors are never retried.
func IsEncodeError(err error) bool {
	switch KindOf(err) {
	case KindConfiguration, KindUnsupportedCharacter, KindUnsupportedStyle:
		return true
	}
	return false
}

// IsDeviceError reports whether err came from acquiring or writing a device
func IsDeviceError(err error) bool {
	switch KindOf(err) {
	case KindDeviceUnavailable, KindDeviceBusy, KindWriteFailed:
		return true
	}
	return false
}
