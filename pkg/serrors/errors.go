package serrors

import "fmt"

// Base is a coded error shared by every API-facing error in the SDK.
// Code is a stable machine-readable identifier, Message is safe to show
// to a caller, and Details carries optional operator-facing context.
type Base struct {
	Code    string
	Message string
	Details string
}

func NewError(code, message, details string) *Base {
	return &Base{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func (e *Base) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
}

func (e *Base) WithDetails(format string, args ...any) *Base {
	return &Base{
		Code:    e.Code,
		Message: e.Message,
		Details: fmt.Sprintf(format, args...),
	}
}

// Is matches coded errors by code so sentinel comparisons survive WithDetails.
func (e *Base) Is(target error) bool {
	t, ok := target.(*Base)
	if !ok {
		return false
	}
	return t.Code == e.Code
}
