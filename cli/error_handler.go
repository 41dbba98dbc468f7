package cli

import (
	"fmt"
	"io"

	"github.com/grovetools/uptask/errors"
	"github.com/grovetools/uptask/tui/theme"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates an error handler writing to out.
func NewErrorHandler(out io.Writer, verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     out,
	}
}

// Handle prints err with a hint matching its code and returns it unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	t := theme.DefaultTheme
	fail := func(msg string) {
		fmt.Fprintf(h.Out, "%s %s\n", t.Error.Render(theme.IconError), msg)
	}
	hint := func(msg string) {
		fmt.Fprintln(h.Out, t.Muted.Render(msg))
	}

	switch errors.GetCode(err) {
	case errors.ErrCodeAuthAbsent:
		fail("You are not logged in.")
		hint("Run 'uptask login' to start a session.")

	case errors.ErrCodeUnauthorized:
		fail(errors.ServerMessage(err))
		hint("Your session may have expired. Run 'uptask login' again.")

	case errors.ErrCodeValidation, errors.ErrCodeInvalidInput, errors.ErrCodeNotFound, errors.ErrCodeRequestFailed:
		fail(errors.ServerMessage(err))

	case errors.ErrCodeChannelClosed, errors.ErrCodeChannelFailed:
		fail(errors.ServerMessage(err))
		hint("Live updates are unavailable. Check channel_url in uptask.yml.")

	case errors.ErrCodeConfigNotFound:
		fail(errors.ServerMessage(err))
		hint("Run 'uptask config schema' to see the available settings.")

	case errors.ErrCodeConfigInvalid:
		fail(err.Error())

	default:
		fail(fmt.Sprintf("Error: %v", err))
	}

	if h.Verbose {
		if ue, ok := errors.As(err); ok {
			fmt.Fprintf(h.Out, "\nError details:\n%s\n", ue.ToJSON())
		}
	}
	return err
}
