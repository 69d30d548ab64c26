package tui

import (
	"errors"
	"fmt"

	"github.com/pders01/mrkt/internal/marketplace"
)

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// describeError turns a fetch error into a line fit for the error state.
func describeError(err error) string {
	var se *marketplace.StatusError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &se):
		if se.Message != "" {
			return fmt.Sprintf("The server answered %d: %s", se.Code, se.Message)
		}
		return fmt.Sprintf("The server answered %d", se.Code)
	case errors.Is(err, marketplace.ErrInvalidPayload):
		return "The server sent a response that could not be read"
	case errors.Is(err, marketplace.ErrTransport):
		return "The marketplace API could not be reached"
	default:
		return err.Error()
	}
}
