package configerr

import (
	"errors"
	"fmt"
)

// Format formats an error into a single human-readable line for terminal output.
// Configuration errors are prefixed with their kind; other errors are printed as-is.
func Format(err error) string {
	var ce *Error
	if !errors.As(err, &ce) {
		return err.Error()
	}
	return fmt.Sprintf("%s: %s", ce.Kind, ce.Error())
}

// FormatCI formats an error as a GitHub Actions error annotation for the given file.
func FormatCI(err error, file string) string {
	var ce *Error
	if !errors.As(err, &ce) {
		return fmt.Sprintf("::error file=%s::%s", file, err.Error())
	}
	return fmt.Sprintf("::error file=%s,title=%s::%s", file, ce.Kind, ce.Error())
}
