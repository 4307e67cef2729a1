package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands. Every search outcome, including a cancelled
// or exhausted search, exits with ExitSuccess.
const (
	ExitSuccess     = 0
	ExitFailure     = 1 // usage, configuration or store errors
	ExitTargetError = 2 // the target could not be opened or checked
)

// ExitError carries the exit code a command wants the process to end with.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from err. Errors that are not an
// ExitError map to ExitFailure, nil to ExitSuccess.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as text or JSON.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Response is the JSON envelope for commands other than a search.
type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Success writes data as JSON, or calls text to print it for people.
func (f *OutputFormatter) Success(data interface{}, text func(w io.Writer) error) error {
	if f.Format == FormatJSON {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(Response{Status: "ok", Data: data})
	}
	return text(f.Writer)
}
