package diag

import "encoding/json"

// Error codes for CLIError, used by the CLI collaborator's I/O layer.
// The core Check pipeline never returns a Go error — it always returns a
// diagnostic list — these exist only for the file-reading and flag-parsing
// failures that sit outside the pipeline proper.
const (
	ErrIO            = "ERR_IO"
	ErrInvalidConfig = "ERR_INVALID_CONFIG"
)

// CLIError is a uniform error payload for both human and JSON CLI output.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e CLIError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// JSON renders the error as a JSON object.
func (e CLIError) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// Wrap builds a CLIError with the given code and message, retaining the
// inner error's text as Detail.
func Wrap(code, msg string, inner error) error {
	return CLIError{Code: code, Message: msg, Detail: inner.Error()}
}
