package services

import "errors"

const statusSuccess = "success"

// ErrRemote is matched by every failure reported by the Gateway.
var ErrRemote = errors.New("remote call failed")

// RemoteError describes a failed API call. Message is suitable for showing
// to the user verbatim.
type RemoteError struct {
	Op         string
	StatusCode int
	Status     string
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return e.Op + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Message
}

func (e *RemoteError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrRemote, e.Err}
	}
	return []error{ErrRemote}
}

// UserMessage extracts the text to show for err.
func UserMessage(err error) string {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Message
	}
	return err.Error()
}
