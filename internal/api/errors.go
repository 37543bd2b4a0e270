package api

import (
	"errors"
	"fmt"
)

// NetworkError means the request never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: connection failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RemoteError is a response the backend marked as failed, either with a
// non-2xx status or with an error carried in a 2xx body.
type RemoteError struct {
	Op      string
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, e.Message)
}

// IsNetwork reports whether err is a connectivity failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// RemoteMessage returns the backend-provided message of a RemoteError, or "".
func RemoteMessage(err error) string {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Message
	}
	return ""
}
