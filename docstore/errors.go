package docstore

import (
	"errors"
	"fmt"
)

// ErrConnectivity marks transport-level store failures. They abort an import run.
var ErrConnectivity = errors.New("store connectivity failure")

// ConnectivityError wraps a failed ping, connect, or write call.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrConnectivity, e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() []error {
	return []error{ErrConnectivity, e.Err}
}

func connectivity(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *ConnectivityError
	if errors.As(err, &ce) {
		return err
	}
	return &ConnectivityError{Op: op, Err: err}
}
