package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrArtifactExists   = errors.New("artifact already exists")
)

// ProcessError reports a dump, restore or ping tool that ran but exited non-zero.
type ProcessError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	if msg == "" {
		return fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Tool, e.ExitCode, msg)
}

// TransferError wraps a failed exchange with remote storage.
type TransferError struct {
	Op   string
	Name string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer failed: %s %s: %v", e.Op, e.Name, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }
