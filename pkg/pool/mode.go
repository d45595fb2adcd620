package pool

import (
	"fmt"
	"strings"
)

// SubmitMode controls what Submit does when the queue is full.
type SubmitMode int

const (
	// Wait blocks until a slot frees up or the pool shuts down.
	Wait SubmitMode = iota
	// NoWait returns ErrQueueFull without enqueuing.
	NoWait
)

func (m SubmitMode) String() string {
	switch m {
	case Wait:
		return "wait"
	case NoWait:
		return "nowait"
	default:
		return fmt.Sprintf("SubmitMode(%d)", int(m))
	}
}

// ParseSubmitMode parses "wait" or "nowait".
func ParseSubmitMode(s string) (SubmitMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wait":
		return Wait, nil
	case "nowait", "no-wait", "no_wait":
		return NoWait, nil
	}
	return Wait, fmt.Errorf("%w: submit mode %q", ErrInvalidMode, s)
}

// ShutdownMode controls what happens to queued tasks on Shutdown.
type ShutdownMode int

const (
	// Complete runs every queued task before Shutdown returns.
	Complete ShutdownMode = iota
	// Discard drops queued tasks without running them.
	Discard
)

func (m ShutdownMode) String() string {
	switch m {
	case Complete:
		return "complete"
	case Discard:
		return "discard"
	default:
		return fmt.Sprintf("ShutdownMode(%d)", int(m))
	}
}

// ParseShutdownMode parses "complete" or "discard".
func ParseShutdownMode(s string) (ShutdownMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "complete":
		return Complete, nil
	case "discard":
		return Discard, nil
	}
	return Complete, fmt.Errorf("%w: shutdown mode %q", ErrInvalidMode, s)
}
