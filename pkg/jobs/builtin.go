package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fluxorio/beehive/pkg/logger"
	"github.com/fluxorio/beehive/pkg/pool"
)

// maxSleep caps the sleep job so a request cannot pin a bee indefinitely.
const maxSleep = time.Minute

// SleepRequest is the payload of the "sleep" job.
type SleepRequest struct {
	DurationMS int `json:"duration_ms"`
}

// LogRequest is the payload of the "log" job.
type LogRequest struct {
	Message string `json:"message"`
}

// RegisterBuiltins registers the "noop", "sleep" and "log" jobs.
func RegisterBuiltins(r *Registry, l logger.Logger) error {
	if l == nil {
		l = r.logger
	}
	builtins := map[string]Handler{
		"noop":  func(context.Context, []byte) error { return nil },
		"sleep": Sleep,
		"log":   Log(l),
	}
	for _, kind := range []string{"noop", "sleep", "log"} {
		if err := r.Register(kind, builtins[kind]); err != nil {
			return err
		}
	}
	return nil
}

// Sleep blocks for the requested duration or until ctx is done.
func Sleep(ctx context.Context, payload []byte) error {
	var req SleepRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	d := time.Duration(req.DurationMS) * time.Millisecond
	if d < 0 || d > maxSleep {
		return fmt.Errorf("sleep duration %v out of range [0, %v]", d, maxSleep)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Log returns a handler that writes the payload message at info level.
func Log(l logger.Logger) Handler {
	return func(ctx context.Context, payload []byte) error {
		var req LogRequest
		if err := decode(payload, &req); err != nil {
			return err
		}
		l.Infof("task %s: %s", pool.TaskID(ctx), req.Message)
		return nil
	}
}

func decode(payload []byte, v interface{}) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("json decode failed: %w", err)
	}
	return nil
}
