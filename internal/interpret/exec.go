package interpret

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// DefaultExecTimeout bounds one interpreter invocation. The segment
// must leave Processing within this time even when the helper hangs.
const DefaultExecTimeout = 5 * time.Second

// Exec runs an external interpreter binary per segment. The segment
// buffers are marshaled as JSON to stdin; the helper answers with a
// JSON Result on stdout.
type Exec struct {
	path    string
	timeout time.Duration
}

// NewExec creates an Exec interpreter for the given helper binary.
// A non-positive timeout falls back to DefaultExecTimeout.
func NewExec(path string, timeout time.Duration) *Exec {
	if timeout <= 0 {
		timeout = DefaultExecTimeout
	}
	return &Exec{path: path, timeout: timeout}
}

// execRequest is the JSON payload sent to the helper. Image frames are
// base64-encoded by encoding/json.
type execRequest struct {
	Frames []detector.HandFrame `json:"frames"`
	Images [][]byte             `json:"images,omitempty"`
}

// Interpret invokes the helper once for the segment.
func (e *Exec) Interpret(ctx context.Context, landmarks []detector.HandFrame, images [][]byte) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	reqJSON, err := json.Marshal(execRequest{Frames: landmarks, Images: images})
	if err != nil {
		return Result{}, fmt.Errorf("marshal segment: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.path)
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return Result{}, fmt.Errorf("interpreter timeout after %s", e.timeout)
	}

	if err != nil {
		if stderr.Len() > 0 {
			return Result{}, fmt.Errorf("interpreter failed: %w, stderr: %s", err, stderr.String())
		}
		return Result{}, fmt.Errorf("interpreter failed: %w", err)
	}

	var result Result
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return Result{}, fmt.Errorf("parse interpreter response: %w", err)
	}

	return result, nil
}
