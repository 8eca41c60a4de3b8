package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// ErrNoRecognizer is returned when no recognition tool was found.
var ErrNoRecognizer = errors.New("no speech recognizer found")

// Recognizer captures a single utterance through an external recognition
// tool and returns its transcript. Only one capture runs at a time;
// starting a new one cancels the previous.
type Recognizer struct {
	mu        sync.Mutex
	command   string
	args      []string
	cancel    context.CancelFunc
	gen       uint64
	listening bool
}

// NewRecognizer picks the first recognizer present on the host.
func NewRecognizer() (*Recognizer, error) {
	c := find(recogCandidates)
	if c == nil {
		return nil, ErrNoRecognizer
	}
	return &Recognizer{command: c.command, args: c.args}, nil
}

// NewRecognizerCommand builds a Recognizer around an explicit command.
func NewRecognizerCommand(command string, args ...string) *Recognizer {
	return &Recognizer{command: command, args: args}
}

// Listen captures one utterance and returns the transcript. It blocks
// until the tool produces a result, fails, or ctx is canceled; all three
// paths leave the recognizer idle again.
func (r *Recognizer) Listen(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.gen++
	gen := r.gen
	r.listening = true
	r.mu.Unlock()

	defer func() {
		cancel()
		r.mu.Lock()
		// A newer capture may have taken over; leave its state alone.
		if r.gen == gen {
			r.listening = false
			r.cancel = nil
		}
		r.mu.Unlock()
	}()

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, r.command, r.args...)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("recognizer failed: %w", err)
	}

	transcript := strings.TrimSpace(out.String())
	if transcript == "" {
		return "", errors.New("no speech detected")
	}
	return transcript, nil
}

// Stop cancels an in-flight capture, if any.
func (r *Recognizer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

// Listening reports whether a capture is in flight.
func (r *Recognizer) Listening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listening
}
