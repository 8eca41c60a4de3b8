package speech

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
)

// ErrNoSynthesizer is returned when no synthesis tool was found.
var ErrNoSynthesizer = errors.New("no speech synthesizer found")

// Speaker speaks one utterance at a time through an external synthesizer.
// Starting a new utterance cancels the current one first.
type Speaker struct {
	mu      sync.Mutex
	command string
	args    []string
	cmd     *exec.Cmd
}

// NewSpeaker picks the first synthesizer present on the host.
func NewSpeaker() (*Speaker, error) {
	c := find(synthCandidates)
	if c == nil {
		return nil, ErrNoSynthesizer
	}
	return &Speaker{command: c.command, args: c.args}, nil
}

// NewSpeakerCommand builds a Speaker around an explicit command. The
// utterance text is appended to args.
func NewSpeakerCommand(command string, args ...string) *Speaker {
	return &Speaker{command: command, args: args}
}

// Speak cancels any current utterance and starts speaking text. It returns
// once playback has started.
func (s *Speaker) Speak(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	args := append(append([]string{}, s.args...), text)
	cmd := exec.Command(s.command, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start synthesizer: %w", err)
	}
	s.cmd = cmd

	go func() {
		cmd.Wait()
		s.mu.Lock()
		if s.cmd == cmd {
			s.cmd = nil
		}
		s.mu.Unlock()
	}()
	return nil
}

// Stop cancels the current utterance, if any.
func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Speaker) stopLocked() {
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd = nil
}

// Speaking reports whether an utterance is in flight.
func (s *Speaker) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmd != nil
}
