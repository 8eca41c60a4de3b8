// Package speech wraps external speech tools for voice input and spoken
// replies. Capabilities are probed once at startup; callers hide voice
// affordances when a capability is unavailable instead of erroring later.
package speech

import (
	"os/exec"
)

// Availability is the probed state of one speech capability.
type Availability int

const (
	// Unknown means the probe has not run yet.
	Unknown Availability = iota
	Available
	Unavailable
)

func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Capabilities reports which speech features the host supports.
type Capabilities struct {
	Synthesis   Availability
	Recognition Availability
}

// candidate is an external tool that can provide a capability, with the
// argument shape for a single utterance or a single transcript.
type candidate struct {
	command string
	args    []string
}

var synthCandidates = []candidate{
	{command: "say"},
	{command: "espeak-ng"},
	{command: "espeak"},
	{command: "spd-say"},
}

var recogCandidates = []candidate{
	{command: "hear"},
	{command: "vosk-transcriber", args: []string{"--seconds", "10"}},
}

// Probe checks the host for speech tools. Run it once at startup.
func Probe() Capabilities {
	return Capabilities{
		Synthesis:   probe(synthCandidates),
		Recognition: probe(recogCandidates),
	}
}

func probe(candidates []candidate) Availability {
	if find(candidates) != nil {
		return Available
	}
	return Unavailable
}

func find(candidates []candidate) *candidate {
	for i := range candidates {
		if _, err := exec.LookPath(candidates[i].command); err == nil {
			return &candidates[i]
		}
	}
	return nil
}
