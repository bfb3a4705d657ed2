// Package speech renders text aloud through a locally installed speech
// command. It is the reply source of last resort before falling back to
// text only.
package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrNoSynthesizer marks hosts with no usable speech command installed.
var ErrNoSynthesizer = errors.New("no speech synthesis command available")

// Probe order. say only renders on darwin.
var candidateCommands = []string{"say", "espeak-ng", "espeak", "flite"}

// CommandSynthesizer speaks through an installed synthesis binary, blocking
// for the duration of playback.
type CommandSynthesizer struct {
	command  string
	voice    string
	rate     int
	lookPath func(string) (string, error)
}

type Option func(*CommandSynthesizer)

// WithVoice selects the synthesis voice by name.
func WithVoice(voice string) Option {
	return func(s *CommandSynthesizer) {
		s.voice = voice
	}
}

// WithRate sets the speaking rate in words per minute.
func WithRate(rate int) Option {
	return func(s *CommandSynthesizer) {
		s.rate = rate
	}
}

// WithCommand pins the synthesis command instead of probing for one.
func WithCommand(command string) Option {
	return func(s *CommandSynthesizer) {
		s.command = command
	}
}

// WithLookPath overrides command resolution.
func WithLookPath(lookPath func(string) (string, error)) Option {
	return func(s *CommandSynthesizer) {
		s.lookPath = lookPath
	}
}

// NewCommandSynthesizer probes for an installed speech command and binds to
// the first one found. It returns ErrNoSynthesizer when the host has none.
func NewCommandSynthesizer(opts ...Option) (*CommandSynthesizer, error) {
	synthesizer := &CommandSynthesizer{lookPath: exec.LookPath}
	for _, opt := range opts {
		opt(synthesizer)
	}

	if synthesizer.command != "" {
		if _, err := synthesizer.lookPath(synthesizer.command); err != nil {
			return nil, fmt.Errorf("%w: %s is not installed", ErrNoSynthesizer, synthesizer.command)
		}
		return synthesizer, nil
	}

	for _, candidate := range candidateCommands {
		if candidate == "say" && runtime.GOOS != "darwin" {
			continue
		}
		if _, err := synthesizer.lookPath(candidate); err == nil {
			synthesizer.command = candidate
			return synthesizer, nil
		}
	}
	return nil, ErrNoSynthesizer
}

// Command returns the resolved synthesis command.
func (s *CommandSynthesizer) Command() string {
	return s.command
}

// Available reports whether a usable synthesis command was resolved.
func (s *CommandSynthesizer) Available() bool {
	return s != nil && s.command != ""
}

// Speak renders text aloud and blocks until playback completes or ctx is
// cancelled.
func (s *CommandSynthesizer) Speak(ctx context.Context, text string) error {
	if !s.Available() {
		return ErrNoSynthesizer
	}

	ctx, span := tracer.Start(ctx, "speak text")
	defer span.End()
	span.SetAttributes(
		attribute.String("speech.command", s.command),
		attribute.Int("speech.text_length", len(text)),
	)

	cmd := exec.CommandContext(ctx, s.command, s.args(text)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		err = fmt.Errorf("%s command failed: %w", s.command, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(ctx, "Speech synthesis failed", "command", s.command, "output", string(output))
		return err
	}
	return nil
}

func (s *CommandSynthesizer) args(text string) []string {
	var args []string
	switch s.command {
	case "say":
		if s.voice != "" {
			args = append(args, "-v", s.voice)
		}
		if s.rate > 0 {
			args = append(args, "-r", strconv.Itoa(s.rate))
		}
	case "espeak-ng", "espeak":
		if s.voice != "" {
			args = append(args, "-v", s.voice)
		}
		if s.rate > 0 {
			args = append(args, "-s", strconv.Itoa(s.rate))
		}
	case "flite":
		if s.voice != "" {
			args = append(args, "-voice", s.voice)
		}
		return append(args, "-t", text)
	}
	return append(args, text)
}
