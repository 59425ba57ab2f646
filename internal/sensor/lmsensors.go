package sensor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"thermal_telemetry/internal/models"
)

const (
	DefaultCommand = "sensors"
	maxStderrBytes = 512
)

// DefaultArgs asks lm-sensors for JSON output.
var DefaultArgs = []string{"-j"}

type runFunc func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// LMSensors reads the lm-sensors JSON report.
type LMSensors struct {
	command    string
	args       []string
	normalizer Normalizer

	lookPath func(string) (string, error)
	run      runFunc
	now      func() time.Time
}

// LMSensorsOption customizes an LMSensors source.
type LMSensorsOption func(*LMSensors)

// WithCommand overrides the command and its arguments.
func WithCommand(command string, args ...string) LMSensorsOption {
	return func(s *LMSensors) {
		if command != "" {
			s.command = command
		}
		if args != nil {
			s.args = args
		}
	}
}

// WithFaultHandler installs a callback for recovered parse faults.
func WithFaultHandler(h FaultHandler) LMSensorsOption {
	return func(s *LMSensors) { s.normalizer.OnFault = h }
}

func withRunner(lookPath func(string) (string, error), run runFunc) LMSensorsOption {
	return func(s *LMSensors) {
		s.lookPath = lookPath
		s.run = run
	}
}

func withClock(now func() time.Time) LMSensorsOption {
	return func(s *LMSensors) { s.now = now }
}

// NewLMSensors builds a source running `sensors -j` by default.
func NewLMSensors(opts ...LMSensorsOption) *LMSensors {
	s := &LMSensors{
		command:  DefaultCommand,
		args:     DefaultArgs,
		lookPath: exec.LookPath,
		run:      runCommand,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot runs the tool once. The ctx deadline bounds the process.
func (s *LMSensors) Snapshot(ctx context.Context) ([]models.SensorReading, error) {
	path, err := s.lookPath(s.command)
	if err != nil || path == "" {
		return nil, unavailable("%s not found: %v", s.command, err)
	}

	stdout, stderr, err := s.run(ctx, path, s.args...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, unavailable("%s did not finish: %v", s.command, ctxErr)
	}
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if len(msg) > maxStderrBytes {
			msg = msg[:maxStderrBytes]
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, unavailable("%s exited with code %d: %s", s.command, exitErr.ExitCode(), msg)
		}
		return nil, unavailable("run %s: %v", s.command, err)
	}
	if len(bytes.TrimSpace(stdout)) == 0 {
		return nil, unavailable("%s produced no output", s.command)
	}

	tree, err := ParseTree(stdout)
	if err != nil {
		return nil, err
	}
	return s.normalizer.Normalize(tree, s.now().UTC()), nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
