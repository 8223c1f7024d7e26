// Package input sends keystrokes to the game. The actual synthesis is
// delegated to an external helper process so the server itself stays
// portable; anything that can press keys (an AutoHotkey wrapper, xdotool,
// a custom helper) works as long as it speaks the small press/chord/type
// command set.
package input

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/studiowebux/rustactions/internal/keyspace"
)

// Injector synthesizes keyboard input in the focused window.
type Injector interface {
	// PressKey taps a single key (down, short hold, up).
	PressKey(ctx context.Context, key string) error
	// SendChord holds every key of the chord down together, then
	// releases them in reverse order. This is what fires a bind.
	SendChord(ctx context.Context, chord keyspace.Chord) error
	// TypeText types text verbatim.
	TypeText(ctx context.Context, text string) error
}

// ExecInjector shells out to a helper binary for each operation. The
// helper is invoked as `<helper> press <key>`, `<helper> chord <k+k+k>`
// or `<helper> type <text>` and reports failure through its exit status.
type ExecInjector struct {
	command string
	args    []string
}

// NewExecInjector builds an injector from a command line such as
// "rustinput" or "xdotool-helper --display :0".
func NewExecInjector(commandLine string) (*ExecInjector, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, fmt.Errorf("injector command is empty")
	}
	return &ExecInjector{command: fields[0], args: fields[1:]}, nil
}

func (e *ExecInjector) run(ctx context.Context, op string, arg string) error {
	args := append(append([]string(nil), e.args...), op, arg)
	cmd := exec.CommandContext(ctx, e.command, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s %s %q: %w (%s)",
			e.command, op, arg, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (e *ExecInjector) PressKey(ctx context.Context, key string) error {
	return e.run(ctx, "press", key)
}

func (e *ExecInjector) SendChord(ctx context.Context, chord keyspace.Chord) error {
	return e.run(ctx, "chord", chord.String())
}

func (e *ExecInjector) TypeText(ctx context.Context, text string) error {
	return e.run(ctx, "type", text)
}

// FocusChecker reports whether the game window currently has keyboard
// focus. Triggers refuse to fire when it does not, so keystrokes never
// land in another application.
type FocusChecker interface {
	Focused(ctx context.Context) (bool, error)
}

// AlwaysFocused skips the focus check entirely. Used when no window
// helper is configured.
type AlwaysFocused struct{}

func (AlwaysFocused) Focused(context.Context) (bool, error) { return true, nil }

// ExecFocusChecker asks the helper whether a window whose title contains
// the configured substring is focused, via `<helper> focused <title>`. A
// non-zero exit status means not focused.
type ExecFocusChecker struct {
	command string
	args    []string
	title   string
}

func NewExecFocusChecker(commandLine, windowTitle string) (*ExecFocusChecker, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, fmt.Errorf("focus checker command is empty")
	}
	return &ExecFocusChecker{command: fields[0], args: fields[1:], title: windowTitle}, nil
}

func (e *ExecFocusChecker) Focused(ctx context.Context) (bool, error) {
	args := append(append([]string(nil), e.args...), "focused", e.title)
	cmd := exec.CommandContext(ctx, e.command, args...)
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return false, nil
		}
		return false, fmt.Errorf("%s focused %q: %w", e.command, e.title, err)
	}
	return true, nil
}

// Recorder is an Injector and FocusChecker for tests. It records every
// operation in order and can be scripted to fail or report the window
// unfocused.
type Recorder struct {
	Ops       []string
	Err       error
	Unfocused bool
}

func (r *Recorder) record(op string) error {
	if r.Err != nil {
		return r.Err
	}
	r.Ops = append(r.Ops, op)
	return nil
}

func (r *Recorder) PressKey(_ context.Context, key string) error {
	return r.record("press " + key)
}

func (r *Recorder) SendChord(_ context.Context, chord keyspace.Chord) error {
	return r.record("chord " + chord.String())
}

func (r *Recorder) TypeText(_ context.Context, text string) error {
	return r.record("type " + text)
}

func (r *Recorder) Focused(context.Context) (bool, error) {
	return !r.Unfocused, nil
}

// sleep is replaced in tests so timing-sensitive sequences run instantly.
var sleep = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
