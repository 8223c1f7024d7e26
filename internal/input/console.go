package input

import (
	"context"
	"fmt"
	"time"
)

// Console drives the in-game console: open it, type a command, submit.
// The pauses between steps give the game time to register each input;
// sending the next keystroke too early silently drops it.
type Console struct {
	inj           Injector
	consoleKey    string
	reloadCommand string
}

func NewConsole(inj Injector, consoleKey, reloadCommand string) *Console {
	return &Console{inj: inj, consoleKey: consoleKey, reloadCommand: reloadCommand}
}

// Reload makes the game re-read its binds file. Called after every write
// to keys.cfg; without it new binds do not exist in-game and the chord
// about to be sent would do nothing.
func (c *Console) Reload(ctx context.Context) error {
	if err := c.inj.PressKey(ctx, c.consoleKey); err != nil {
		return fmt.Errorf("open console: %w", err)
	}
	if err := sleep(ctx, 200*time.Millisecond); err != nil {
		return err
	}
	if err := c.inj.TypeText(ctx, c.reloadCommand); err != nil {
		return fmt.Errorf("type reload command: %w", err)
	}
	if err := sleep(ctx, 100*time.Millisecond); err != nil {
		return err
	}
	if err := c.inj.PressKey(ctx, "enter"); err != nil {
		return fmt.Errorf("submit reload command: %w", err)
	}
	return sleep(ctx, 200*time.Millisecond)
}

// TypeAndEnter types text into whatever field has focus and submits it.
func (c *Console) TypeAndEnter(ctx context.Context, text string) error {
	if err := c.inj.TypeText(ctx, text); err != nil {
		return fmt.Errorf("type text: %w", err)
	}
	if err := sleep(ctx, 100*time.Millisecond); err != nil {
		return err
	}
	if err := c.inj.PressKey(ctx, "enter"); err != nil {
		return fmt.Errorf("press enter: %w", err)
	}
	return nil
}
