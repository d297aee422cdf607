package commands

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/board"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/services"
)

// consoleNotifier queues board notifications until flush prints them, so
// they never interleave with command output
type consoleNotifier struct {
	mu      sync.Mutex
	w       io.Writer
	pending []board.Notification
	// failed counts error notifications
	failed int
}

func (c *consoleNotifier) Notify(n board.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n.Level == board.LevelError {
		c.failed++
	}
	c.pending = append(c.pending, n)
}

func (c *consoleNotifier) flush() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, n := range pending {
		if n.Level == board.LevelError {
			fmt.Fprintf(c.w, "%s %s (%s): %v\n", color.New(color.FgRed).Sprint("✗"), n.Message, n.AppointmentID, n.Err)
			continue
		}
		fmt.Fprintf(c.w, "%s %s (%s)\n", color.New(color.FgGreen).Sprint("✓"), n.Message, n.AppointmentID)
	}
}

func (c *consoleNotifier) failures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

// openBoard opens a board for the --day value with console notifications
// teed to the configured notifier
func openBoard(app *AppContext, dayValue string, readOnly bool) (*board.Board, *consoleNotifier, error) {
	day, err := app.day(dayValue)
	if err != nil {
		return nil, nil, err
	}

	console := &consoleNotifier{w: app.Out}
	b, err := services.OpenBoard(app.Ctx, app.Database, app.Logger, services.BoardOptions{
		Day:       day,
		Projector: app.Projector,
		Notifier:  board.Tee(console, app.Notifier),
		ReadOnly:  readOnly,
	})
	if err != nil {
		return nil, nil, err
	}
	return b, console, nil
}

// settle waits for the board's mutations and turns a rollback into an error
func settle(b *board.Board, console *consoleNotifier) error {
	b.Wait()
	console.flush()
	if n := console.failures(); n > 0 {
		return fmt.Errorf("%d change(s) were rolled back", n)
	}
	return nil
}
