package ngena

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aretw0/ngena/pkg/domain"
)

// fileCommand sends a document message instead of text.
const fileCommand = "/file "

// Runner drives an App from line-oriented input, one dispatch cycle per line.
// Replies reach the user through the App's transport, so a console transport
// writing to Output is the usual companion.
type Runner struct {
	Input  io.Reader
	Output io.Writer
	// UserID is the channel id every line is sent as.
	UserID      string
	DisplayName string
	// Headless disables the prompt.
	Headless bool
}

// Run reads lines until EOF, "exit"/"quit" or cancellation of ctx.
func (r *Runner) Run(ctx context.Context, app *App) error {
	if r.Input == nil {
		return errors.New("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return errors.New("output writer must be set (use os.Stdout)")
	}
	if r.UserID == "" {
		return errors.New("user id must be set")
	}

	lines := bufio.NewScanner(r.Input)
	for {
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return fmt.Errorf("input error: %w", err)
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		input := strings.TrimSpace(lines.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Fprintln(r.Output, "Bye!")
			return nil
		}

		out, err := app.Handle(ctx, r.message(input))
		if err != nil {
			fmt.Fprintf(r.Output, "Error: %v\n", err)
			continue
		}
		if out.Failure != nil {
			app.Logger().Debug("Cycle failed", "cycle_id", out.CycleID, "err", out.Failure)
		}
	}
}

func (r *Runner) message(input string) *domain.IncomingMessage {
	msg := &domain.IncomingMessage{UserID: r.UserID, DisplayName: r.DisplayName, Body: input}
	if url, ok := strings.CutPrefix(input, fileCommand); ok {
		url = strings.TrimSpace(url)
		msg.Body = ""
		msg.FileURL = url
		msg.FileName = path.Base(url)
	}
	return msg
}
