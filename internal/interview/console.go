package interview

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"
)

// ConsoleSpeaker writes interviewer messages to a terminal.
type ConsoleSpeaker struct {
	out io.Writer
}

// NewConsoleSpeaker creates a Speaker that prints to out.
func NewConsoleSpeaker(out io.Writer) *ConsoleSpeaker {
	return &ConsoleSpeaker{out: out}
}

// Speak prints the message.
func (s *ConsoleSpeaker) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(s.out, "\n> %s\n", text)
	return err
}

// ConsoleCapture reads candidate answers line by line from a terminal.
type ConsoleCapture struct {
	scanner *bufio.Scanner
	lines   chan string
	errs    chan error
	started bool
}

// NewConsoleCapture creates a Capture that reads lines from in.
func NewConsoleCapture(in io.Reader) *ConsoleCapture {
	return &ConsoleCapture{
		scanner: bufio.NewScanner(in),
		lines:   make(chan string),
		errs:    make(chan error, 1),
	}
}

// Listen waits up to timeout for one line of input. A timeout returns
// ("", nil) so the caller can prompt again, matching the silent-timeout
// behavior of speech capture.
func (c *ConsoleCapture) Listen(ctx context.Context, timeout time.Duration) (string, error) {
	if !c.started {
		c.started = true
		go c.readLoop()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", nil
	case err := <-c.errs:
		return "", err
	case line, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

// readLoop pumps input lines into the channel. Runs once per capture; a line
// read after a timeout is delivered on the next Listen call.
func (c *ConsoleCapture) readLoop() {
	for c.scanner.Scan() {
		c.lines <- c.scanner.Text()
	}
	if err := c.scanner.Err(); err != nil {
		c.errs <- err
	}
	close(c.lines)
}
