package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Terminal shares one input stream between the command loop and form
// prompts. A single goroutine reads lines; while a prompt is waiting the
// next line answers it, otherwise the line is a command.
type Terminal struct {
	out *syncWriter

	mu     sync.Mutex
	waiter chan string

	promptMu sync.Mutex
	commands chan string
	wake     chan struct{}
	eof      chan struct{}
	closed   chan struct{}
	once     sync.Once
}

// NewTerminal starts reading lines from in. Output from every writer
// obtained through Out is serialised.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	t := &Terminal{
		out:      &syncWriter{w: out},
		commands: make(chan string),
		wake:     make(chan struct{}, 1),
		eof:      make(chan struct{}),
		closed:   make(chan struct{}),
	}
	go t.read(in)
	return t
}

func (t *Terminal) read(in io.Reader) {
	defer close(t.eof)
	defer close(t.commands)

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")

		if !t.deliver(line) {
			return
		}
	}
}

// deliver hands line to the waiting prompt, or to the command loop. A line
// nobody takes yet goes to whichever asks first. It returns false once the
// terminal is closed.
func (t *Terminal) deliver(line string) bool {
	for {
		t.mu.Lock()
		w := t.waiter
		t.waiter = nil
		t.mu.Unlock()

		if w != nil {
			w <- line
			return true
		}
		select {
		case t.commands <- line:
			return true
		case <-t.wake:
		case <-t.closed:
			return false
		}
	}
}

// Commands yields lines typed outside a prompt. It is closed at end of input.
func (t *Terminal) Commands() <-chan string { return t.commands }

// Out returns the shared, serialised output.
func (t *Terminal) Out() io.Writer { return t.out }

// Prompt prints label and waits for the next line. It returns io.EOF once
// input is exhausted.
func (t *Terminal) Prompt(ctx context.Context, label string) (string, error) {
	t.promptMu.Lock()
	defer t.promptMu.Unlock()

	w := make(chan string, 1)
	select {
	case <-t.eof:
		return "", io.EOF
	default:
	}
	t.mu.Lock()
	t.waiter = w
	t.mu.Unlock()
	select {
	case t.wake <- struct{}{}:
	default:
	}

	fmt.Fprint(t.out, label)
	select {
	case line := <-w:
		return line, nil
	case <-t.eof:
		// a line may have been handed over just before input ended
		select {
		case line := <-w:
			return line, nil
		default:
			return "", io.EOF
		}
	case <-ctx.Done():
		t.mu.Lock()
		if t.waiter == w {
			t.waiter = nil
		}
		t.mu.Unlock()
		return "", ctx.Err()
	}
}

// Close stops delivering commands. The reader goroutine exits on the next
// line or at end of input.
func (t *Terminal) Close() error {
	t.once.Do(func() { close(t.closed) })
	return nil
}

func (t *Terminal) prompting() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.waiter != nil
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
