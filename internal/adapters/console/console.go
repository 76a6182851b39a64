// Package console is the operator's command loop. It reads commands from
// the terminal, drives the kiosk service and prints results. The same
// terminal answers enrollment form prompts.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/internal/domain/workhours"
	"github.com/okian/kiosk/pkg/logger"
)

// Service is what the console drives.
type Service interface {
	StartCapture(ctx context.Context) error
	StopCapture(ctx context.Context) error
	CaptureRunning() bool
	CaptureFaces(ctx context.Context) (int, error)
	SetHours(ctx context.Context, startHour, startMinute, endHour, endMinute int) error
	Hours() model.Window
	Identities(ctx context.Context) ([]model.Identity, error)
	GetStats() map[string]interface{}
}

const helpText = `Commands:
  start                 start the camera
  stop                  stop the camera
  capture, c            enroll unknown faces in the current frame
  hours HH:MM HH:MM     set working hours
  list                  list enrolled people
  status                show kiosk status
  help                  show this help
  quit, q               save and exit
`

// Console runs operator commands.
type Console struct {
	svc      Service
	commands <-chan string
	out      io.Writer
	logger   logger.Logger
}

// New creates a console reading commands from term.
func New(svc Service, term *Terminal, opts ...Option) *Console {
	c := &Console{
		svc:      svc,
		commands: term.Commands(),
		out:      term.Out(),
		logger:   logger.Get().Named("console"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run handles commands until quit, end of input or ctx ends.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprint(c.out, helpText)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-c.commands:
			if !ok {
				c.logger.Info(ctx, "console input closed")
				return nil
			}
			if quit := c.execute(ctx, line); quit {
				return nil
			}
		}
	}
}

// execute runs one command line and reports whether the console should exit.
func (c *Console) execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	var err error
	switch cmd {
	case "quit", "q", "exit":
		return true
	case "help", "?":
		fmt.Fprint(c.out, helpText)
	case "start":
		if err = c.svc.StartCapture(ctx); err == nil {
			fmt.Fprintln(c.out, "camera started")
		}
	case "stop":
		if err = c.svc.StopCapture(ctx); err == nil {
			fmt.Fprintln(c.out, "camera stopped")
		}
	case "capture", "c":
		var n int
		if n, err = c.svc.CaptureFaces(ctx); err == nil {
			fmt.Fprintf(c.out, "%d face(s) queued for enrollment\n", n)
		}
	case "hours":
		err = c.setHours(ctx, args)
	case "list":
		err = c.list(ctx)
	case "status":
		c.status()
	default:
		err = fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}

	if err != nil {
		c.logger.Warn(ctx, "command failed", logger.String("command", cmd), logger.Error(err))
		fmt.Fprintf(c.out, "error: %v\n", err)
		if errors.Is(err, ErrUsage) {
			fmt.Fprintln(c.out, `type "help" for commands`)
		}
	}
	return false
}

func (c *Console) setHours(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(c.out, "working hours: %s\n", c.svc.Hours())
		return nil
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: hours HH:MM HH:MM", ErrUsage)
	}
	sh, sm, err := workhours.ParseClock(args[0])
	if err != nil {
		return err
	}
	eh, em, err := workhours.ParseClock(args[1])
	if err != nil {
		return err
	}
	if err := c.svc.SetHours(ctx, sh, sm, eh, em); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "working hours: %s\n", c.svc.Hours())
	return nil
}

func (c *Console) list(ctx context.Context) error {
	ids, err := c.svc.Identities(ctx)
	if err != nil {
		return err
	}
	return WriteIdentities(c.out, ids)
}

func (c *Console) status() {
	stats := c.svc.GetStats()
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%v\n", k, stats[k])
	}
	_ = tw.Flush()
}

// WriteIdentities prints identities as an aligned table.
func WriteIdentities(w io.Writer, ids []model.Identity) error {
	if len(ids) == 0 {
		_, err := fmt.Fprintln(w, "no one enrolled yet")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tAGE\tBOX")
	for _, id := range ids {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", id.ID, id.Name, id.Age, id.Box)
	}
	return tw.Flush()
}
