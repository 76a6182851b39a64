package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/kiosk/internal/adapters/console"
	app "github.com/okian/kiosk/internal/app"
	"github.com/okian/kiosk/internal/config"
	"github.com/okian/kiosk/pkg/logger"
)

const (
	enrollPollInterval = 20 * time.Millisecond
	frameWaitTimeout   = 10 * time.Second
)

var enrollOpts runOptions

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll the unknown faces of the first camera frame, then exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		enrollOpts.apply(cmd, cfg)
		return runEnroll(cmd.Context(), cfg, enrollOpts, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	addRunFlags(enrollCmd, &enrollOpts)
	rootCmd.AddCommand(enrollCmd)
}

// runEnroll opens the camera until a frame arrives, queues its unknown
// faces and waits until the operator has answered every form.
func runEnroll(ctx context.Context, c *config.Config, o runOptions, in io.Reader, out io.Writer) (err error) {
	term := console.NewTerminal(in, out)
	defer func() { _ = term.Close() }()

	svc, err := buildService(ctx, c, o, term)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, svc.Stop(context.Background()))
	}()

	if err := svc.StartFrameCapture(ctx); err != nil {
		return err
	}
	queued, err := captureFirstFrame(ctx, svc)
	if stopErr := svc.StopCapture(ctx); stopErr != nil && !errors.Is(stopErr, app.ErrCaptureStopped) {
		logger.Get().Warn(ctx, "stopping capture", logger.Error(stopErr))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(term.Out(), "%d face(s) queued for enrollment\n", queued)

	for svc.Status(ctx).PendingEnrolment > 0 {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(enrollPollInterval):
		}
	}
	return nil
}

// captureFirstFrame retries CaptureFaces until the capture loop has stored
// a frame.
func captureFirstFrame(ctx context.Context, svc *app.Service) (int, error) {
	deadline := time.Now().Add(frameWaitTimeout)
	for {
		n, err := svc.CaptureFaces(ctx)
		if !errors.Is(err, app.ErrNoFrame) {
			return n, err
		}
		if !svc.CaptureRunning() {
			// loop ended; it may have stored a frame on its way out
			if n, err = svc.CaptureFaces(ctx); !errors.Is(err, app.ErrNoFrame) {
				return n, err
			}
			return 0, fmt.Errorf("camera produced no frame: %w", err)
		}
		if time.Now().After(deadline) {
			return 0, fmt.Errorf("no frame within %s: %w", frameWaitTimeout, err)
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(enrollPollInterval):
		}
	}
}
