// Command gen-scene writes a synthetic camera scene for running the kiosk
// without a camera or a face detector:
//
//	gen-scene --dir ./scene --people 3
//	kiosk run --camera dir:./scene/frames --detections ./scene/detections.json
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/kiosk/internal/fixtures"
	"github.com/okian/kiosk/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg fixtures.Config

	cmd := &cobra.Command{
		Use:          "gen-scene",
		Short:        "Write synthetic frames and detections for the kiosk",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWithOptions(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			res, err := fixtures.Write(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "frames:     %s\n", res.FramesDir)
			fmt.Fprintf(out, "detections: %s\n", res.DetectionsPath)
			for _, p := range res.Scene.People {
				fmt.Fprintf(out, "  %s, %s at %s\n", p.Name, p.Age, p.Box)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.Dir, "dir", "scene", "output directory")
	cmd.Flags().IntVar(&cfg.Frames, "frames", fixtures.DefaultFrames, "number of frames")
	cmd.Flags().IntVar(&cfg.Width, "width", fixtures.DefaultWidth, "frame width")
	cmd.Flags().IntVar(&cfg.Height, "height", fixtures.DefaultHeight, "frame height")
	cmd.Flags().IntVar(&cfg.People, "people", fixtures.DefaultPeople, "people in the scene")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", 1, "random seed")
	return cmd
}
