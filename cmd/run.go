package main

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/kiosk/internal/adapters/camera"
	"github.com/okian/kiosk/internal/adapters/console"
	"github.com/okian/kiosk/internal/adapters/detector"
	"github.com/okian/kiosk/internal/adapters/form"
	"github.com/okian/kiosk/internal/adapters/mq/worker"
	"github.com/okian/kiosk/internal/adapters/notify"
	app "github.com/okian/kiosk/internal/app"
	"github.com/okian/kiosk/internal/config"
	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
)

// runOptions are flags of the run and enroll commands.
type runOptions struct {
	camera     string
	detections string
	opsAddr    string
	previewDir string
	loop       bool
	autostart  bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the kiosk with the operator console",
	Long: `Run the kiosk. The console reads commands from stdin; the enrollment
form asks for names on the same terminal. The ops HTTP endpoint serves
metrics, stats, identities and working hours when ops_addr is set.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		runOpts.apply(cmd, cfg)
		return runKiosk(cmd.Context(), cfg, runOpts, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	addRunFlags(runCmd, &runOpts)
	runCmd.Flags().BoolVar(&runOpts.autostart, "start", false, "start the camera immediately")
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command, o *runOptions) {
	cmd.Flags().StringVar(&o.camera, "camera", "", "camera source: dir:<path>, mjpeg:<path|->, ffmpeg:<input>")
	cmd.Flags().StringVar(&o.detections, "detections", "", "recorded detections JSON")
	cmd.Flags().StringVar(&o.opsAddr, "ops-addr", "", "ops HTTP listen address")
	cmd.Flags().StringVar(&o.previewDir, "preview-dir", "", "save enrollment preview images here")
	cmd.Flags().BoolVar(&o.loop, "loop", false, "replay a directory source forever")
}

// apply copies flags that were set onto c.
func (o runOptions) apply(cmd *cobra.Command, c *config.Config) {
	if cmd.Flags().Changed("camera") {
		c.CameraSource = o.camera
	}
	if cmd.Flags().Changed("detections") {
		c.DetectionsPath = o.detections
	}
	if cmd.Flags().Changed("ops-addr") {
		c.OpsAddr = o.opsAddr
	}
	if cmd.Flags().Changed("loop") {
		c.CameraLoop = o.loop
	}
}

// runKiosk starts the service, the ops server and the console, and stops
// them when the console quits or ctx ends.
func runKiosk(ctx context.Context, c *config.Config, o runOptions, in io.Reader, out io.Writer) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

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
		// ctx may already be cancelled; the store still has to be flushed
		err = errors.Join(err, svc.Stop(context.Background()))
	}()
	if err := svc.SetHours(ctx, c.WorkStartHour, c.WorkStartMinute, c.WorkEndHour, c.WorkEndMinute); err != nil {
		return err
	}

	go startSystemMetricsUpdater(ctx)

	if c.OpsAddr != "" {
		srv := startOpsServer(ctx, c.OpsAddr, svc)
		defer shutdownOpsServer(srv)
	}

	if o.autostart {
		if err := svc.StartCapture(ctx); err != nil {
			return err
		}
	}
	return console.New(svc, term).Run(ctx)
}

// buildService wires the adapters selected by c into a Service.
func buildService(ctx context.Context, c *config.Config, o runOptions, term *console.Terminal) (*app.Service, error) {
	log := logger.Get().Named("main")

	det, err := detector.LoadReplay(c.DetectionsPath)
	if err != nil {
		return nil, err
	}

	notifiers := notify.Multi{notify.NewConsoleNotifier(term.Out())}
	if targets := c.NotifyTargets(); len(targets) > 0 {
		remote, err := notify.NewShoutrrrNotifier(targets)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, remote)
		log.Info(ctx, "remote notifications enabled", logger.Int("targets", len(targets)))
	}

	terminalForm := form.NewTerminalForm(term, term.Out(),
		form.WithPreviewSize(c.PreviewSize),
		form.WithPreviewDir(o.previewDir),
	)

	spec, loop := c.CameraSource, c.CameraLoop
	openCamera := func(context.Context) (worker.Source, error) {
		return camera.Open(spec, camera.WithLoop(loop))
	}

	return app.New(
		app.WithLogger(logger.Get().Named("service")),
		app.WithIdentityPath(c.IdentityPath),
		app.WithImageDir(c.ImageDir),
		app.WithImageExt(c.ImageExt),
		app.WithOvertimePath(c.OvertimePath),
		app.WithWindow(model.Window{StartHour: c.WorkStartHour, EndHour: c.WorkEndHour}),
		app.WithFrameInterval(c.FrameInterval()),
		app.WithMinConfidence(c.MinConfidence),
		app.WithQueueSize(c.EnrollmentQueueSize),
		app.WithCooldown(c.Cooldown()),
		app.WithPromptAttempts(c.PromptAttempts),
		app.WithDetector(det),
		app.WithForm(terminalForm),
		app.WithNotifier(notifiers),
		app.WithSourceOpener(openCamera),
	), nil
}
