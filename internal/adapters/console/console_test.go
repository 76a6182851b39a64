package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeService struct {
	mu       sync.Mutex
	calls    []string
	window   model.Window
	ids      []model.Identity
	startErr error
}

func (f *fakeService) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeService) StartCapture(context.Context) error {
	f.record("start")
	return f.startErr
}

func (f *fakeService) StopCapture(context.Context) error {
	f.record("stop")
	return nil
}

func (f *fakeService) CaptureRunning() bool { return false }

func (f *fakeService) CaptureFaces(context.Context) (int, error) {
	f.record("capture")
	return 2, nil
}

func (f *fakeService) SetHours(_ context.Context, sh, _, eh, _ int) error {
	f.record("hours")
	f.window = model.Window{StartHour: sh, EndHour: eh}
	return nil
}

func (f *fakeService) Hours() model.Window { return f.window }

func (f *fakeService) Identities(context.Context) ([]model.Identity, error) {
	f.record("list")
	return f.ids, nil
}

func (f *fakeService) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "identities": len(f.ids)}
}

func runScript(svc Service, script string) string {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader(script), &out)
	defer func() { _ = term.Close() }()
	_ = New(svc, term).Run(context.Background())
	return out.String()
}

func TestConsoleCommands(t *testing.T) {
	Convey("Given a console with a scripted operator", t, func() {
		svc := &fakeService{
			window: model.Window{StartHour: 8, EndHour: 18},
			ids:    []model.Identity{{ID: 1, Name: "Alice", Age: "30"}},
		}

		Convey("When the operator runs every command and quits", func() {
			out := runScript(svc, "start\ncapture\nhours 09:15 17:45\nlist\nstatus\nstop\nquit\nstart\n")

			Convey("Then each command should reach the service in order", func() {
				So(svc.calls, ShouldResemble, []string{"start", "capture", "hours", "list", "stop"})
			})

			Convey("Then the output should describe each result", func() {
				So(out, ShouldContainSubstring, "camera started")
				So(out, ShouldContainSubstring, "2 face(s) queued for enrollment")
				So(out, ShouldContainSubstring, "working hours: 09:00-17:00")
				So(out, ShouldContainSubstring, "Alice")
				So(out, ShouldContainSubstring, "identities")
				So(out, ShouldContainSubstring, "camera stopped")
			})
		})

		Convey("When a command is unknown or malformed", func() {
			out := runScript(svc, "dance\nhours 9\nhours ab:cd 18:00\n")

			Convey("Then errors should be printed and the loop should continue to end of input", func() {
				So(out, ShouldContainSubstring, `unknown command "dance"`)
				So(out, ShouldContainSubstring, "hours HH:MM HH:MM")
				So(out, ShouldContainSubstring, "is not HH:MM")
				So(svc.calls, ShouldBeEmpty)
			})
		})

		Convey("When the service fails", func() {
			svc.startErr = errors.New("camera busy")
			out := runScript(svc, "start\n")

			Convey("Then the error should be shown", func() {
				So(out, ShouldContainSubstring, "error: camera busy")
				So(out, ShouldNotContainSubstring, "camera started")
			})
		})
	})
}

func TestWriteIdentities(t *testing.T) {
	Convey("Given no identities", t, func() {
		var buf bytes.Buffer
		So(WriteIdentities(&buf, nil), ShouldBeNil)
		So(buf.String(), ShouldEqual, "no one enrolled yet\n")
	})

	Convey("Given two identities", t, func() {
		var buf bytes.Buffer
		ids := []model.Identity{{ID: 1, Name: "Alice", Age: "30"}, {ID: 2, Name: "Bob", Age: "25"}}
		So(WriteIdentities(&buf, ids), ShouldBeNil)

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		So(lines, ShouldHaveLength, 3)
		So(lines[0], ShouldStartWith, "ID")
		So(lines[2], ShouldStartWith, "2")
	})
}

func TestTerminalPromptRouting(t *testing.T) {
	Convey("Given a terminal fed through a pipe", t, func() {
		pr, pw := io.Pipe()
		var out bytes.Buffer
		term := NewTerminal(pr, &syncBuffer{buf: &out})
		defer func() { _ = term.Close() }()

		Convey("When a prompt is waiting, the next line should answer it", func() {
			answer := make(chan string, 1)
			go func() {
				line, _ := term.Prompt(context.Background(), "Tên: ")
				answer <- line
			}()
			for !term.prompting() {
				time.Sleep(time.Millisecond)
			}
			_, err := io.WriteString(pw, "Alice\n")
			So(err, ShouldBeNil)
			So(<-answer, ShouldEqual, "Alice")

			Convey("And the following line should be a command", func() {
				go func() { _, _ = io.WriteString(pw, "list\n") }()
				So(<-term.Commands(), ShouldEqual, "list")
				_ = pw.Close()
			})
		})

		Convey("When a line arrives before any prompt and nobody reads commands", func() {
			written := make(chan struct{})
			go func() {
				_, _ = io.WriteString(pw, "Bob\n")
				close(written)
			}()
			<-written

			Convey("Then the next prompt should receive it", func() {
				line, err := term.Prompt(context.Background(), "Tên: ")
				So(err, ShouldBeNil)
				So(line, ShouldEqual, "Bob")
				_ = pw.Close()
			})
		})

		Convey("When input ends, prompts should report io.EOF", func() {
			_ = pw.Close()
			_, ok := <-term.Commands()
			So(ok, ShouldBeFalse)

			_, err := term.Prompt(context.Background(), "Tuổi: ")
			So(err, ShouldEqual, io.EOF)
		})

		Convey("When the prompt context ends, the prompt should give up", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := term.Prompt(ctx, "Tên: ")
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(term.prompting(), ShouldBeFalse)
			_ = pw.Close()
		})
	})
}

type syncBuffer struct {
	mu  sync.Mutex
	buf *bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}
