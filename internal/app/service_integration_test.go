package service_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	service "github.com/okian/kiosk/internal/app"
	"github.com/okian/kiosk/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a kiosk at 20:00 with an empty store", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		dir := t.TempDir()
		form := &scriptedForm{answers: []model.Answer{{Name: "Bob", Age: "25"}}}
		notifier := &recordingNotifier{}
		svc := newService(dir, form, notifier, service.WithClock(clockAt(20)))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When an unknown face is seen, enrolled and seen again", func() {
			// first pass: nobody known, the session keeps waiting
			So(svc.StartCapture(ctx), ShouldBeNil)
			So(svc.WaitCapture(ctx), ShouldBeNil)
			So(svc.Status(ctx).Stats.NoMatch, ShouldEqual, 1)

			queued, err := svc.CaptureFaces(ctx)
			So(err, ShouldBeNil)
			So(queued, ShouldEqual, 1)

			enrolled := waitFor(func() bool {
				ids, _ := svc.Identities(ctx)
				return len(ids) == 1
			})
			So(enrolled, ShouldBeTrue)

			// second pass: Bob is known and it is after hours
			So(svc.StartCapture(ctx), ShouldBeNil)
			So(svc.WaitCapture(ctx), ShouldBeNil)

			Convey("Then Bob should be rejected with one overtime line", func() {
				st := svc.Status(ctx)
				So(st.Stats.Rejected, ShouldEqual, 1)
				So(st.Stats.Accepted, ShouldEqual, 0)
				So(notifier.count(model.KindEnrolled), ShouldEqual, 1)
				So(notifier.count(model.KindRejected), ShouldEqual, 1)

				data, err := os.ReadFile(filepath.Join(dir, "overtime_log.txt"))
				So(err, ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(string(data)), "\n")
				So(lines, ShouldHaveLength, 1)
				So(lines[0], ShouldEqual, "Nhân viên: Bob, 25 tuổi - Làm việc ngoài giờ lúc: 20:00:00")
			})

			Convey("Then the identity and its image should be on disk after Stop", func() {
				So(svc.Stop(ctx), ShouldBeNil)

				data, err := os.ReadFile(filepath.Join(dir, "face_info.json"))
				So(err, ShouldBeNil)
				var stored map[string]struct {
					Name string `json:"name"`
					Age  string `json:"age"`
				}
				So(json.Unmarshal(data, &stored), ShouldBeNil)
				So(stored, ShouldHaveLength, 1)
				So(stored["1"].Name, ShouldEqual, "Bob")
				So(stored["1"].Age, ShouldEqual, "25")

				_, err = os.Stat(filepath.Join(dir, "imgs", "Bob_25.jpg"))
				So(err, ShouldBeNil)
			})
		})
	})

	Convey("Given a kiosk at 10:00 with Bob already enrolled", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		dir := t.TempDir()
		seed := `{"1": {"name": "Bob", "age": "25", "bbox": {"xmin": 0.2, "ymin": 0.2, "width": 0.3, "height": 0.3}}}`
		So(os.WriteFile(filepath.Join(dir, "face_info.json"), []byte(seed), 0o600), ShouldBeNil)

		notifier := &recordingNotifier{}
		svc := newService(dir, &scriptedForm{}, notifier, service.WithClock(clockAt(10)))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		So(svc.StartCapture(ctx), ShouldBeNil)
		So(svc.WaitCapture(ctx), ShouldBeNil)

		Convey("Then Bob should be accepted and no overtime line written", func() {
			So(svc.Status(ctx).Stats.Accepted, ShouldEqual, 1)
			So(notifier.count(model.KindAccepted), ShouldEqual, 1)

			_, err := os.Stat(filepath.Join(dir, "overtime_log.txt"))
			So(os.IsNotExist(err), ShouldBeTrue)
		})

		Convey("Then capturing the known face should queue nothing", func() {
			queued, err := svc.CaptureFaces(ctx)
			So(err, ShouldBeNil)
			So(queued, ShouldEqual, 0)
		})
	})
}

func TestService_FrameCaptureSkipsAttendance(t *testing.T) {
	Convey("Given Bob already enrolled and a frame-only capture at 20:00", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		dir := t.TempDir()
		seed := `{"1": {"name": "Bob", "age": "25", "bbox": {"xmin": 0.2, "ymin": 0.2, "width": 0.3, "height": 0.3}}}`
		So(os.WriteFile(filepath.Join(dir, "face_info.json"), []byte(seed), 0o600), ShouldBeNil)

		notifier := &recordingNotifier{}
		svc := newService(dir, &scriptedForm{}, notifier, service.WithClock(clockAt(20)))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		So(svc.StartFrameCapture(ctx), ShouldBeNil)
		So(svc.WaitCapture(ctx), ShouldBeNil)

		Convey("Then no session, notice or overtime line should exist", func() {
			st := svc.Status(ctx)
			So(st.Stats.Sessions, ShouldEqual, 0)
			So(st.Stats.Rejected, ShouldEqual, 0)
			So(notifier.count(model.KindRejected), ShouldEqual, 0)

			_, err := os.Stat(filepath.Join(dir, "overtime_log.txt"))
			So(os.IsNotExist(err), ShouldBeTrue)
		})

		Convey("Then the stored frame should still serve CaptureFaces", func() {
			queued, err := svc.CaptureFaces(ctx)
			So(err, ShouldBeNil)
			So(queued, ShouldEqual, 0)
		})
	})
}
