package notify_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/kiosk/internal/adapters/notify"
	"github.com/okian/kiosk/internal/domain/model"
	"github.com/okian/kiosk/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

type failing struct{ calls int }

func (f *failing) Notify(context.Context, model.NoticeKind, string) error {
	f.calls++
	return errors.New("unreachable")
}

func TestConsoleNotifier(t *testing.T) {
	Convey("Given a console notifier", t, func() {
		var buf bytes.Buffer
		n := notify.NewConsoleNotifier(&buf)

		Convey("When a notice is sent", func() {
			err := n.Notify(context.Background(), model.KindAccepted, "Chấm công thành công: Bob, 25 tuổi")

			Convey("Then it is printed with its kind", func() {
				So(err, ShouldBeNil)
				So(buf.String(), ShouldEqual, "[accepted] Chấm công thành công: Bob, 25 tuổi\n")
			})
		})
	})
}

func TestMulti(t *testing.T) {
	Convey("Given a fan-out with one failing notifier", t, func() {
		var buf bytes.Buffer
		bad := &failing{}
		m := notify.Multi{notify.NewConsoleNotifier(&buf), nil, bad}

		err := m.Notify(context.Background(), model.KindError, "disk full")

		Convey("Then every notifier is tried and the error is reported", func() {
			So(err, ShouldNotBeNil)
			So(bad.calls, ShouldEqual, 1)
			So(buf.String(), ShouldContainSubstring, "disk full")
		})
	})
}

func TestShoutrrrNotifier(t *testing.T) {
	Convey("Given shoutrrr URLs", t, func() {
		ctx := context.Background()

		Convey("When none are configured", func() {
			_, err := notify.NewShoutrrrNotifier(nil)

			Convey("Then construction fails", func() {
				So(errors.Is(err, notify.ErrNoURLs), ShouldBeTrue)
			})
		})

		Convey("When the scheme is unknown", func() {
			_, err := notify.NewShoutrrrNotifier([]string{"nosuchservice://token@host"})

			Convey("Then construction fails without echoing the token", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldNotContainSubstring, "token@host")
			})
		})

		Convey("When the logger service is used", func() {
			n, err := notify.NewShoutrrrNotifier([]string{"logger://"}, notify.WithKinds(model.KindRejected))
			So(err, ShouldBeNil)

			Convey("Then forwarded and filtered kinds both succeed", func() {
				So(n.Notify(ctx, model.KindRejected, "Ngoài giờ làm việc: Bob, 25 tuổi"), ShouldBeNil)
				So(n.Notify(ctx, model.KindInfo, "ignored"), ShouldBeNil)
			})

			Convey("Then nothing is sent after the context ends", func() {
				done, cancel := context.WithCancel(ctx)
				cancel()
				err := n.Notify(done, model.KindRejected, "Ngoài giờ làm việc: Bob, 25 tuổi")
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(n.Notify(done, model.KindInfo, "ignored"), ShouldBeNil)
			})
		})
	})
}
