package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/okian/kiosk/internal/adapters/http/api"
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

type mockDeps struct {
	window   model.Window
	ids      []model.Identity
	listErr  error
	setCalls int
}

func (m *mockDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "identities": len(m.ids)}
}

func (m *mockDeps) Identities(context.Context) ([]model.Identity, error) {
	return m.ids, m.listErr
}

func (m *mockDeps) Hours() model.Window { return m.window }

func (m *mockDeps) SetHours(_ context.Context, sh, _, eh, _ int) error {
	m.setCalls++
	if sh > 23 || eh > 23 {
		return fmt.Errorf("%w: hour out of range", model.ErrValidation)
	}
	m.window = model.Window{StartHour: sh, EndHour: eh}
	return nil
}

func newMux(deps *mockDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	return mux
}

func serve(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDeps{
			window: model.Window{StartHour: 8, EndHour: 18},
			ids: []model.Identity{
				{ID: 1, Name: "Alice", Age: "30", Box: model.BoundingBox{XMin: 0.1, YMin: 0.2, Width: 0.3, Height: 0.4}},
			},
		}
		mux := newMux(deps)

		Convey("The health endpoint should expose metrics", func() {
			w := serve(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("The stats endpoint should return the provider's map", func() {
			w := serve(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)

			var stats map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["started"], ShouldEqual, true)
			So(stats["identities"], ShouldEqual, float64(1))
		})

		Convey("The stats endpoint should reject POST", func() {
			w := serve(mux, http.MethodPost, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestIdentitiesHandler(t *testing.T) {
	Convey("Given enrolled identities", t, func() {
		deps := &mockDeps{ids: []model.Identity{
			{ID: 1, Name: "Alice", Age: "30", Box: model.BoundingBox{XMin: 0.1, YMin: 0.2, Width: 0.3, Height: 0.4}},
			{ID: 2, Name: "Bob", Age: "25"},
		}}
		mux := newMux(deps)

		Convey("When listing them", func() {
			w := serve(mux, http.MethodGet, "/identities", "")

			Convey("Then every identity should be returned with its box", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got []map[string]interface{}
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(got[0]["name"], ShouldEqual, "Alice")
				bbox, ok := got[0]["bbox"].(map[string]interface{})
				So(ok, ShouldBeTrue)
				So(bbox["xmin"], ShouldEqual, 0.1)
			})
		})

		Convey("When the service is not ready", func() {
			deps.listErr = errors.New("service not started")
			w := serve(mux, http.MethodGet, "/identities", "")

			Convey("Then 503 should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(w.Body.String(), ShouldContainSubstring, "unavailable")
			})
		})
	})
}

func TestHoursHandler(t *testing.T) {
	Convey("Given the default working window", t, func() {
		deps := &mockDeps{window: model.Window{StartHour: 8, EndHour: 18}}
		mux := newMux(deps)

		Convey("When reading it", func() {
			w := serve(mux, http.MethodGet, "/hours", "")

			Convey("Then it should be returned as clock strings", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"start":"08:00"`)
				So(w.Body.String(), ShouldContainSubstring, `"end":"18:00"`)
			})
		})

		Convey("When replacing it with minutes", func() {
			w := serve(mux, http.MethodPut, "/hours", `{"start":"09:30","end":"17:45"}`)

			Convey("Then the hour-only window should be in effect", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"start":"09:00"`)
				So(w.Body.String(), ShouldContainSubstring, `"end":"17:00"`)
				So(deps.window, ShouldResemble, model.Window{StartHour: 9, EndHour: 17})
			})
		})

		Convey("When the body is not JSON", func() {
			w := serve(mux, http.MethodPut, "/hours", `nope`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(deps.setCalls, ShouldEqual, 0)
		})

		Convey("When a clock is malformed", func() {
			w := serve(mux, http.MethodPut, "/hours", `{"start":"nine","end":"17:00"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(deps.setCalls, ShouldEqual, 0)
		})

		Convey("When a clock has trailing text", func() {
			w := serve(mux, http.MethodPut, "/hours", `{"start":"08:00 garbage","end":"17:00"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(deps.setCalls, ShouldEqual, 0)
		})

		Convey("When an hour is out of range", func() {
			w := serve(mux, http.MethodPut, "/hours", `{"start":"25:00","end":"17:00"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(deps.window, ShouldResemble, model.Window{StartHour: 8, EndHour: 18})
		})

		Convey("When using an unsupported method", func() {
			w := serve(mux, http.MethodDelete, "/hours", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a wrapped handler", t, func() {
		status := http.StatusTeapot
		h := api.MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("short and stout"))
		}, "teapot")

		Convey("Then the first status and the body should reach the client", func() {
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodGet, "/teapot", nil))
			So(w.Code, ShouldEqual, http.StatusTeapot)
			So(w.Body.String(), ShouldEqual, "short and stout")
		})
	})
}
