package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/studybuddy/internal/adapters/http/api"
	"github.com/okian/studybuddy/internal/adapters/repository"
	service "github.com/okian/studybuddy/internal/app"
	"github.com/okian/studybuddy/internal/domain/emotion"
	"github.com/okian/studybuddy/internal/domain/level"
	"github.com/okian/studybuddy/internal/domain/model"
	"github.com/okian/studybuddy/internal/domain/types"
	"github.com/okian/studybuddy/pkg/logger"
)

type mockDeps struct {
	guideErr   error
	lastReq    model.Request
	journal    bool
	entries    []repository.Entry
	historyErr error
	lastLimit  int
}

func (m *mockDeps) Guide(_ context.Context, req model.Request) (model.Result, error) {
	m.lastReq = req
	if m.guideErr != nil {
		return model.Result{}, m.guideErr
	}
	return model.Result{
		ID:            "r-1",
		Emotions:      []emotion.Score{{Label: emotion.Fear, Score: 0.8}},
		Level:         level.Beginner,
		DaysUntilExam: req.DaysUntilExam,
		CreatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil
}

func (m *mockDeps) JournalEnabled() bool { return m.journal }

func (m *mockDeps) History(_ context.Context, limit int) ([]repository.Entry, error) {
	m.lastLimit = limit
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	if limit > len(m.entries) {
		return m.entries, nil
	}
	return m.entries[:limit], nil
}

type mockStats struct{ stats types.Stats }

func (m mockStats) GetStats() types.Stats { return m.stats }

func init() {
	_ = logger.Init(logger.WithWriter(nopWriter{}))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func newMux(deps *mockDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, mockStats{stats: types.Stats{Requests: 3, Served: 2}}, 10).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockDeps{journal: true})

		Convey("Then the health endpoint serves metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And the stats endpoint serves JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")

			var got types.Stats
			So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
			So(got.Requests, ShouldEqual, 3)
			So(got.Served, ShouldEqual, 2)
		})

		Convey("And wrong methods are not found", func() {
			So(do(mux, http.MethodPost, "/stats", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/guidance", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/history", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestGuidanceHandler_HandlePostGuidance(t *testing.T) {
	Convey("Given a guidance handler", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("When the request is valid", func() {
			w := do(mux, http.MethodPost, "/guidance", `{"text":"I am confused","mood":"anxious","days_until_exam":12}`)

			Convey("Then it returns the result", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastReq, ShouldResemble, model.Request{Text: "I am confused", Mood: "anxious", DaysUntilExam: 12})

				var got map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got["id"], ShouldEqual, "r-1")
				So(got["level"], ShouldEqual, "Beginner")
				So(got["days_until_exam"], ShouldEqual, float64(12))
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/guidance", `{not json`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, `"bad_request"`)
		})

		Convey("When the body has unknown fields", func() {
			w := do(mux, http.MethodPost, "/guidance", `{"text":"hi","talent_id":"x"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the input is empty", func() {
			deps.guideErr = service.ErrEmptyInput
			w := do(mux, http.MethodPost, "/guidance", `{"text":"  "}`)

			Convey("Then the warning is returned as 422", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				var got map[string]string
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got["code"], ShouldEqual, "empty_input")
				So(got["message"], ShouldEqual, api.EmptyInputMessage)
			})
		})

		Convey("When days are out of range", func() {
			deps.guideErr = fmt.Errorf("%w: 400", service.ErrInvalidDays)
			w := do(mux, http.MethodPost, "/guidance", `{"text":"hi","days_until_exam":400}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "invalid_days")
		})

		Convey("When the classifier fails", func() {
			deps.guideErr = fmt.Errorf("%w: timeout", service.ErrClassifier)
			w := do(mux, http.MethodPost, "/guidance", `{"text":"hi"}`)
			So(w.Code, ShouldEqual, http.StatusBadGateway)
			So(w.Body.String(), ShouldContainSubstring, "classifier_unavailable")
			So(w.Body.String(), ShouldNotContainSubstring, "timeout")
		})

		Convey("When something unexpected fails", func() {
			deps.guideErr = errors.New("boom")
			w := do(mux, http.MethodPost, "/guidance", `{"text":"hi"}`)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldNotContainSubstring, "boom")
		})
	})
}

func TestHistoryHandler_HandleGetHistory(t *testing.T) {
	Convey("Given a history handler", t, func() {
		now := time.Now().UTC()
		deps := &mockDeps{journal: true}
		for i := 0; i < 5; i++ {
			deps.entries = append(deps.entries, repository.Entry{
				ID:        fmt.Sprintf("e-%d", i),
				Text:      "text",
				TopLabel:  string(emotion.Joy),
				Level:     level.Advanced.String(),
				CreatedAt: now.Add(-time.Duration(i) * time.Minute),
			})
		}
		mux := newMux(deps)

		Convey("When no limit is given", func() {
			w := do(mux, http.MethodGet, "/history", "")

			Convey("Then the default limit is used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastLimit, ShouldEqual, 10)
				var got []map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(len(got), ShouldEqual, 5)
				So(got[0]["id"], ShouldEqual, "e-0")
			})
		})

		Convey("When a limit is given", func() {
			w := do(mux, http.MethodGet, "/history?limit=2", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var got []map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
			So(len(got), ShouldEqual, 2)
		})

		Convey("When the limit is invalid or too large", func() {
			So(do(mux, http.MethodGet, "/history?limit=abc", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/history?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/history?limit=11", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the store fails", func() {
			deps.historyErr = repository.ErrClosed
			So(do(mux, http.MethodGet, "/history", "").Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When the journal is disabled", func() {
			deps.journal = false
			w := do(mux, http.MethodGet, "/history", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldContainSubstring, "journal_disabled")
		})
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	Convey("Given a handler behind the request ID middleware", t, func() {
		var seen string
		h := api.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = logger.RequestID(r.Context())
		}))

		Convey("When the caller sends no ID", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			Convey("Then one is generated and echoed", func() {
				So(seen, ShouldNotBeBlank)
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, seen)
			})
		})

		Convey("When the caller sends an ID", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(seen, ShouldEqual, "abc-123")
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
		})
	})
}

func TestKindHelpers(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("cause")
		err := api.WrapKind("op", api.ErrBadRequest, cause)
		So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		So(errors.Is(err, cause), ShouldBeTrue)
		So(err.Error(), ShouldStartWith, "op: ")
		So(errors.Is(api.NewKind("op", api.ErrUpstream), api.ErrUpstream), ShouldBeTrue)
		So(errors.Is(api.Wrap("op", cause), cause), ShouldBeTrue)
	})
}
