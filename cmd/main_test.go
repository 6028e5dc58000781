package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/studybuddy/internal/adapters/classifier"
	"github.com/okian/studybuddy/internal/adapters/repository"
	"github.com/okian/studybuddy/internal/config"
	"github.com/okian/studybuddy/internal/domain/advice"
	"github.com/okian/studybuddy/internal/domain/level"
	"github.com/okian/studybuddy/pkg/logger"
	"github.com/okian/studybuddy/pkg/metrics"
)

func init() {
	_ = logger.Init(logger.WithWriter(&bytes.Buffer{}))
}

func TestBuildService(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()

		convey.Convey("When building the service", func() {
			svc, err := buildService(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then it uses the lexicon classifier without a journal", func() {
				stats := svc.GetStats()
				convey.So(stats.Classifier, convey.ShouldEqual, "lexicon")
				convey.So(stats.Profile, convey.ShouldEqual, "default")
				convey.So(stats.TopEmotions, convey.ShouldEqual, 3)
				convey.So(svc.JournalEnabled(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the journal is enabled on sqlite", func() {
			cfg.Journal.Enabled = true
			cfg.Journal.Backend = repository.BackendSQLite
			cfg.Journal.DSN = filepath.Join(t.TempDir(), "journal.db")

			svc, err := buildService(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.JournalEnabled(), convey.ShouldBeTrue)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			svc.Stop(ctx)
		})

		convey.Convey("When the classifier backend is unknown", func() {
			cfg.Classifier.Backend = "crystal-ball"
			_, err := buildService(ctx, cfg)
			convey.So(errors.Is(err, classifier.ErrUnknownBackend), convey.ShouldBeTrue)
		})

		convey.Convey("When the catalog file is missing", func() {
			cfg.Advice.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
			_, err := buildService(ctx, cfg)
			convey.So(errors.Is(err, advice.ErrInvalidCatalog), convey.ShouldBeTrue)
		})

		convey.Convey("When the prune schedule does not parse", func() {
			var opened repository.Store
			openJournal = func(ctx context.Context, backend, dsn string) (repository.Store, error) {
				st, err := repository.Open(ctx, backend, dsn)
				opened = st
				return st, err
			}
			defer func() { openJournal = repository.Open }()

			cfg.Journal.Enabled = true
			cfg.Journal.Backend = repository.BackendMemory
			cfg.Journal.PruneSchedule = "not a cron"

			svc, err := buildService(ctx, cfg)

			convey.Convey("Then the error is returned and the opened store is closed", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(svc, convey.ShouldBeNil)
				convey.So(opened, convey.ShouldNotBeNil)
				_, cerr := opened.Count(ctx)
				convey.So(errors.Is(cerr, repository.ErrClosed), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the journal backend is unknown", func() {
			cfg.Journal.Enabled = true
			cfg.Journal.Backend = "redis"
			_, err := buildService(ctx, cfg)
			convey.So(errors.Is(err, repository.ErrUnknownBackend), convey.ShouldBeTrue)
		})
	})
}

func TestMetricsOptions(t *testing.T) {
	convey.Convey("Given a metrics config section", t, func() {
		cfg := config.New()
		cfg.Metrics.Namespace = "buddy"
		cfg.Metrics.Buckets = []float64{10, 100}
		cfg.Metrics.RefreshInterval = 3 * time.Second
		cfg.Metrics.Labels = map[string]string{"env": "test"}

		convey.Convey("When the global manager is configured from it", func() {
			metrics.Configure(metricsOptions(cfg)...)
			defer metrics.Configure()
			metrics.RecordGuidance(metrics.OutcomeServed)

			convey.Convey("Then names, labels and refresh cadence follow the config", func() {
				convey.So(metrics.RefreshInterval(), convey.ShouldEqual, 3*time.Second)
				families, err := metrics.GetRegistry().Gather()
				convey.So(err, convey.ShouldBeNil)
				var found bool
				for _, f := range families {
					if f.GetName() == "buddy_guidance_requests_total" {
						found = true
						convey.So(f.GetMetric()[0].GetLabel()[0].GetName(), convey.ShouldEqual, "env")
					}
				}
				convey.So(found, convey.ShouldBeTrue)
			})
		})
	})
}

func TestLevelProfile(t *testing.T) {
	convey.Convey("Given level configuration", t, func() {
		p, err := levelProfile(config.LevelConfig{Profile: "exam"})
		convey.So(err, convey.ShouldBeNil)
		convey.So(p.Name, convey.ShouldEqual, "exam")

		p, err = levelProfile(config.LevelConfig{Profile: "exam", Beginner: []string{"lost"}})
		convey.So(err, convey.ShouldBeNil)
		convey.So(p.Name, convey.ShouldEqual, "custom")
		convey.So(level.NewDetector(p).Detect("totally lost"), convey.ShouldEqual, level.Beginner)

		_, err = levelProfile(config.LevelConfig{Profile: "guru"})
		convey.So(errors.Is(err, level.ErrUnknownProfile), convey.ShouldBeTrue)
	})
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given the assembled mux", t, func() {
		ctx := context.Background()
		cfg := config.New()
		svc, err := buildService(ctx, cfg)
		convey.So(err, convey.ShouldBeNil)
		mux := newMux(ctx, cfg, svc)

		get := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			return w
		}

		convey.Convey("Then every surface answers", func() {
			convey.So(get("/").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/static/style.css").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/healthz").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/stats").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api-docs").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/history").Code, convey.ShouldEqual, http.StatusNotFound)
		})

		convey.Convey("And guidance flows end to end", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/guidance",
				strings.NewReader(`{"text":"I'm struggling and scared","days_until_exam":10}`))
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `"level":"Beginner"`)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "10-Day Exam Plan")
		})
	})
}

func TestConfigFromEnv(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		_ = os.Setenv("STUDYBUDDY_ADDR", ":8080")
		_ = os.Setenv("STUDYBUDDY_LEVEL__PROFILE", "mood")
		defer func() {
			_ = os.Unsetenv("STUDYBUDDY_ADDR")
			_ = os.Unsetenv("STUDYBUDDY_LEVEL__PROFILE")
		}()

		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":8080")

		svc, err := buildService(context.Background(), cfg)
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.GetStats().Profile, convey.ShouldEqual, "mood")
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the metrics updaters run until their context ends", func() {
			svc, err := buildService(context.Background(), config.New())
			convey.So(err, convey.ShouldBeNil)

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() {
				startSystemMetricsUpdater(ctx)
				startServiceMetricsUpdater(ctx, svc)
			}, convey.ShouldNotPanic)
		})

		convey.Convey("When the metrics are updated directly", func() {
			svc, err := buildService(context.Background(), config.New())
			convey.So(err, convey.ShouldBeNil)

			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}
