package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/studybuddy/internal/adapters/repository"
	service "github.com/okian/studybuddy/internal/app"
	"github.com/okian/studybuddy/internal/domain/emotion"
	"github.com/okian/studybuddy/internal/domain/level"
	"github.com/okian/studybuddy/internal/domain/model"
	"github.com/okian/studybuddy/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// staticClassifier returns fixed scores and counts calls.
type staticClassifier struct {
	scores []emotion.Score
	err    error
	calls  atomic.Int64
}

func (c *staticClassifier) Classify(ctx context.Context, text string) ([]emotion.Score, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.scores, nil
}

func stressed() *staticClassifier {
	return &staticClassifier{scores: []emotion.Score{
		{Label: emotion.Joy, Score: 0.05},
		{Label: emotion.Fear, Score: 0.6},
		{Label: emotion.Neutral, Score: 0.1},
		{Label: emotion.Sadness, Score: 0.25},
	}}
}

var fixedNow = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

func newService(c emotion.Classifier, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithLogger(logger.Nop()),
		service.WithClock(func() time.Time { return fixedNow }),
		service.WithIDGenerator(func() string { return "result-1" }),
	}
	svc, err := service.New(c, append(base, opts...)...)
	if err != nil {
		panic(err)
	}
	return svc
}

func TestService_New(t *testing.T) {
	Convey("Given no classifier", t, func() {
		_, err := service.New(nil)
		So(errors.Is(err, service.ErrNoClassifier), ShouldBeTrue)
	})

	Convey("Given a bad retention schedule", t, func() {
		_, err := service.New(stressed(),
			service.WithJournal(repository.NewMemoryStore(), "memory", 10, 1),
			service.WithRetention(time.Hour, "every now and then"),
		)
		So(err, ShouldNotBeNil)
	})
}

func TestService_Guide(t *testing.T) {
	Convey("Given a service with a stressed classifier", t, func() {
		c := stressed()
		svc := newService(c)
		ctx := context.Background()

		Convey("When the learner describes stress and struggle", func() {
			res, err := svc.Guide(ctx, model.Request{Text: "I'm stressed and struggling to focus on revision"})

			Convey("Then the top three emotions are ordered by score", func() {
				So(err, ShouldBeNil)
				So(emotion.LabelsOf(res.Emotions), ShouldResemble, []emotion.Label{emotion.Fear, emotion.Sadness, emotion.Neutral})
			})

			Convey("And the level is Beginner because of 'struggling'", func() {
				So(res.Level, ShouldEqual, level.Beginner)
				So(res.LevelKeyword, ShouldEqual, "struggling")
			})

			Convey("And advice follows the emotions without an exam plan", func() {
				So(len(res.Advice.Tips), ShouldEqual, 3)
				So(res.Advice.Tips[0], ShouldStartWith, "Feeling anxious?")
				So(res.Advice.Tips[1], ShouldStartWith, "Feeling low?")
				So(res.Advice.Tips[2], ShouldStartWith, "Feeling stable?")
				So(res.Advice.LevelPlan, ShouldContainSubstring, "Beginner Strategy")
				So(res.Advice.ExamPlan, ShouldBeEmpty)
			})

			Convey("And the result carries an id and timestamp", func() {
				So(res.ID, ShouldEqual, "result-1")
				So(res.CreatedAt, ShouldEqual, fixedNow)
			})
		})

		Convey("When the mood field carries the only level keyword", func() {
			res, err := svc.Guide(ctx, model.Request{Text: "exam soon", Mood: "confident", DaysUntilExam: 30})
			So(err, ShouldBeNil)
			So(res.Level, ShouldEqual, level.Advanced)
			So(res.DaysUntilExam, ShouldEqual, 30)
			So(res.Advice.ExamPlan, ShouldContainSubstring, "30")
		})

		Convey("When the input is blank", func() {
			_, err := svc.Guide(ctx, model.Request{Text: "   ", Mood: "\n"})

			Convey("Then it is a warning and the classifier is not called", func() {
				So(errors.Is(err, service.ErrEmptyInput), ShouldBeTrue)
				So(c.calls.Load(), ShouldEqual, 0)
				So(svc.GetStats().Warnings, ShouldEqual, 1)
			})
		})

		Convey("When days are out of range", func() {
			for _, d := range []int{-1, 366} {
				_, err := svc.Guide(ctx, model.Request{Text: "hi", DaysUntilExam: d})
				So(errors.Is(err, service.ErrInvalidDays), ShouldBeTrue)
			}
			So(c.calls.Load(), ShouldEqual, 0)
			So(svc.GetStats().Invalid, ShouldEqual, 2)
		})

		Convey("When the same text is analyzed twice", func() {
			_, err := svc.Guide(ctx, model.Request{Text: "hard day"})
			So(err, ShouldBeNil)
			_, err = svc.Guide(ctx, model.Request{Text: "hard day"})
			So(err, ShouldBeNil)

			Convey("Then the second call is served from the cache", func() {
				So(c.calls.Load(), ShouldEqual, 1)
				stats := svc.GetStats()
				So(stats.CacheHits, ShouldEqual, 1)
				So(stats.CacheMisses, ShouldEqual, 1)
				So(stats.CacheSize, ShouldEqual, 1)
				So(stats.Served, ShouldEqual, 2)
			})
		})
	})

	Convey("Given a service with the cache disabled", t, func() {
		c := stressed()
		svc := newService(c, service.WithCacheSize(0), service.WithTopEmotions(1))

		for i := 0; i < 2; i++ {
			res, err := svc.Guide(context.Background(), model.Request{Text: "hard day"})
			So(err, ShouldBeNil)
			So(len(res.Emotions), ShouldEqual, 1)
		}
		So(c.calls.Load(), ShouldEqual, 2)
	})

	Convey("Given a failing classifier", t, func() {
		down := errors.New("connection refused")
		svc := newService(&staticClassifier{err: down})

		_, err := svc.Guide(context.Background(), model.Request{Text: "hello"})

		Convey("Then the failure is wrapped and counted", func() {
			So(errors.Is(err, service.ErrClassifier), ShouldBeTrue)
			So(errors.Is(err, down), ShouldBeTrue)
			So(svc.GetStats().Failures, ShouldEqual, 1)
		})
	})

	Convey("Given a classifier with malformed scores", t, func() {
		svc := newService(&staticClassifier{scores: []emotion.Score{{Label: emotion.Joy, Score: 1.5}}})

		_, err := svc.Guide(context.Background(), model.Request{Text: "hello"})
		So(errors.Is(err, service.ErrClassifier), ShouldBeTrue)
		So(errors.Is(err, emotion.ErrMalformedScores), ShouldBeTrue)
	})
}

func TestService_Journal(t *testing.T) {
	Convey("Given a service with a memory journal", t, func() {
		store := repository.NewMemoryStore()
		n := 0
		svc := newService(stressed(),
			service.WithJournal(store, "memory", 16, 2),
			service.WithRetention(24*time.Hour, "@daily"),
			service.WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When guidance is served", func() {
			_, err := svc.Guide(ctx, model.Request{Text: "I'm confused", Mood: "worried", DaysUntilExam: 10})
			So(err, ShouldBeNil)

			deadline := time.Now().Add(2 * time.Second)
			for svc.GetStats().Journal.Written < 1 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}

			Convey("Then the entry is journaled", func() {
				entries, err := svc.History(ctx, 10)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
				So(entries[0].ID, ShouldEqual, "id-1")
				So(entries[0].TopLabel, ShouldEqual, "fear")
				So(entries[0].Level, ShouldEqual, "Beginner")
				So(entries[0].Mood, ShouldEqual, "worried")
				So(entries[0].Days, ShouldEqual, 10)

				stats := svc.GetStats()
				So(stats.Journal.Backend, ShouldEqual, "memory")
				So(stats.Journal.Entries, ShouldEqual, 1)
				svc.Stop(ctx)
				So(svc.GetStats().Started, ShouldBeFalse)
			})
		})
	})

	Convey("Given a journal whose workers never run", t, func() {
		svc := newService(stressed(), service.WithJournal(repository.NewMemoryStore(), "memory", 1, 1))
		ctx := context.Background()

		_, err := svc.Guide(ctx, model.Request{Text: "one"})
		So(err, ShouldBeNil)
		_, err = svc.Guide(ctx, model.Request{Text: "two"})

		Convey("Then overflow drops entries without failing the request", func() {
			So(err, ShouldBeNil)
			stats := svc.GetStats()
			So(stats.Journal.QueueLength, ShouldEqual, 1)
			So(stats.Journal.Dropped, ShouldEqual, 1)
		})
	})

	Convey("Given no journal", t, func() {
		svc := newService(stressed())
		So(svc.JournalEnabled(), ShouldBeFalse)
		_, err := svc.History(context.Background(), 5)
		So(errors.Is(err, service.ErrJournalDisabled), ShouldBeTrue)
		So(svc.GetStats().Journal, ShouldBeNil)
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newService(stressed())
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.GetStats().Started, ShouldBeTrue)

		Convey("When stopping twice", func() {
			svc.Stop(ctx)
			svc.Stop(ctx)
			So(svc.GetStats().Started, ShouldBeFalse)
		})
	})
}
