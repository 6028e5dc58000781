package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/studybuddy/pkg/logger"
)

func init() {
	_ = logger.Init(logger.WithWriter(io.Discard))
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func entry(i int) Entry {
	return Entry{
		ID:        fmt.Sprintf("entry-%02d", i),
		Text:      "I'm stressed",
		Mood:      "anxious",
		TopLabel:  "fear",
		Level:     "Beginner",
		Days:      i,
		CreatedAt: base.Add(time.Duration(i) * time.Hour),
	}
}

// storeContract exercises behavior shared by every backend.
func storeContract(newStore func() Store) {
	ctx := context.Background()

	convey.Convey("When entries are appended out of order", func() {
		s := newStore()
		defer func() { _ = s.Close() }()

		for _, i := range []int{2, 0, 3, 1} {
			convey.So(s.Append(ctx, entry(i)), convey.ShouldBeNil)
		}

		convey.Convey("Then Recent lists the newest first", func() {
			got, err := s.Recent(ctx, 3)
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(got), convey.ShouldEqual, 3)
			convey.So(got[0].ID, convey.ShouldEqual, "entry-03")
			convey.So(got[1].ID, convey.ShouldEqual, "entry-02")
			convey.So(got[2].ID, convey.ShouldEqual, "entry-01")
			convey.So(got[0].CreatedAt.Equal(entry(3).CreatedAt), convey.ShouldBeTrue)
			convey.So(got[0].Mood, convey.ShouldEqual, "anxious")
			convey.So(got[0].Days, convey.ShouldEqual, 3)
		})

		convey.Convey("And duplicate IDs are ignored", func() {
			convey.So(s.Append(ctx, entry(1)), convey.ShouldBeNil)
			n, err := s.Count(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(n, convey.ShouldEqual, 4)
		})

		convey.Convey("And Prune removes entries before the cutoff", func() {
			removed, err := s.Prune(ctx, entry(2).CreatedAt)
			convey.So(err, convey.ShouldBeNil)
			convey.So(removed, convey.ShouldEqual, 2)
			n, _ := s.Count(ctx)
			convey.So(n, convey.ShouldEqual, 2)
			got, _ := s.Recent(ctx, 10)
			convey.So(got[len(got)-1].ID, convey.ShouldEqual, "entry-02")
		})
	})

	convey.Convey("When the limit or entry is invalid", func() {
		s := newStore()
		defer func() { _ = s.Close() }()

		_, err := s.Recent(ctx, 0)
		convey.So(errors.Is(err, ErrInvalidLimit), convey.ShouldBeTrue)

		err = s.Append(ctx, Entry{CreatedAt: base})
		convey.So(errors.Is(err, ErrInvalidEntry), convey.ShouldBeTrue)
		err = s.Append(ctx, Entry{ID: "x"})
		convey.So(errors.Is(err, ErrInvalidEntry), convey.ShouldBeTrue)
	})

	convey.Convey("When writers append concurrently", func() {
		s := newStore()
		defer func() { _ = s.Close() }()

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < 10; i++ {
					e := entry(i)
					e.ID = fmt.Sprintf("g%d-%d", g, i)
					_ = s.Append(ctx, e)
				}
			}(g)
		}
		wg.Wait()
		n, err := s.Count(ctx)
		convey.So(err, convey.ShouldBeNil)
		convey.So(n, convey.ShouldEqual, 40)
	})
}

func TestMemoryStore(t *testing.T) {
	convey.Convey("Given a memory store", t, func() {
		storeContract(func() Store { return NewMemoryStore() })

		convey.Convey("When it is closed", func() {
			s := NewMemoryStore()
			convey.So(s.Close(), convey.ShouldBeNil)
			convey.So(errors.Is(s.Append(context.Background(), entry(1)), ErrClosed), convey.ShouldBeTrue)
			_, err := s.Count(context.Background())
			convey.So(errors.Is(err, ErrClosed), convey.ShouldBeTrue)
		})
	})
}

func TestSQLiteStore(t *testing.T) {
	convey.Convey("Given a sqlite store", t, func() {
		storeContract(func() Store {
			s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
			convey.So(err, convey.ShouldBeNil)
			return s
		})

		convey.Convey("When the file is reopened", func() {
			path := filepath.Join(t.TempDir(), "journal.db")
			s, err := OpenSQLite(context.Background(), path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(s.Append(context.Background(), entry(5)), convey.ShouldBeNil)
			convey.So(s.Close(), convey.ShouldBeNil)

			s, err = OpenSQLite(context.Background(), path)
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = s.Close() }()
			n, _ := s.Count(context.Background())
			convey.So(n, convey.ShouldEqual, 1)
		})

		convey.Convey("When the path is empty", func() {
			_, err := OpenSQLite(context.Background(), "")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestPostgresStore(t *testing.T) {
	convey.Convey("Given the gorm row model", t, func() {
		e := entry(7)
		e.CreatedAt = e.CreatedAt.In(time.FixedZone("CET", 3600))
		m := entryToModel(e)

		convey.So(m.TableName(), convey.ShouldEqual, "journal_entries")
		convey.So(m.CreatedAt.Location(), convey.ShouldEqual, time.UTC)
		back := entryFromModel(m)
		convey.So(back.ID, convey.ShouldEqual, e.ID)
		convey.So(back.CreatedAt.Equal(e.CreatedAt), convey.ShouldBeTrue)
	})

	convey.Convey("Given an unreachable database", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := OpenPostgres(ctx, "host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=1")
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestOpen(t *testing.T) {
	convey.Convey("Given backend names", t, func() {
		ctx := context.Background()

		s, err := Open(ctx, "Memory", "")
		convey.So(err, convey.ShouldBeNil)
		_, ok := s.(*MemoryStore)
		convey.So(ok, convey.ShouldBeTrue)

		s, err = Open(ctx, "sqlite", filepath.Join(t.TempDir(), "j.db"))
		convey.So(err, convey.ShouldBeNil)
		convey.So(s.Close(), convey.ShouldBeNil)

		_, err = Open(ctx, "redis", "")
		convey.So(errors.Is(err, ErrUnknownBackend), convey.ShouldBeTrue)
	})
}

func TestRetention(t *testing.T) {
	convey.Convey("Given a store with entries spread over hours", t, func() {
		ctx := context.Background()
		s := NewMemoryStore()
		for i := 0; i < 5; i++ {
			convey.So(s.Append(ctx, entry(i)), convey.ShouldBeNil)
		}
		now := base.Add(5 * time.Hour)

		r, err := NewRetention(s, 3*time.Hour, "@hourly", WithClock(func() time.Time { return now }))
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When a prune runs", func() {
			n, err := r.RunOnce(ctx)

			convey.Convey("Then entries older than the retention are gone", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(n, convey.ShouldEqual, 2)
				left, _ := s.Count(ctx)
				convey.So(left, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the scheduler starts and stops", func() {
			r.Start()
			r.Stop()
			left, _ := s.Count(ctx)
			convey.So(left, convey.ShouldEqual, 5)
		})

		convey.Convey("When the store fails", func() {
			_ = s.Close()
			_, err := r.RunOnce(ctx)
			convey.So(errors.Is(err, ErrClosed), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given invalid settings", t, func() {
		s := NewMemoryStore()
		_, err := NewRetention(s, time.Hour, "not a spec")
		convey.So(err, convey.ShouldNotBeNil)
		_, err = NewRetention(s, 0, "@hourly")
		convey.So(err, convey.ShouldNotBeNil)
		_, err = NewRetention(nil, time.Hour, "@hourly")
		convey.So(err, convey.ShouldNotBeNil)
	})
}
