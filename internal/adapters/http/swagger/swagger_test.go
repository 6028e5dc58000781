package swagger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestSwaggerHandler(t *testing.T) {
	convey.Convey("Given a swagger handler", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()

		convey.Convey("When registering the swagger handler", func() {
			Register(ctx, mux)

			convey.Convey("Then it should handle /openapi.yaml route", func() {
				req := httptest.NewRequest("GET", "/openapi.yaml", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "/guidance:")
			})

			convey.Convey("And it should handle /api-docs route", func() {
				req := httptest.NewRequest("GET", "/api-docs", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "text/html; charset=utf-8")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "API Docs – Study Buddy API")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "<code>/guidance</code>")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "200, 400, 422, 502")
			})
		})
	})
}

func TestOperations(t *testing.T) {
	convey.Convey("Given the embedded document", t, func() {
		title, ops, err := Operations(OpenAPI)
		convey.So(err, convey.ShouldBeNil)
		convey.So(title, convey.ShouldEqual, "Study Buddy API")

		convey.Convey("Then every route is described in path order", func() {
			var got []string
			for _, op := range ops {
				got = append(got, op.Method+" "+op.Path)
			}
			convey.So(got, convey.ShouldResemble, []string{
				"POST /guidance",
				"GET /healthz",
				"GET /history",
				"GET /stats",
			})
		})
	})

	convey.Convey("Given broken documents", t, func() {
		_, _, err := Operations([]byte("paths: ["))
		convey.So(errors.Is(err, ErrParse), convey.ShouldBeTrue)

		_, _, err = Operations([]byte("info: {title: x}"))
		convey.So(errors.Is(err, ErrParse), convey.ShouldBeTrue)
	})
}

func TestSwaggerErrors(t *testing.T) {
	convey.Convey("Given swagger error constants", t, func() {
		convey.Convey("Then ErrServe should be defined", func() {
			convey.So(ErrServe, convey.ShouldNotBeNil)
			convey.So(ErrServe.Error(), convey.ShouldEqual, "swagger serve failed")
		})
	})
}

func TestSwaggerHandlerWithNilMux(t *testing.T) {
	convey.Convey("Given a nil mux", t, func() {
		ctx := context.Background()

		convey.Convey("When registering the swagger handler", func() {
			convey.Convey("Then it should panic", func() {
				convey.So(func() {
					Register(ctx, nil)
				}, convey.ShouldPanic)
			})
		})
	})
}
