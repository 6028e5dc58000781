// Package site serves the browser form for guidance requests.
package site

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/studybuddy/internal/app"
	"github.com/okian/studybuddy/internal/domain/model"
	"github.com/okian/studybuddy/pkg/logger"
)

// Error constants
var (
	ErrTemplate = errors.New("site template failed")
	ErrServe    = errors.New("site serve failed")
)

// Messages shown inline on the page.
const (
	EmptyInputWarning = "Please enter your current feelings or study challenges."
	InvalidDaysError  = "Days until exam must be a whole number between 0 and 365."
	ClassifierError   = "Emotion analysis is unavailable right now. Please try again shortly."
)

const maxFormBody = 64 << 10

// Guider produces guidance for a request.
type Guider interface {
	Guide(ctx context.Context, req model.Request) (model.Result, error)
}

// Register attaches the form page and its static assets to mux.
func Register(_ context.Context, mux *http.ServeMux, g Guider) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(FS())))
	mux.Handle("/", NewRootHandler(g))
}

type formValues struct {
	Text string
	Mood string
	Days string
}

type pageData struct {
	Form    formValues
	Warning string
	Error   string
	Result  *model.Result
}

// RootHandler renders the form and its results.
type RootHandler struct {
	guider Guider
	tpl    *template.Template
}

// NewRootHandler creates a root handler. It panics if the embedded template
// does not parse.
func NewRootHandler(g Guider) *RootHandler {
	tpl := template.Must(template.New("index.html").
		Funcs(template.FuncMap{"render": render}).
		ParseFS(staticFS, "static/index.html"))
	return &RootHandler{guider: g, tpl: tpl}
}

// ServeHTTP implements http.Handler.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.HandleRoot(w, r)
}

// HandleRoot handles GET / (empty form) and POST / (form submission).
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.write(w, r, http.StatusOK, pageData{Form: formValues{Days: "0"}})
	case http.MethodPost:
		h.submit(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (h *RootHandler) submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := r.ParseForm(); err != nil {
		h.write(w, r, http.StatusBadRequest, pageData{Error: "Could not read the form."})
		return
	}
	form := formValues{
		Text: r.PostFormValue("text"),
		Mood: r.PostFormValue("mood"),
		Days: strings.TrimSpace(r.PostFormValue("days")),
	}
	data := pageData{Form: form}

	days := 0
	if form.Days != "" {
		v, err := strconv.Atoi(form.Days)
		if err != nil {
			data.Error = InvalidDaysError
			h.write(w, r, http.StatusBadRequest, data)
			return
		}
		days = v
	}

	res, err := h.guider.Guide(r.Context(), model.Request{Text: form.Text, Mood: form.Mood, DaysUntilExam: days})
	switch {
	case err == nil:
		data.Result = &res
		h.write(w, r, http.StatusOK, data)
	case errors.Is(err, service.ErrEmptyInput):
		// The warning is part of the normal page.
		data.Warning = EmptyInputWarning
		h.write(w, r, http.StatusOK, data)
	case errors.Is(err, service.ErrInvalidDays):
		data.Error = InvalidDaysError
		h.write(w, r, http.StatusBadRequest, data)
	default:
		logger.Get().Error(r.Context(), "site guidance failed", logger.Error(err))
		data.Error = ClassifierError
		h.write(w, r, http.StatusBadGateway, data)
	}
}

func (h *RootHandler) write(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := h.tpl.Execute(&buf, data); err != nil {
		logger.Get().Error(r.Context(), "render page", logger.Error(errors.Join(ErrTemplate, err)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Get().Warn(r.Context(), "write page", logger.Error(errors.Join(ErrServe, err)))
	}
}
