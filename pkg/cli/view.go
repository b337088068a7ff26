package cli

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mchmarny/creditrisk/pkg/encoding"
	"github.com/mchmarny/creditrisk/pkg/form"
	"github.com/mchmarny/creditrisk/pkg/metrics"
	"github.com/mchmarny/creditrisk/pkg/report"
	"github.com/pkg/errors"
)

const (
	inferenceErrorMessage = "The model could not score this application. Please try again."

	// not in net/http, used by proxies for a client that went away
	statusClientClosedRequest = 499
)

var templateFuncs = template.FuncMap{
	"percent": report.Percent,
}

// fieldView is a form control with its current value.
type fieldView struct {
	form.Field
	Value string
	Step  string
}

type homeView struct {
	Version   string
	Commit    string
	BuildDate string
	Fields    []fieldView
	Result    *Assessment
	Error     string
}

func newHomeView(values url.Values) *homeView {
	fields := form.Fields()
	d := &homeView{
		Version:   version,
		Commit:    commit,
		BuildDate: date,
		Fields:    make([]fieldView, len(fields)),
	}
	for i, f := range fields {
		v := f.Default
		if _, ok := values[f.Key]; ok {
			v = values.Get(f.Key)
		}
		d.Fields[i] = fieldView{Field: f, Value: v, Step: f.StepAttr()}
	}
	return d
}

func faviconHandler(w http.ResponseWriter, r *http.Request) {
	file, err := embedFS.ReadFile("assets/img/favicon.ico")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/x-icon")
	if _, err = w.Write(file); err != nil {
		slog.Error("failed to write favicon", "error", err)
	}
}

func homeViewHandler(tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderHome(w, tmpl, http.StatusOK, newHomeView(nil))
	}
}

func predictViewHandler(tmpl *template.Template, s *assessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if err := r.ParseForm(); err != nil {
			slog.Error("failed to parse form", "error", err)
			metrics.ObserveFailure(sourceWeb, metrics.FailureInvalidInput, start)
			d := newHomeView(nil)
			d.Error = "The submitted form could not be read."
			renderHome(w, tmpl, http.StatusBadRequest, d)
			return
		}

		a, err := form.Collect(r.PostForm)
		if err != nil {
			slog.Error("invalid application form", "error", err)
			metrics.ObserveFailure(sourceWeb, failureKind(err), start)
			d := newHomeView(r.PostForm)
			d.Error = errorMessage(err)
			renderHome(w, tmpl, statusFor(err), d)
			return
		}

		// the collected values are shown, so clamped numbers are visible
		d := newHomeView(form.Encode(a))
		res, err := s.assess(r.Context(), sourceWeb, a)
		if err != nil {
			d.Error = errorMessage(err)
			renderHome(w, tmpl, statusFor(err), d)
			return
		}

		d.Result = res
		renderHome(w, tmpl, http.StatusOK, d)
	}
}

func renderHome(w http.ResponseWriter, tmpl *template.Template, status int, d *homeView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "home", d); err != nil {
		slog.Error("template render failed", "error", err)
	}
}

// statusFor maps a prediction error to the HTTP status of its response.
func statusFor(err error) int {
	switch {
	case errors.Is(err, form.ErrInvalidInput) || errors.Is(err, encoding.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage is the text shown to the user for a prediction error.
func errorMessage(err error) string {
	if statusFor(err) == http.StatusBadRequest {
		return "Please check the application: " + err.Error()
	}
	return inferenceErrorMessage
}
