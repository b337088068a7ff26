package cli

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mchmarny/creditrisk/pkg/application"
	"github.com/mchmarny/creditrisk/pkg/form"
	"github.com/mchmarny/creditrisk/pkg/metrics"
)

const maxRequestBytes = 1 << 16

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func fieldsAPIHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, form.Fields())
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version,
	})
}

func predictAPIHandler(s *assessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// fields left out of the request keep their form defaults
		a := application.Default()
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&a); err != nil {
			slog.Error("error binding json", "error", err)
			metrics.ObserveFailure(sourceAPI, metrics.FailureInvalidInput, start)
			writeError(w, http.StatusBadRequest, "error binding json")
			return
		}

		res, err := s.assess(r.Context(), sourceAPI, a.Clamp())
		if err != nil {
			status := statusFor(err)
			msg := err.Error()
			if status == http.StatusInternalServerError {
				msg = inferenceErrorMessage
			}
			writeError(w, status, msg)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}
