// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package devserver

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pterm/pterm"

	"querydesk/cli/internal/logging"
	"querydesk/cli/internal/resultset"
	"querydesk/cli/internal/wire"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Router builds the HTTP API. When token is set every route except /healthz requires it
// as a bearer token.
func Router(svc *Service, token string, log *pterm.Logger) http.Handler {
	if log == nil {
		log = logging.Discard()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		if token != "" {
			r.Use(requireToken(token))
		}
		h := &handlers{svc: svc}
		r.Get(wire.PathSources, h.sources)
		r.Post(wire.PathSelect, h.selectSource)
		r.Post(wire.PathQuery, h.query)
		r.Post(wire.PathExport, h.export)
	})
	return r
}

func requestLogger(log *pterm.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				log.Args(
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"elapsed", time.Since(start).String(),
					"request_id", middleware.GetReqID(r.Context()),
				))
		})
	}
}

func requireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := wire.ParseBearer(r.Header.Get("Authorization"))
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeJSON(w, http.StatusUnauthorized, wire.StatusResponse{Status: StatusError, Message: "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type handlers struct {
	svc *Service
}

func (h *handlers) sources(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.ListSources(r.Context())
	if err != nil {
		writeJSON(w, statusOf(err), wire.StatusResponse{Error: err.Error()})
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, wire.SourcesResponse{Databases: names})
}

func (h *handlers) selectSource(w http.ResponseWriter, r *http.Request) {
	var req wire.SelectRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, wire.StatusResponse{Error: err.Error()})
		return
	}
	if err := h.svc.SelectSource(r.Context(), req.Database); err != nil {
		writeJSON(w, statusOf(err), wire.StatusResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, wire.StatusResponse{Status: statusAcknowledged})
}

// query always answers 200 once the body parses; the status field carries the outcome.
func (h *handlers) query(w http.ResponseWriter, r *http.Request) {
	var req wire.QueryRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, wire.StatusResponse{Status: StatusError, Message: err.Error()})
		return
	}
	body, err := resultset.Encode(h.svc.Query(r.Context(), req.Query))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, wire.StatusResponse{Status: StatusError, Message: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *handlers) export(w http.ResponseWriter, r *http.Request) {
	var req wire.QueryRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, wire.StatusResponse{Status: StatusError, Message: err.Error()})
		return
	}
	data, err := h.svc.Export(r.Context(), req.Query)
	if err != nil {
		writeJSON(w, statusOf(err), wire.StatusResponse{Status: StatusError, Message: err.Error()})
		return
	}
	w.Header().Set("Content-Type", XLSXContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": XLSXFilename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func statusOf(err error) int {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Status
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
