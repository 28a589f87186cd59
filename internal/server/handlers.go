package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"streamscout/internal/httputil"
	"streamscout/internal/log"
	"streamscout/internal/media"
	"streamscout/internal/provider"
)

type healthResponse struct {
	Status    string   `json:"status"`
	Providers []string `json:"providers"`
}

type debugInfo struct {
	Endpoint      string               `json:"endpoint"`
	DirectSources []media.SourceRecord `json:"direct_sources"`
	SourceCount   int                  `json:"source_count"`
	HasError      bool                 `json:"has_error"`
}

type testResponse struct {
	media.ExtractionResult
	Debug debugInfo `json:"debug"`
}

type directResponse struct {
	Sources []media.SourceRecord `json:"sources"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "working",
		Providers: s.registry.Names(),
	})
}

func (s *Server) handleStreams(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	p, ok := s.registry.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown provider %q", name))
		return
	}
	req, err := parseRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.resolve(r.Context(), p, req))
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	p, ok := s.registry.Get(s.testProvider)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("provider %q not registered", s.testProvider))
		return
	}
	req, err := parseRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := s.resolve(r.Context(), p, req)

	first := res.Sources
	if len(first) > 3 {
		first = first[:3]
	}
	writeJSON(w, http.StatusOK, testResponse{
		ExtractionResult: res,
		Debug: debugInfo{
			Endpoint:      fmt.Sprintf("/%s/%s/%s", p.Name(), chi.URLParam(r, "media_type"), req.ID),
			DirectSources: first,
			SourceCount:   len(res.Sources),
			HasError:      res.HasError(),
		},
	})
}

func (s *Server) handleDirect(w http.ResponseWriter, r *http.Request) {
	if s.direct == nil {
		writeError(w, http.StatusNotFound, "direct extraction disabled")
		return
	}
	target := r.URL.Query().Get("url")
	if err := httputil.ValidateURL(target); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid url: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, directResponse{Sources: s.direct.DirectSources(r.Context(), target)})
}

// resolve runs the provider and records the outcome when a log is attached.
func (s *Server) resolve(ctx context.Context, p provider.Provider, req provider.Request) media.ExtractionResult {
	res := p.Streams(ctx, req)

	if s.history != nil {
		if _, err := s.history.Record(ctx, req.LogEntry(p.Name(), res)); err != nil {
			logger := log.WithContext(ctx, s.logger)
			logger.Warn().Err(err).Msg("recording history failed")
		}
	}
	return res
}

// parseRequest reads the media type, ID and optional query parameters.
func parseRequest(r *http.Request) (provider.Request, error) {
	mt, err := media.ParseMediaType(chi.URLParam(r, "media_type"))
	if err != nil {
		return provider.Request{}, err
	}
	id := chi.URLParam(r, "id")
	if err := httputil.ValidateID(id); err != nil {
		return provider.Request{}, err
	}

	req := provider.NewRequest(mt, id)
	q := r.URL.Query()

	if req.Season, err = optionalInt(q.Get("season"), "season"); err != nil {
		return provider.Request{}, err
	}
	if req.Episode, err = optionalInt(q.Get("episode"), "episode"); err != nil {
		return provider.Request{}, err
	}
	if v := q.Get("server"); v != "" {
		req.Server = v
	}
	if req.Sources, err = optionalBool(q.Get("sources"), "sources", true); err != nil {
		return provider.Request{}, err
	}
	if req.Subtitles, err = optionalBool(q.Get("subtitles"), "subtitles", true); err != nil {
		return provider.Request{}, err
	}
	return req, nil
}

func optionalInt(raw, name string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("%s must be a non-negative integer, got %q", name, raw)
	}
	return &v, nil
}

func optionalBool(raw, name string, def bool) (bool, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, fmt.Errorf("%s must be a boolean, got %q", name, raw)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
