// Package api exposes the recording pipeline over HTTP as JSON.
//
// The server is read-only: it serves recording metadata, rendered frames,
// and the change index. Union layouts are built on demand through the
// pipeline runner, so repeated requests hit the cache.
//
// Routes:
//
//	GET /recording               recording metadata and build summary
//	GET /frames/{index}/render   one rendered frame (query: ghost, focus)
//	GET /changes                 per-frame change summaries and change index
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/snarldev/snarl/pkg/diff"
	"github.com/snarldev/snarl/pkg/errors"
	"github.com/snarldev/snarl/pkg/pipeline"
)

// Server serves one recording over HTTP.
type Server struct {
	runner *pipeline.Runner
	opts   pipeline.Options
	logger *log.Logger
	router chi.Router
}

// New creates a server over a pipeline runner. The options fix the
// recording, downsample interval, and base filter; ghost and focus are
// per-request query parameters.
func New(runner *pipeline.Runner, opts pipeline.Options, logger *log.Logger) (*Server, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		opts:   opts,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Get("/recording", s.handleRecording)
	r.Get("/frames/{index}/render", s.handleRender)
	r.Get("/changes", s.handleChanges)
	s.router = r
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// logRequests logs method, path, status, and duration for every request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

// recordingResponse is the body of GET /recording.
type recordingResponse struct {
	Recording          string `json:"recording"`
	FrameCount         int    `json:"frame_count"`
	DownsampleInterval int    `json:"downsample_interval"`
	ProcessedFrames    []int  `json:"processed_frames"`
	BuildID            string `json:"build_id"`
}

func (s *Server) handleRecording(w http.ResponseWriter, r *http.Request) {
	meta, err := s.runner.Meta(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	u, _, err := s.runner.BuildUnion(r.Context(), s.opts, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordingResponse{
		Recording:          s.opts.Recording,
		FrameCount:         meta.FrameCount,
		DownsampleInterval: u.DownsampleInterval,
		ProcessedFrames:    u.ProcessedFrameIndices,
		BuildID:            u.BuildID,
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidFrame, "frame index must be an integer"))
		return
	}
	if err := errors.ValidateFrameIndex(index, 0); err != nil {
		s.writeError(w, err)
		return
	}

	opts := s.opts
	opts.GhostMode = queryBool(r, "ghost")
	opts.FocusID = r.URL.Query().Get("focus")

	u, _, err := s.runner.BuildUnion(r.Context(), s.opts, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	g, _, err := s.runner.RenderFrame(r.Context(), index, u, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// changesResponse is the body of GET /changes.
type changesResponse struct {
	Summaries    map[int]diff.Summary `json:"summaries"`
	ChangeFrames []int                `json:"change_frames"`
}

func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	u, _, err := s.runner.BuildUnion(r.Context(), s.opts, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	summaries, frames, err := s.runner.Changes(u)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if frames == nil {
		frames = []int{}
	}
	writeJSON(w, http.StatusOK, changesResponse{
		Summaries:    summaries,
		ChangeFrames: frames,
	})
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps a pipeline error onto an HTTP status and JSON body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: errorBody{
		Code:    string(code),
		Message: errors.UserMessage(err),
	}})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFrame,
		errors.ErrCodeInvalidInterval, errors.ErrCodeInvalidFilter,
		errors.ErrCodeInvalidEntityID:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFrameNotFound,
		errors.ErrCodeRecordingNotFound, errors.ErrCodeEntityNotFound:
		return http.StatusNotFound
	case errors.ErrCodeBuildSuperseded:
		return http.StatusConflict
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func queryBool(r *http.Request, name string) bool {
	switch r.URL.Query().Get(name) {
	case "1", "true", "yes":
		return true
	}
	return false
}
