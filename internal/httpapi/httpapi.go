// Package httpapi is the thin HTTP adapter: route registration, request
// parsing, and JSON encoding in front of the engine's typed
// get/put/remove/list_keys operations. None of this package's logic is
// part of the core; it exists only at the core's interface with the
// outside world.
package httpapi

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dreamware/kvstore/internal/engine"
	"github.com/dreamware/kvstore/internal/jsonutil"
	"github.com/dreamware/kvstore/internal/metrics"
)

const keysPrefix = "/api/v1/kv/keys/"
const keysPath = "/api/v1/kv/keys"

// Server adapts an *engine.Engine to net/http.
type Server struct {
	engine  *engine.Engine
	metrics *metrics.Collector
	mux     *http.ServeMux
}

// New builds a Server with all routes registered.
func New(e *engine.Engine, m *metrics.Collector) *Server {
	s := &Server{engine: e, metrics: m, mux: http.NewServeMux()}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/stats", s.handleStats)
	s.mux.Handle("/metrics", m.Handler())
	s.mux.HandleFunc(keysPath, s.handleListKeys)
	s.mux.HandleFunc(keysPrefix, s.handleKey)

	return s
}

// Handler returns the root http.Handler, wrapped with request logging.
func (s *Server) Handler() http.Handler {
	return s.withRequestLog(s.mux)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.NewString()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		slog.Info("request",
			"request_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeEnvelope(w, http.StatusOK, `"message":"Server is healthy"`)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeEnvelope(w, http.StatusOK, `"data":{"stats":{"shard_count":`+strconv.Itoa(s.engine.PartitionCount())+`}}`)
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()
	keys, err := s.engine.ListKeysAll(r.Context())
	s.metrics.ObserveDuration("list_keys", time.Since(start).Seconds())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list keys")
		return
	}

	var b strings.Builder
	b.WriteString(`"data":{"keys":[`)
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(jsonutil.EscapeJSONString([]byte(k)))
		b.WriteByte('"')
	}
	b.WriteString("]}")
	writeEnvelope(w, http.StatusOK, b.String())
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	segment := strings.TrimPrefix(r.URL.Path, keysPrefix)
	key, err := jsonutil.DecodeKeySegment(segment)
	if err != nil || key == "" {
		writeError(w, http.StatusBadRequest, "invalid key")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGet(w, r, key)
	case http.MethodPut:
		s.handlePut(w, r, key)
	case http.MethodDelete:
		s.handleDelete(w, r, key)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, key string) {
	start := time.Now()
	value, ok, err := s.engine.Get(r.Context(), []byte(key))
	s.metrics.ObserveDuration("get", time.Since(start).Seconds())

	if err != nil {
		if engine.ValidationError(err) {
			writeError(w, http.StatusBadRequest, "key too long")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "key not found")
		return
	}

	writeEnvelope(w, http.StatusOK, `"data":{"value":"`+jsonutil.EscapeJSONString(value)+`"}`)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request, key string) {
	value, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	start := time.Now()
	err = s.engine.Put(r.Context(), []byte(key), value)
	s.metrics.ObserveDuration("put", time.Since(start).Seconds())

	if err != nil {
		if engine.ValidationError(err) {
			writeError(w, http.StatusBadRequest, "bad key")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeEnvelope(w, http.StatusOK, `"message":"stored"`)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, key string) {
	start := time.Now()
	err := s.engine.Remove(r.Context(), []byte(key))
	s.metrics.ObserveDuration("remove", time.Since(start).Seconds())

	if err != nil {
		if engine.ValidationError(err) {
			writeError(w, http.StatusBadRequest, "bad key")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeEnvelope(w, http.StatusOK, `"message":"deleted"`)
}

// writeEnvelope writes {"status":"success",<fields>} where fields is the
// caller-supplied, already-escaped JSON fragment (e.g. `"message":"ok"`).
// The envelope shape is fixed and small enough that hand-assembling it
// avoids a throwaway struct per handler.
func writeEnvelope(w http.ResponseWriter, status int, fields string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, `{"status":"success",`+fields+`}`)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, `{"status":"error","message":"`+jsonutil.EscapeJSONString([]byte(message))+`"}`)
}
