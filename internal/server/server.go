// Package server exposes a browse session over loopback HTTP so a browser
// page (or curl) can mirror and drive the same collection. It is a thin
// JSON adapter: every route maps onto one session operation, and the session
// mutex serializes whatever arrives concurrently.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"culld/internal/browse"
	"culld/internal/errors"
	"culld/internal/log"
	"culld/internal/watch"
	"culld/pkg/types"

	"github.com/cespare/xxhash/v2"
)

// Server mirrors one session over HTTP.
type Server struct {
	session *browse.Session
	addr    string
	stale   atomic.Bool
	srv     *http.Server
}

// New creates a server for the session, listening on addr when started.
func New(session *browse.Session, addr string) *Server {
	return &Server{session: session, addr: addr}
}

// TrackStaleness consumes watcher notifications and raises the stale flag
// reported by /api/state. A rescan clears it. The goroutine ends when the
// channel closes.
func (s *Server) TrackStaleness(ch <-chan watch.Notification) {
	go func() {
		for n := range ch {
			s.stale.Store(true)
			log.LogWithFields(log.F("root", n.Root), log.F("changes", n.Changes)).Debug("collection marked stale")
		}
	}()
}

// Handler builds the route table. Exposed separately so tests can drive it
// without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/image/preview", s.handlePreview)
	mux.HandleFunc("GET /api/image/full", s.handleFull)

	mux.HandleFunc("POST /api/folder", s.handleFolder)
	mux.HandleFunc("POST /api/nav", s.handleNav)
	mux.HandleFunc("POST /api/skip", s.handleSkip)
	mux.HandleFunc("POST /api/rotate", s.handleRotate)
	mux.HandleFunc("POST /api/flip", s.handleFlip)
	mux.HandleFunc("POST /api/rating", s.handleRating)
	mux.HandleFunc("POST /api/commit", s.handleCommit)
	mux.HandleFunc("POST /api/discard", s.handleDiscard)
	mux.HandleFunc("POST /api/delete", s.handleDelete)
	mux.HandleFunc("POST /api/rescan", s.handleRescan)

	return requestLogger(mux)
}

// ListenAndServe blocks serving the mirror until Shutdown or a listener
// error.
func (s *Server) ListenAndServe() error {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.LogWithFields(log.F("address", s.addr)).Info("http mirror listening")
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

type stateResponse struct {
	browse.Snapshot
	Stale bool `json:"stale"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{Snapshot: s.session.Snapshot(), Stale: s.stale.Load()})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	view, err := s.session.LoadCurrent()
	if err != nil {
		writeError(w, err)
		return
	}
	etag := fmt.Sprintf("\"%016x\"", xxhash.Sum64(view.Meta.Preview))
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(view.Meta.Preview)
}

func (s *Server) handleFull(w http.ResponseWriter, r *http.Request) {
	entry, err := s.session.Current()
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := os.Open(entry.Path)
	if err != nil {
		writeError(w, errors.NewFileError("cannot read image", entry.Path, errors.ImageUnreadable, err))
		return
	}
	defer f.Close()

	ctype := mime.TypeByExtension(filepath.Ext(entry.Path))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	io.Copy(w, f)
}

func (s *Server) handleFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	count, err := s.session.LoadFolder(req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction string `json:"direction"`
	}
	if !decode(w, r, &req) {
		return
	}
	var dir types.Direction
	switch strings.ToLower(req.Direction) {
	case "next", "forward":
		dir = types.Forward
	case "prev", "previous", "back", "backward":
		dir = types.Backward
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("direction must be next or prev"))
		return
	}
	cursor, err := s.session.Navigate(dir)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cursor": cursor})
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	cursor, err := s.session.Skip()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cursor": cursor})
}

func (s *Server) handleRotate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Degrees int `json:"degrees"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Degrees%90 != 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("degrees must be a multiple of 90"))
		return
	}
	pending, err := s.session.Rotate(req.Degrees)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]types.Transform{"pending": pending})
}

func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Axis string `json:"axis"`
	}
	if !decode(w, r, &req) {
		return
	}
	var pending types.Transform
	var err error
	switch strings.ToLower(req.Axis) {
	case "horizontal", "h":
		pending, err = s.session.FlipHorizontal()
	case "vertical", "v":
		pending, err = s.session.FlipVertical()
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("axis must be horizontal or vertical"))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]types.Transform{"pending": pending})
}

func (s *Server) handleRating(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stars int `json:"stars"`
	}
	if !decode(w, r, &req) {
		return
	}
	rating, err := s.session.SetRating(req.Stars)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]types.Rating{"rating": rating})
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Commit(); err != nil {
		writeError(w, err)
		return
	}
	// The pending transform survives a standalone commit; echo it so the
	// client can offer the discard.
	writeJSON(w, http.StatusOK, map[string]types.Transform{"pending": s.session.Pending()})
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	discarded := s.session.DiscardPending()
	writeJSON(w, http.StatusOK, map[string]types.Transform{"discarded": discarded})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	// The browser UI owns the confirmation; reaching this endpoint means the
	// user already confirmed.
	if err := s.session.DeleteCurrent(); err != nil {
		writeError(w, err)
		return
	}
	snap := s.session.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cursor": snap.Cursor,
		"count":  snap.Count,
		"state":  snap.State,
	})
}

func (s *Server) handleRescan(w http.ResponseWriter, r *http.Request) {
	root := s.session.Root()
	if root == "" {
		writeError(w, errors.ErrEmptyCollection)
		return
	}
	count, err := s.session.LoadFolder(root)
	if err != nil {
		writeError(w, err)
		return
	}
	s.stale.Store(false)
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

// decode parses a JSON request body, answering 400 itself on garbage.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return false
	}
	return true
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody(err.Error()))
}

// statusFor maps error kinds onto HTTP status codes. Refusals are conflicts
// or not-found, never server errors.
func statusFor(err error) int {
	switch errors.KindOf(err) {
	case errors.AtBoundary:
		return http.StatusConflict
	case errors.NotADirectory:
		return http.StatusBadRequest
	case errors.PermissionDenied:
		return http.StatusForbidden
	case errors.ImageUnreadable, errors.EmptyCollection:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.LogWithError(err).Warn("could not encode response")
	}
}
