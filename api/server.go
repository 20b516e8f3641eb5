package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/alextanhongpin/go-fitmate/domain"
	"github.com/alextanhongpin/go-fitmate/pkg/socket"
	"github.com/alextanhongpin/go-fitmate/pkg/ticket"
	"github.com/alextanhongpin/go-fitmate/usecase"
)

type contextKey string

const ownerKey contextKey = "owner"

type Server struct {
	sessions *usecase.Sessions
	issuer   ticket.Issuer
	hub      *socket.Hub
	logger   *zap.Logger
}

func New(sessions *usecase.Sessions, issuer ticket.Issuer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		sessions: sessions,
		issuer:   issuer,
		hub:      socket.NewHub(),
		logger:   logger,
	}
}

func (s *Server) Handler() http.Handler {
	router := httprouter.New()
	router.GET("/healthz", handleHealth)
	router.POST("/authenticate", s.handleAuthenticate)

	router.GET("/friends", s.authorize(s.handleListFriends))
	router.POST("/friends", s.authorize(s.handleAddFriend))

	router.GET("/friends/removal", s.authorize(s.handleRemovalState))
	router.POST("/friends/removal", s.authorize(s.handleRequestRemoval))
	router.DELETE("/friends/removal", s.authorize(s.handleCancelRemoval))
	router.POST("/friends/removal/confirm", s.authorize(s.handleConfirmRemoval))
	router.POST("/friends/removal/ack", s.authorize(s.handleAcknowledge))

	router.GET("/friends/notices", s.handleNotices)

	return s.logRequests(router)
}

func handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) authorize(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}

		owner, err := s.issuer.Verify(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
			return
		}

		ctx := context.WithValue(r.Context(), ownerKey, owner)
		next(w, r.WithContext(ctx), ps)
	}
}

func ownerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey).(string)
	return owner
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets websocket upgrades pass through the logging middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("http: response writer cannot be hijacked")
	}
	r.status = http.StatusSwitchingProtocols

	return h.Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Info("http: request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps store errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// warning turns a persistence failure into a message for the client. Any
// other error is returned as is.
func warning(err error) (string, error) {
	var perr *domain.PersistenceError
	if errors.As(err, &perr) {
		return "changes may not survive a reload: " + perr.Error(), nil
	}

	return "", err
}

func joinWarnings(warnings ...string) string {
	var out []string
	for _, w := range warnings {
		if w != "" && !slices.Contains(out, w) {
			out = append(out, w)
		}
	}

	return strings.Join(out, "; ")
}
