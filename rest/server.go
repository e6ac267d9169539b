package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mohitkumar/scriptproc/logger"
	"github.com/mohitkumar/scriptproc/model"
	"github.com/mohitkumar/scriptproc/runner"
	"go.uber.org/zap"
)

// RelationshipDrainer pops routed FlowFiles from an external sink.
type RelationshipDrainer interface {
	Drain(rel model.Relationship, count int) ([]*model.FlowFile, error)
}

// ScriptStore replaces the script the processor loads on its next trigger.
type ScriptStore interface {
	Save(ctx context.Context, code string) error
}

type Option func(*Server)

// WithDrainer makes DELETE /relationships/{name} return FlowFiles popped
// from d instead of the in-memory results.
func WithDrainer(d RelationshipDrainer) Option {
	return func(s *Server) {
		s.drainer = d
	}
}

func WithScriptStore(store ScriptStore) Option {
	return func(s *Server) {
		s.scripts = store
	}
}

type Server struct {
	http.Server
	Port    int
	runner  *runner.Runner
	drainer RelationshipDrainer
	scripts ScriptStore
}

func NewServer(httpPort int, r *runner.Runner, opts ...Option) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr:        fmt.Sprintf(":%d", httpPort),
			IdleTimeout: 2 * time.Second,
		},
		runner: r,
		Port:   httpPort,
	}
	for _, opt := range opts {
		opt(s)
	}

	router := mux.NewRouter()
	router.HandleFunc("/processor", s.HandleGetProcessor).Methods(http.MethodGet)
	router.HandleFunc("/properties/{name}", s.HandleSetProperty).Methods(http.MethodPut)
	router.HandleFunc("/properties/{name}", s.HandleRemoveProperty).Methods(http.MethodDelete)

	router.HandleFunc("/flowfiles", s.HandleEnqueue).Methods(http.MethodPost)
	router.HandleFunc("/trigger", s.HandleTrigger).Methods(http.MethodPost)
	router.HandleFunc("/relationships/{name}", s.HandleGetRelationship).Methods(http.MethodGet)
	router.HandleFunc("/relationships/{name}", s.HandleDrainRelationship).Methods(http.MethodDelete)
	router.HandleFunc("/script", s.HandleSaveScript).Methods(http.MethodPut)

	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.Shutdown(ctx)
	if err != nil {
		logger.Error("error shutting down http server", zap.Error(err))
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI, zap.String("method", r.Method))
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondOK(w http.ResponseWriter, message map[string]any) {
	respondWithJSON(w, http.StatusOK, message)
}

func respondOKWithoutBody(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
