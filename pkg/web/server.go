package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/webbuild/pkg/logging"
	"github.com/ritzau/webbuild/pkg/pipeline"
	"github.com/ritzau/webbuild/pkg/pubsub"
)

// Build states reported by /api/status
const (
	StateIdle      = "idle"
	StateBuilding  = "building"
	StateSucceeded = "succeeded"
	StateFailed    = "failed"
)

// Status is the JSON body of /api/status
type Status struct {
	State    string           `json:"state"`
	Reason   string           `json:"reason,omitempty"`
	Error    string           `json:"error,omitempty"`
	Result   *pipeline.Result `json:"result,omitempty"`
	Outputs  []string         `json:"outputs,omitempty"`
	Builds   int              `json:"builds"`
	Finished time.Time        `json:"finished,omitzero"`
}

// Server exposes the watch-mode build status over HTTP.
// It implements pipeline.Observer so the orchestrator can report phases to it.
type Server struct {
	router    *mux.Router
	publisher *pubsub.SSEPublisher

	mu     sync.RWMutex
	status Status
}

// NewServer creates a status server; outputs lists the declared build artifacts
func NewServer(outputs []string) *Server {
	publisher := pubsub.NewSSEPublisher()

	// New subscribers only need the current build state
	publisher.ConfigureTopic(pubsub.TopicBuildStatus, pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false,
	})
	// ...but every phase event of the running build; BuildStarted resets it
	publisher.ConfigureTopic(pubsub.TopicPhase, pubsub.TopicConfig{
		BufferSize: 12,
		ReplayAll:  true,
	})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: publisher,
		status:    Status{State: StateIdle, Outputs: outputs},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(requestLog)
	s.router.HandleFunc("/api/status", s.handleStatus).Methods("GET")
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// BuildStarted records and publishes the start of a build
func (s *Server) BuildStarted(reason string) {
	s.mu.Lock()
	s.status.State = StateBuilding
	s.status.Reason = reason
	s.status.Error = ""
	s.mu.Unlock()

	s.publisher.ClearHistory(pubsub.TopicPhase)

	s.publish(pubsub.TopicBuildStatus, StateBuilding, pubsub.BuildStatus{
		State:   StateBuilding,
		Reason:  reason,
		Message: "Build started",
		Time:    time.Now(),
	})
}

// BuildFinished records and publishes the outcome of a build
func (s *Server) BuildFinished(result *pipeline.Result, err error) {
	state, message := StateSucceeded, "Build completed successfully"
	if err != nil {
		state, message = StateFailed, err.Error()
	}

	s.mu.Lock()
	s.status.State = state
	s.status.Result = result
	s.status.Builds++
	s.status.Finished = time.Now()
	if err != nil {
		s.status.Error = err.Error()
	}
	reason := s.status.Reason
	s.mu.Unlock()

	s.publish(pubsub.TopicBuildStatus, state, pubsub.BuildStatus{
		State:   state,
		Reason:  reason,
		Message: message,
		Time:    time.Now(),
	})
}

// Status returns a snapshot of the current build status
func (s *Server) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Server) OnPhaseStart(name string, index, total int) {
	s.publish(pubsub.TopicPhase, "started", pubsub.PhaseStatus{
		Name:  name,
		Step:  index + 1,
		Total: total,
	})
}

func (s *Server) OnPhaseComplete(result pipeline.PhaseResult, index, total int) {
	s.publish(pubsub.TopicPhase, string(result.Outcome), pubsub.PhaseStatus{
		Name:       result.Name,
		Outcome:    string(result.Outcome),
		Step:       index + 1,
		Total:      total,
		DurationMs: result.Duration.Milliseconds(),
		Error:      result.Error,
	})
}

func (s *Server) OnBuildComplete(result *pipeline.Result) {
	s.mu.Lock()
	s.status.Result = result
	s.mu.Unlock()
}

func (s *Server) publish(topic, eventType string, data interface{}) {
	if err := s.publisher.Publish(topic, eventType, data); err != nil && !errors.Is(err, pubsub.ErrClosed) {
		logging.Warn("failed to publish event", "topic", topic, "error", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Status()); err != nil {
		logging.ErrorContext(r.Context(), "failed to encode status", "error", err)
	}
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if topic != pubsub.TopicBuildStatus && topic != pubsub.TopicPhase {
		http.Error(w, fmt.Sprintf("unknown topic %q", topic), http.StatusNotFound)
		return
	}

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Initial comment establishes the stream before the first event
	fmt.Fprintf(w, ": connected\n\n")
	flush(w)

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.DebugContext(r.Context(), "SSE client went away", "error", err)
				return
			}
			flush(w)
		}
	}
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Start serves on port until ctx is canceled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logging.Info("status server listening", "url", fmt.Sprintf("http://localhost:%d", port))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		s.publisher.Close()
		return fmt.Errorf("status server: %w", err)
	case <-ctx.Done():
	}

	// Close the publisher first so open SSE streams end
	s.publisher.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status server shutdown: %w", err)
	}
	return nil
}
