// Package server exposes the tamper classifier over HTTP: a JSON scoring
// endpoint plus a minimal browser upload page.
package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/tsawler/tampernet/model"
	"github.com/tsawler/tampernet/transform"
)

// DefaultMaxUpload caps accepted image uploads at 10 MB.
const DefaultMaxUpload = 10 << 20

// Server routes classification requests to a loaded model.
type Server struct {
	classifier *model.Classifier
	tf         transform.Transform
	logger     *log.Logger
	maxUpload  int64
}

// New creates a server around a loaded classifier.
func New(classifier *model.Classifier, logger *log.Logger) *Server {
	return &Server{
		classifier: classifier,
		tf:         transform.NewEval(model.InputSize),
		logger:     logger,
		maxUpload:  DefaultMaxUpload,
	}
}

// Routes builds the handler tree.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/predict", s.handlePredict)
	return s.enableCORS(mux)
}

// enableCORS allows browser clients on other origins to call the API.
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("failed to write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
