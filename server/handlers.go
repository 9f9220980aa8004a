package server

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"github.com/tsawler/tampernet/model"
)

// PredictResponse is the scoring result returned to clients. Confidence is
// the sigmoid probability of tampering.
type PredictResponse struct {
	Label      string  `json:"label"`
	Tampered   bool    `json:"tampered"`
	Confidence float64 `json:"confidence"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexPage)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "use POST with a multipart image field")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to parse upload")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing image field")
		return
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "file is not a decodable image")
		return
	}

	sample, err := s.tf.Apply(img)
	if err != nil {
		s.logger.Printf("transform failed for %s: %v", header.Filename, err)
		s.writeError(w, http.StatusInternalServerError, "failed to prepare image")
		return
	}

	label, prob, err := s.classifier.Predict(sample)
	if err != nil {
		s.logger.Printf("prediction failed for %s: %v", header.Filename, err)
		s.writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}

	response := PredictResponse{
		Tampered:   label == model.LabelTampered,
		Confidence: prob,
	}
	if response.Tampered {
		response.Label = "tampered"
	} else {
		response.Label = "real"
	}

	s.logger.Printf("scored %s: %s (%.4f)", header.Filename, response.Label, prob)
	s.writeJSON(w, http.StatusOK, response)
}
