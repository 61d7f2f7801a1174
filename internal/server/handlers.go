package server

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/docfold/vectorizer/internal/models"
	"go.uber.org/zap"
)

type searchRequest struct {
	Query    string `json:"query"`
	TopK     int    `json:"top_k,omitempty"`
	FileType string `json:"file_type,omitempty"`
}

type searchResponse struct {
	Query   string                `json:"query"`
	Results []models.SearchResult `json:"results"`
	Count   int                   `json:"count"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.config.Search.DefaultTopK
	}
	if topK > s.config.Search.MaxTopK {
		topK = s.config.Search.MaxTopK
	}
	var fileTypeFilter models.FileType
	if req.FileType != "" {
		ft, err := models.ParseFileType(req.FileType)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		fileTypeFilter = ft
	}
	s.logger.Debug("search request", zap.String("query", req.Query), zap.Int("top_k", topK))
	results, err := s.pipeline.Search(r.Context(), req.Query, topK, fileTypeFilter)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	s.respondJSON(w, http.StatusOK, searchResponse{
		Query:   req.Query,
		Results: results,
		Count:   len(results),
	})
}

type ingestRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleIngestDocument(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	if _, err := os.Stat(req.Path); err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Debug("ingest document request", zap.String("path", req.Path))
	result, err := s.pipeline.ProcessDocument(r.Context(), req.Path)
	if err != nil {
		s.logger.Error("ingest failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats := s.pipeline.Statistics(r.Context())
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
