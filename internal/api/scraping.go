package api

import (
	"net/http"

	"github.com/mesh-intelligence/salesdesk/internal/scraping"
	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

type startJobRequest struct {
	URL string `json:"url"`
}

type startJobResponse struct {
	JobID   string            `json:"jobId"`
	Job     types.ScrapingJob `json:"job"`
	Message string            `json:"message"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	var req startJobRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	job, err := s.Scraping.StartJob(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, startJobResponse{
		JobID:   job.ID,
		Job:     job,
		Message: "Scraping job started successfully",
	})
}

func (s *Server) handleAllJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.Scraping.AllJobs()
	s.respond(w, r, nonNil(jobs), err)
}

func (s *Server) handleRecentJobs(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", scraping.DefaultRecentLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jobs, err := s.Scraping.RecentJobs(limit)
	s.respond(w, r, nonNil(jobs), err)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.Scraping.GetJob(r.PathValue("id"))
	s.respond(w, r, job, err)
}

func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.Scraping.JobEvents(r.PathValue("id"))
	s.respond(w, r, nonNil(events), err)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	ok, err := s.Scraping.CancelJob(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		writeMessage(w, http.StatusConflict, "failed to cancel job or job already completed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Job cancelled successfully"})
}

func (s *Server) handleScrapingStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Scraping.Stats()
	s.respond(w, r, stats, err)
}

func (s *Server) handleBrowserEvents(w http.ResponseWriter, r *http.Request) {
	var items []types.ExtractedEvent
	if err := decodeBody(w, r, &items); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.Intake.Save(items)
	s.respond(w, r, res, err)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.Auth.Login(req.Email, req.Password)
	if err != nil {
		s.logger.Info("login rejected", "email", req.Email)
	}
	s.respond(w, r, user, err)
}
