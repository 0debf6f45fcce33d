package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/auth"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/store"
)

// DefaultPodiumLimit is the number of classified drivers listed per race
// by the detailed championship route.
const DefaultPodiumLimit = 3

type tokenRequest struct {
	Password string `json:"password" validate:"required"`
	Duration *int   `json:"duration" validate:"omitempty,min=1,max=86400"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "F1 API is running"})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.opts.Password)) != 1 {
		s.writeError(w, http.StatusUnauthorized, "Invalid password")
		return
	}
	d := s.opts.DefaultTokenDuration
	if req.Duration != nil {
		d = time.Duration(*req.Duration) * time.Second
	}
	if d > auth.MaxDuration {
		d = auth.MaxDuration
	}
	token, err := s.tokens.Issue(d)
	if err != nil {
		s.internalError(w, r, "issue token", err)
		return
	}
	s.writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) racesByYear(w http.ResponseWriter, r *http.Request) {
	year, ok := s.pathYear(w, r)
	if !ok {
		return
	}
	races, err := s.reader.RacesByYear(r.Context(), year, r.URL.Query().Get("circuit"))
	if err != nil {
		s.internalError(w, r, "races by year", err)
		return
	}
	writeList(s, w, races, fmt.Sprintf("No races found for year %d", year))
}

func (s *Server) driverStats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	year, ok := s.queryInt(w, r, "year")
	if !ok {
		return
	}
	seasons, err := s.reader.DriverSeasons(r.Context(), name, year)
	if err != nil {
		s.internalError(w, r, "driver seasons", err)
		return
	}
	writeList(s, w, seasons, fmt.Sprintf("No statistics found for driver %s", name))
}

func (s *Server) circuitPerformance(w http.ResponseWriter, r *http.Request) {
	if s.perf == nil {
		s.writeError(w, http.StatusServiceUnavailable, "document store is not configured")
		return
	}
	circuit := chi.URLParam(r, "circuit")
	year, ok := s.queryInt(w, r, "year")
	if !ok {
		return
	}
	perf, err := s.perf.PerformanceByCircuit(r.Context(), circuit, year)
	if err != nil {
		s.internalError(w, r, "circuit performance", err)
		return
	}
	writeList(s, w, perf, fmt.Sprintf("No performance data found for circuit %s", circuit))
}

func (s *Server) weatherImpact(w http.ResponseWriter, r *http.Request) {
	if s.perf == nil {
		s.writeError(w, http.StatusServiceUnavailable, "document store is not configured")
		return
	}
	year, ok := s.queryInt(w, r, "year")
	if !ok {
		return
	}
	conditions, err := s.perf.WeatherImpact(r.Context(), year)
	if err != nil {
		s.internalError(w, r, "weather impact", err)
		return
	}
	msg := "No weather data found"
	if year != nil {
		msg = fmt.Sprintf("No weather data found for year %d", *year)
	}
	writeList(s, w, conditions, msg)
}

func (s *Server) championshipRaces(w http.ResponseWriter, r *http.Request) {
	year, ok := s.pathYear(w, r)
	if !ok {
		return
	}
	races, err := s.reader.ChampionshipRaces(r.Context(), year)
	if err != nil {
		s.internalError(w, r, "championship races", err)
		return
	}
	writeList(s, w, races, fmt.Sprintf("No races found for year %d", year))
}

func (s *Server) detailedChampionship(w http.ResponseWriter, r *http.Request) {
	year, ok := s.pathYear(w, r)
	if !ok {
		return
	}
	limit := DefaultPodiumLimit
	if v, ok := s.queryInt(w, r, "limit"); !ok {
		return
	} else if v != nil {
		if *v < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be >= 1")
			return
		}
		limit = *v
	}

	races, err := s.reader.ChampionshipRaces(r.Context(), year)
	if err != nil {
		s.internalError(w, r, "championship races", err)
		return
	}
	for i := range races {
		podium, err := s.reader.Podium(r.Context(), races[i].ID, limit)
		if err != nil {
			s.internalError(w, r, "podium", err)
			return
		}
		if podium == nil {
			podium = []store.PodiumEntry{}
		}
		races[i].Podium = podium
	}
	writeList(s, w, races, fmt.Sprintf("No races found for year %d", year))
}

// writeList answers an empty result with emptyMessage when the server is
// configured to, and with [] otherwise.
func writeList[T any](s *Server, w http.ResponseWriter, items []T, emptyMessage string) {
	if len(items) == 0 {
		if s.opts.EmptyAsMessage {
			s.writeJSON(w, http.StatusOK, messageResponse{Message: emptyMessage})
			return
		}
		items = []T{}
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) pathYear(w http.ResponseWriter, r *http.Request) (int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "year must be an integer")
		return 0, false
	}
	return year, true
}

func (s *Server) queryInt(w http.ResponseWriter, r *http.Request, name string) (*int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, name+" must be an integer")
		return nil, false
	}
	return &v, true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.Error("request failed",
		zap.String("request_id", RequestID(r.Context())),
		zap.String("op", op),
		zap.Error(err),
	)
	s.writeError(w, http.StatusInternalServerError, op+" failed")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"detail": msg})
}
