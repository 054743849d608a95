package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cbodonnell/codeword/pkg/api/middleware"
	"github.com/cbodonnell/codeword/pkg/bridge"
	gametypes "github.com/cbodonnell/codeword/pkg/game/types"
	"github.com/cbodonnell/codeword/pkg/log"
	"github.com/cbodonnell/codeword/pkg/metrics"
	"github.com/cbodonnell/codeword/pkg/repositories"
	"github.com/cbodonnell/codeword/pkg/sessions"
	"github.com/gorilla/mux"
)

// LoginRequestBody is the request body for the login endpoint
type LoginRequestBody struct {
	Password string `json:"password"`
}

func HandleLogin(auth *middleware.Auth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestPayload := &LoginRequestBody{}
		if err := json.NewDecoder(r.Body).Decode(requestPayload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if !auth.VerifyPassword(requestPayload.Password) {
			http.Error(w, "Invalid password", http.StatusUnauthorized)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookieName,
			Value:    auth.Token(),
			Path:     "/",
			MaxAge:   60 * 60 * 24,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, map[string]bool{"success": true})
	}
}

func HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, map[string]bool{"success": true})
	}
}

type playerSummary struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Team gametypes.Team `json:"team"`
	Role gametypes.Role `json:"role"`
}

type gameSummary struct {
	Code          string          `json:"code"`
	Players       []playerSummary `json:"players"`
	Status        gametypes.Phase `json:"status"`
	CurrentTeam   gametypes.Team  `json:"currentTeam"`
	CardsRevealed int             `json:"cardsRevealed"`
	TotalCards    int             `json:"totalCards"`
	CreatedAt     string          `json:"createdAt"`
}

func summarize(match *gametypes.Match) gameSummary {
	players := make([]playerSummary, 0, len(match.Players))
	for _, p := range match.Players {
		players = append(players, playerSummary{
			ID:   p.ID,
			Name: p.Name,
			Team: p.Team,
			Role: p.Role,
		})
	}
	return gameSummary{
		Code:          match.Code,
		Players:       players,
		Status:        match.Phase,
		CurrentTeam:   match.CurrentTeam,
		CardsRevealed: match.RevealedCount(),
		TotalCards:    len(match.Cards),
		CreatedAt:     time.UnixMilli(match.CreatedAt).UTC().Format(time.RFC3339),
	}
}

func HandleListGames(sessionManager *sessions.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches := sessionManager.GetAllMatches()
		games := make([]gameSummary, 0, len(matches))
		for _, match := range matches {
			games = append(games, summarize(match))
		}
		writeJSON(w, map[string]interface{}{"games": games})
	}
}

func HandleGetGame(sessionManager *sessions.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["code"]
		match := sessionManager.GetMatch(code)
		if match == nil {
			http.Error(w, "Game not found", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]interface{}{"game": match})
	}
}

func HandleGameMetrics(collector *metrics.Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["code"]
		writeJSON(w, map[string]interface{}{
			"samples":   collector.Window(code),
			"aggregate": collector.Aggregate(code),
		})
	}
}

func HandleListArchive(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				http.Error(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		ended, err := repository.ListEndedMatches(r.Context(), limit)
		if err != nil {
			log.Error("failed to list ended matches: %v", err)
			http.Error(w, "Failed to list ended matches", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]interface{}{"games": ended})
	}
}

func HandleBridgeStatus(poller *bridge.Poller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, poller.Status(r.Context()))
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
