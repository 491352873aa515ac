package moderation

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sm64js/realtime-server/gameserver"
)

// NewMux returns the moderation HTTP surface: GetPlayers, KickByAccountId,
// KickByIp, SendPlayerList, each gated behind a static bearer token. The
// HTTP layer itself (routing, framing) is explicitly out of scope for the
// realtime core per spec.md §6 ("the HTTP layer itself is out of scope");
// this is the thin operator-facing shim that exercises it, grounded on the
// teacher's stdlib net/http.HandleFunc style (server/websocket.go's
// HandleTeamStats/HandleWebSocket, main.go's mux wiring).
func NewMux(server *gameserver.Server, adminToken string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/players", requireToken(adminToken, handleGetPlayers(server)))
	mux.HandleFunc("/api/kick/account", requireToken(adminToken, handleKickByAccountId(server)))
	mux.HandleFunc("/api/kick/ip", requireToken(adminToken, handleKickByIp(server)))
	mux.HandleFunc("/api/player-list", requireToken(adminToken, handleSendPlayerList(server)))
	return mux
}

func requireToken(token string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token == "" {
			http.Error(w, "moderation surface disabled", http.StatusServiceUnavailable)
			return
		}
		got := r.Header.Get("Authorization")
		if subtle.ConstantTimeCompare([]byte(got), []byte("Bearer "+token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func handleGetPlayers(server *gameserver.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(server.GetPlayers())
	}
}

func handleKickByAccountId(server *gameserver.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := strconv.ParseInt(r.URL.Query().Get("account_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid account_id", http.StatusBadRequest)
			return
		}
		found := server.KickByAccountId(accountID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"kicked": found})
	}
}

func handleKickByIp(server *gameserver.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := r.URL.Query().Get("ip")
		if ip == "" {
			http.Error(w, "missing ip", http.StatusBadRequest)
			return
		}
		count := server.KickByIp(ip)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"kicked": count})
	}
}

func handleSendPlayerList(server *gameserver.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := server.SendPlayerList(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
