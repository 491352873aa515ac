package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sm64js/realtime-server/accounts"
	"github.com/sm64js/realtime-server/config"
	"github.com/sm64js/realtime-server/gameloop"
	"github.com/sm64js/realtime-server/gameserver"
	"github.com/sm64js/realtime-server/moderation"
	"github.com/sm64js/realtime-server/room"
	"github.com/sm64js/realtime-server/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (defaults baked in if omitted)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	log.Printf("Starting sm64js realtime server on %s:%d (store=%s)", cfg.BindAddress, cfg.Port, cfg.Store)

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("opening account store: %v", err)
	}

	rooms := room.LoadStaticRooms()

	var webhook gameserver.WebhookSink
	if cfg.Moderation.WebhookURL != "" {
		webhook = moderation.NewWebhook(cfg.Moderation.WebhookURL, cfg.Moderation.RequestTimeout)
	}

	gs := gameserver.New(rooms, store, webhook, cfg.Moderation.BaseURL)

	ctx, cancel := context.WithCancel(context.Background())
	go gs.Run(ctx)

	loop := gameloop.New(gs, cfg.Moderation.WebhookURL != "")
	go loop.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/", handleWebSocket(gs, store))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/api/", moderation.NewMux(gs, cfg.Moderation.AdminToken))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Server running at http://%s", srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed to start: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("shutting down (signal: %v)...", sig)

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	log.Println("server stopped")
}

func openStore(cfg *config.Config) (accounts.Store, error) {
	if cfg.Store != "postgres" {
		return accounts.NewMemoryStore(), nil
	}

	dsn := cfg.Database.DSN()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := accounts.RunMigrations(ctx, dsn); err != nil {
		return nil, fmt.Errorf("running account store migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}
	return accounts.NewPostgresStore(pool), nil
}

// handleWebSocket upgrades to a Session per spec.md §6: the upgrade
// succeeds only if the session cookie resolves in the Account Store, the
// account isn't banned, and a client IP can be determined.
func handleWebSocket(gs *gameserver.Server, store accounts.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		cookie := extractSessionCookie(r)
		identity, err := store.AuthFromCookie(ctx, cookie)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		banned, err := store.IsBanned(ctx, identity.AccountID)
		if err != nil {
			log.Printf("main: ban check failed for account %d: %v", identity.AccountID, err)
			http.Error(w, "account store unavailable", http.StatusBadGateway)
			return
		}
		if banned {
			http.Error(w, "banned", http.StatusForbidden)
			return
		}

		ip := clientIP(r)
		if ip == "" {
			http.Error(w, "could not determine client ip", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("main: websocket upgrade failed: %v", err)
			return
		}

		sess := session.New(conn, identity.AccountID, ip)
		gs.Connect(sess, ip, identity)
		sess.Serve(ctx, gs)
	}
}

func extractSessionCookie(r *http.Request) string {
	c, err := r.Cookie("session")
	if err != nil {
		return ""
	}
	return c.Value
}

// clientIP resolves the caller's address per spec.md §6: X-Real-IP, then
// the first hop of X-Forwarded-For, then the TCP peer address.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
