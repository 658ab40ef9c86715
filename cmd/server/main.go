package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	lexviaui "github.com/lexvia/lexvia-web-ui"
	"github.com/lexvia/lexvia-web-ui/internal/handlers"
	"github.com/lexvia/lexvia-web-ui/internal/services"
	"gopkg.in/yaml.v3"
)

func main() {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatal(fmt.Errorf("error getting user config dir: %w", err))
	}
	cfgPath := filepath.Join(cfgDir, "/lexvia")
	if err := os.MkdirAll(cfgPath, 0755); err != nil {
		log.Fatal(fmt.Errorf("error creating config directory: %w", err))
	}

	cfgFilePath := filepath.Join(cfgPath, "config.yaml")
	cfgFile, err := os.Open(cfgFilePath)
	if err != nil {
		log.Fatal(fmt.Errorf("error opening config file: %w", err))
	}
	defer cfgFile.Close()

	cfg := config{}
	if err := yaml.NewDecoder(cfgFile).Decode(&cfg); err != nil {
		log.Fatal(fmt.Errorf("error decoding config file: %w", err))
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.slogLevel(),
	}))

	api := services.NewClient(cfg.BackendURL, cfg.RequestTimeout, logger)

	dbPath := filepath.Join(cfgPath, "store.db")
	boltDB, err := services.NewBoltDB(dbPath)
	if err != nil {
		log.Fatal(fmt.Errorf("error opening local store: %w", err))
	}
	defer boltDB.Close()

	m, err := handlers.NewMain(api, boltDB, api, logger)
	if err != nil {
		log.Fatal(fmt.Errorf("error initializing handlers: %w", err))
	}

	// Serve static files
	staticFS, err := fs.Sub(lexviaui.StaticFS, "static")
	if err != nil {
		panic(err)
	}
	fileServer := http.FileServer(http.FS(staticFS))

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", fileServer))
	mux.HandleFunc("/login", m.HandleLogin)
	mux.HandleFunc("/logout", m.HandleLogout)
	mux.HandleFunc("/{$}", m.RequireAuth(m.HandleHome))
	mux.HandleFunc("/casos", m.RequireAuth(m.HandleCases))
	mux.HandleFunc("/casos/{caseID}", m.RequireAuth(m.HandleCaseDetail))
	mux.HandleFunc("/casos/{caseID}/chats", m.RequireAuth(m.HandleCaseChatSessions))
	mux.HandleFunc("/casos/{caseID}/chats/{sessionID}", m.RequireAuth(m.HandleChatPage))
	mux.HandleFunc("/chat", m.RequireAuth(m.HandleGeneralChatPage))
	mux.HandleFunc("/chats/send", m.RequireAuth(m.HandleSendMessage))
	mux.HandleFunc("/biblioteca", m.RequireAuth(m.HandleLibrary))
	mux.HandleFunc("/biblioteca/{documentID}", m.RequireAuth(m.HandleDocument))
	mux.HandleFunc("/prompts", m.RequireAuth(m.HandlePrompts))
	mux.HandleFunc("/prompts/{promptID}", m.RequireAuth(m.HandlePromptDetail))
	mux.HandleFunc("/usuarios", m.RequireAuth(m.HandleUsers))
	mux.HandleFunc("/usuarios/{userID}", m.RequireAuth(m.HandleUserUpdate))
	mux.HandleFunc("/buscar", m.RequireAuth(m.HandleSearch))
	mux.HandleFunc("/auditoria", m.RequireAuth(m.HandleAudit))
	mux.HandleFunc("/auditoria/{caseNumber}", m.RequireAuth(m.HandleAuditSummary))
	mux.HandleFunc("/sse", m.RequireAuth(m.HandleSSE))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv.RegisterOnShutdown(func() {
		if err := m.Shutdown(context.Background()); err != nil {
			log.Printf("Failed to shutdown sse server: %v", err)
		}
	})

	// Channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	go func() {
		log.Println("Server starting on :" + cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt/terminate signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Blocking select waiting for either interrupt or server error
	select {
	case err := <-serverErrors:
		log.Printf("Server error: %v", err)

	case sig := <-shutdown:
		log.Printf("Start shutdown, signal: %v", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Graceful shutdown failed: %v", err)
			if err := srv.Close(); err != nil {
				log.Printf("Forcing server close: %v", err)
			}
		}
	}
}
