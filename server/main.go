package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/kardianos/service"
	"golang.org/x/time/rate"

	"github.com/yijiawu/genstudio/internal/config"
	"github.com/yijiawu/genstudio/internal/logstore"
	"github.com/yijiawu/genstudio/server/internal/genai"
	"github.com/yijiawu/genstudio/server/internal/handlers"
	"github.com/yijiawu/genstudio/server/internal/middleware"
	"github.com/yijiawu/genstudio/server/internal/store"
	"github.com/yijiawu/genstudio/server/internal/templates"
)

func main() {
	svcCommand := flag.String("service", "", "Service control: install, start, stop, uninstall, status")
	flag.Parse()

	svcConfig := &service.Config{
		Name:        "genstudio-server",
		DisplayName: "genstudio Server",
		Description: "Serves the genstudio creative studio and usage dashboard",
	}

	prg := &program{}
	svc, err := service.New(prg, svcConfig)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	switch *svcCommand {
	case "":
		// Foreground or managed run; service.Run falls back to a plain
		// run loop when not started by a service manager.
		logger, err := svc.Logger(nil)
		if err == nil {
			prg.logger = logger
		}
		if err := svc.Run(); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case "install":
		if err := svc.Install(); err != nil {
			log.Fatalf("Failed to install service: %v", err)
		}
		log.Println("Service installed.")
	case "start":
		if err := svc.Start(); err != nil {
			log.Fatalf("Failed to start service: %v", err)
		}
		log.Println("Service started.")
	case "stop":
		if err := svc.Stop(); err != nil {
			log.Fatalf("Failed to stop service: %v", err)
		}
		log.Println("Service stopped.")
	case "uninstall":
		svc.Stop() // ignore error
		if err := svc.Uninstall(); err != nil {
			log.Fatalf("Failed to uninstall service: %v", err)
		}
		log.Println("Service uninstalled.")
	case "status":
		status, err := svc.Status()
		if err != nil {
			log.Printf("Service status: not installed or error (%v)", err)
			return
		}
		switch status {
		case service.StatusRunning:
			log.Println("Service status: running")
		case service.StatusStopped:
			log.Println("Service status: stopped")
		default:
			log.Println("Service status: unknown")
		}
	default:
		log.Fatalf("Unknown service command: %s", *svcCommand)
	}
}

// program adapts the HTTP server to service.Interface.
type program struct {
	httpServer *http.Server
	logger     service.Logger
}

func (p *program) Start(s service.Service) error {
	srv, err := buildServer()
	if err != nil {
		return err
	}
	p.httpServer = srv

	go func() {
		log.Printf("Starting genstudio-server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if p.logger != nil {
				p.logger.Errorf("Server failed: %v", err)
			}
			log.Fatalf("Server failed: %v", err)
		}
	}()
	return nil
}

func (p *program) Stop(s service.Service) error {
	if p.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return p.httpServer.Shutdown(ctx)
}

// buildServer wires configuration, stores, and routes into an http.Server.
func buildServer() (*http.Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	addr := cfg.Listen
	if addr == "" {
		addr = ":" + getEnv("PORT", "8080")
	}
	dataDir := getEnv("DATA_DIR", cfg.ResolvedDataDir())
	dbPath := getEnv("DB_PATH", cfg.DBPath)
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "genstudio.db")
	}
	apiKey := getEnv("GENAI_API_KEY", cfg.APIKey)
	baseURL := getEnv("GENAI_BASE_URL", cfg.APIBaseURL)

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, err
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		return nil, err
	}

	logs := logstore.New(dataDir)

	// Session manager holds only the stable visitor identifier; the long
	// lifetime is what keeps it stable for the browsing context.
	sessionMgr := scs.New()
	sessionMgr.Store = sqlite3store.New(db.DB)
	sessionMgr.Lifetime = 365 * 24 * time.Hour
	sessionMgr.Cookie.Secure = false // Set to true in production with HTTPS
	sessionMgr.Cookie.SameSite = http.SameSiteLaxMode

	tmpl, err := templates.Parse()
	if err != nil {
		return nil, err
	}

	gen := genai.NewClient(baseURL, apiKey)
	h := handlers.New(db, sessionMgr, tmpl, logs, gen, cfg.ResolvedCosts())

	// Generations are the only expensive upstream calls; limit them per IP.
	genLimiter := middleware.NewIPRateLimiter(rate.Limit(0.5), 3)

	mux := http.NewServeMux()
	mux.HandleFunc("/", h.Index)
	mux.HandleFunc("/partial/chat", h.PartialChat)
	mux.HandleFunc("/partial/history", h.PartialHistory)
	mux.HandleFunc("/partial/session", h.PartialSession)
	mux.HandleFunc("/partial/dashboard", h.PartialDashboard)
	mux.Handle("/api/generate", genLimiter.Limit(http.HandlerFunc(h.Generate)))
	mux.HandleFunc("/api/sessions", h.NewSession)
	mux.HandleFunc("/api/feedback", h.Feedback)
	mux.HandleFunc("/health", h.Health)

	handler := middleware.SecurityHeaders(sessionMgr.LoadAndSave(mux))

	log.Printf("Database: %s", dbPath)
	log.Printf("Usage log: %s", logs.Path())

	return &http.Server{
		Addr:    addr,
		Handler: handler,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
