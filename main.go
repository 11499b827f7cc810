package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"cinebot/api"
	"cinebot/bot"
	"cinebot/config"
	"cinebot/discord"
	"cinebot/handlers"
	"cinebot/services/lists"
	"cinebot/services/metadata"
)

func main() {
	portOverride := flag.Int("port", 0, "override ops API port from config")
	flag.Parse()

	fmt.Println("🎬 cinebot starting...")

	configPath := os.Getenv("CINEBOT_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}
	if settings.Discord.Token == "" {
		log.Fatal("discord token not configured (set discord.token or DISCORD_TOKEN)")
	}
	if settings.Metadata.TMDBAPIKey == "" {
		log.Fatal("TMDB API key not configured (set metadata.tmdbApiKey or TMDB_API_KEY)")
	}

	metadataService := metadata.NewService(settings.Metadata.TMDBAPIKey, settings.Metadata.Language, settings.Metadata.Region)
	listService, err := lists.NewService(settings.Storage.Directory)
	if err != nil {
		log.Fatalf("failed to initialize list store: %v", err)
	}

	shell, err := discord.NewShell(settings.Discord.Token)
	if err != nil {
		log.Fatalf("failed to create discord shell: %v", err)
	}

	botHandlers := bot.NewHandlers(metadataService, listService)
	router := bot.NewRouter(botHandlers.Commands(settings.Discord.CommandPrefix))
	engine := bot.NewEngine(router, shell)

	if err := shell.Listen(engine); err != nil {
		log.Fatalf("failed to connect to discord: %v", err)
	}

	// Ops API: liveness probe plus read-only list inspection
	httpRouter := api.NewRouter(handlers.NewHealthHandler(), handlers.NewListsHandler(listService))
	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      httpRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[api] listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[api] server stopped: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[api] shutdown: %v", err)
	}
	if err := shell.Close(); err != nil {
		log.Printf("[discord] close: %v", err)
	}
}
