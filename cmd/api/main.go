package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kittenspace/meowchat/backend/internal/config"
	"github.com/kittenspace/meowchat/backend/internal/handler"
	"github.com/kittenspace/meowchat/backend/internal/handler/ws"
	"github.com/kittenspace/meowchat/backend/internal/model/persona"
	"github.com/kittenspace/meowchat/backend/internal/service/ai"
	chatservice "github.com/kittenspace/meowchat/backend/internal/service/chat"
	"github.com/kittenspace/meowchat/backend/internal/service/matchmaking"
	"github.com/kittenspace/meowchat/backend/internal/service/moderation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	personaStore := persona.NewMemoryStore(persona.Seed())
	filter := moderation.NewFilter(moderation.DefaultWords)

	// Pick the persona responder: LLM-backed when credentials are
	// configured, canned lines otherwise.
	var responder chatservice.Responder
	if cfg.AI.Enabled() {
		llm, err := ai.NewService(ctx, personaStore, cfg.AI, cfg.Chat.HistoryLimit)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing with canned persona responses only")
			responder = ai.NewCanned(personaStore)
		} else {
			log.Println("AI service initialized successfully")
			responder = llm
		}
	} else {
		log.Println("ark credentials not configured, using canned persona responses")
		responder = ai.NewCanned(personaStore)
	}

	matchService := matchmaking.NewService(personaStore, cfg.Chat.AIFallbackWait)
	hub := ws.NewHub(matchService, cfg.Chat.MatchRetryInterval)
	chatService := chatservice.NewService(cfg.Chat, hub, responder, matchService, personaStore, filter)
	hub.SetChatService(chatService)

	router := handler.NewRouter(personaStore, ws.NewHandler(hub))

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("meowchat backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
