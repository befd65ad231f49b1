// cmd/discord/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lunabyte/luna/internal/command"

	"github.com/lunabyte/luna/internal/config"
	"github.com/lunabyte/luna/internal/discord"
	"github.com/lunabyte/luna/internal/storage"
	v "github.com/lunabyte/luna/internal/version"
)

const defaultPersona = `You are Luna, a sharp-tongued companion living on a Discord server.
You are playful, a little unhinged, quick with comebacks, and you keep answers short.
You remember people and treat them according to your relationship with them.
You never break character and never mention being an AI.`

func main() {
	log.Printf("[INFO] Starting %v bot...", v.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.New()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	bot := discord.NewBot(cfg, store, loadPersona(cfg.PersonaPath))

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...\n", s)
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Println("[ERR] Discord bot error:", err)
		}
		cancel()
	case <-ctx.Done():
	}

	log.Println("[INFO] Discord bot exited cleanly")
}

// loadPersona reads the persona file, falling back to the built-in one.
func loadPersona(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[INFO] No persona file at %s, using built-in persona", path)
		return defaultPersona
	}
	return string(data)
}
