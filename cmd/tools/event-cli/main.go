package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/annel0/fps-core/internal/auth"
	"github.com/annel0/fps-core/internal/config"
	"github.com/annel0/fps-core/internal/eventbus"
	"github.com/annel0/fps-core/internal/world/entity"
)

var eventTypes = []entity.EventType{
	entity.EventProjectileFired,
	entity.EventProjectileHit,
	entity.EventProjectileExpired,
	entity.EventActorDamaged,
	entity.EventActorDied,
	entity.EventPlayerDamaged,
}

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (default: $GAME_CONFIG)")
		natsURL    = flag.String("nats", "", "NATS URL (overrides eventbus.url)")
		command    = flag.String("cmd", "tail", "Command: tail, token, types")
		types      = flag.String("types", "", "Event types filter (comma-separated)")
		limit      = flag.Int("limit", 0, "Stop after N events (0 = until Ctrl+C)")
		operator   = flag.String("operator", "admin", "Token subject for -cmd token")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	switch *command {
	case "tail":
		url := cfg.EventBus.URL
		if *natsURL != "" {
			url = *natsURL
		}
		if err := tailEvents(url, cfg.EventBus, parseStringList(*types), *limit); err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}

	case "token":
		ttl := time.Duration(cfg.Auth.TokenTTL) * time.Hour
		token, err := auth.NewIssuer(cfg.Auth.Secret(), ttl).Generate(*operator, true)
		if err != nil {
			log.Fatalf("❌ Token failed: %v", err)
		}
		if cfg.Auth.Secret() == "" {
			fmt.Fprintln(os.Stderr, "⚠️  auth.jwt_secret не задан: токен подписан случайным ключом и сервером не примется")
		}
		fmt.Println(token)

	case "types":
		for _, t := range eventTypes {
			fmt.Printf("%-20s %s\n", t, eventbus.Subject(string(t)))
		}

	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, token, types")
		os.Exit(1)
	}
}

// tailEvents печатает новые события боя из JetStream
func tailEvents(url string, bc config.EventBusConfig, types []string, limit int) error {
	if url == "" {
		return fmt.Errorf("не задан адрес NATS (eventbus.url или -nats)")
	}

	bus, err := eventbus.NewJetStreamBus(url, bc.Stream, time.Duration(bc.Retention)*time.Hour)
	if err != nil {
		return err
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("🎬 Tailing %s (types: %v, limit: %d)\n", url, types, limit)

	var count atomic.Int64
	sub, err := bus.Subscribe(ctx, eventbus.Filter{Types: types}, func(_ context.Context, env *eventbus.Envelope) {
		var ev entity.Event
		if err := env.Decode(&ev); err != nil {
			fmt.Printf("⚠️  %v\n", err)
			return
		}
		fmt.Println(formatEvent(env, ev))

		if n := count.Add(1); limit > 0 && n >= int64(limit) {
			stop()
		}
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	fmt.Printf("📊 Received %d events\n", count.Load())
	return nil
}

func formatEvent(env *eventbus.Envelope, ev entity.Event) string {
	line := fmt.Sprintf("[%s] %-18s entity=%d", env.Timestamp.Format("15:04:05.000"), ev.Type, ev.EntityID)
	if ev.SourceID != 0 {
		line += fmt.Sprintf(" source=%d", ev.SourceID)
	}
	if ev.Amount != 0 {
		line += fmt.Sprintf(" amount=%d", ev.Amount)
	}
	if ev.Type == entity.EventActorDamaged || ev.Type == entity.EventPlayerDamaged {
		line += fmt.Sprintf(" health=%d", ev.Health)
	}
	return line + fmt.Sprintf(" pos=(%.2f, %.2f, %.2f)", ev.Position.X(), ev.Position.Y(), ev.Position.Z())
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
