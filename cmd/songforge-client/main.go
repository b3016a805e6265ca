package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"songforge/internal/client"
	"songforge/internal/config"
	"songforge/internal/logger"
	"songforge/internal/models"
	"songforge/internal/sync"
)

// Interactive order watcher. Logs in, starts the synchronizer against the
// live API, and prints the view state whenever it changes.
func main() {
	_ = godotenv.Load()

	log := logger.NewLogger()
	defer log.Close()

	baseURL := config.GetEnv("SONGFORGE_URL", "http://localhost:8080")
	email := config.GetEnv("SONGFORGE_EMAIL", "")
	password := config.GetEnv("SONGFORGE_PASSWORD", "")
	if email == "" || password == "" {
		log.Fatal("CLIENT", "SONGFORGE_EMAIL and SONGFORGE_PASSWORD must be set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api, err := client.Login(ctx, baseURL, email, password, log)
	if err != nil {
		log.Fatal("CLIENT", "Login failed: "+err.Error())
	}
	log.Info("CLIENT", "Logged in as "+email)

	cfg := config.Load()
	opts := sync.DefaultOptions()
	opts.PollInterval = cfg.Sync.PollInterval
	opts.WatchdogInterval = cfg.Sync.WatchdogInterval
	opts.SubscribeGrace = cfg.Sync.SubscribeGrace

	synchronizer := sync.New(api, api, client.TerminalNotifier{Logger: log}, log, email, opts)
	synchronizer.Start(ctx)
	defer synchronizer.Stop()

	go watchView(ctx, synchronizer, log)

	// Optional scripted submission: set SONGFORGE_SUBMIT_HONOREE and
	// SONGFORGE_SUBMIT_STORY to place an order right after startup.
	if honoree := config.GetEnv("SONGFORGE_SUBMIT_HONOREE", ""); honoree != "" {
		go submitOrder(ctx, api, synchronizer, honoree, log)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("CLIENT", "Shutting down")
}

func submitOrder(ctx context.Context, api *client.Client, s *sync.Synchronizer, honoree string, log *logger.Logger) {
	order, err := api.SubmitOrder(ctx, models.OrderRequest{
		Honoree:  honoree,
		Category: config.GetEnv("SONGFORGE_SUBMIT_CATEGORY", "other"),
		Story:    config.GetEnv("SONGFORGE_SUBMIT_STORY", ""),
	})
	if err != nil {
		log.Error("CLIENT", "Submission failed: "+err.Error())
		return
	}

	view := s.Snapshot()
	s.OnSubmitted(append([]models.Order{*order}, view.Orders...))

	// Give the refetch sequence time to converge with backend truth.
	select {
	case <-time.After(4 * time.Second):
	case <-ctx.Done():
		return
	}
	converged := s.Snapshot()
	log.Info("CLIENT", fmt.Sprintf("Converged at progress=%d with %d order(s)", converged.Progress, len(converged.Orders)))
}

func watchView(ctx context.Context, s *sync.Synchronizer, log *logger.Logger) {
	var last sync.ViewState
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			view := s.Snapshot()
			if viewChanged(last, view) {
				log.Info("VIEW", fmt.Sprintf("orders=%d progress=%d step=%q form=%t loading=%t",
					len(view.Orders), view.Progress, view.Step, view.FormVisible, view.Loading))
				last = view
			}
		case <-ctx.Done():
			return
		}
	}
}

func viewChanged(a, b sync.ViewState) bool {
	return len(a.Orders) != len(b.Orders) ||
		a.Progress != b.Progress ||
		a.Step != b.Step ||
		a.HasOrders != b.HasOrders ||
		a.FormVisible != b.FormVisible ||
		a.Loading != b.Loading
}
