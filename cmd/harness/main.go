package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/parkerwhite/voicedash/go-harness/internal/config"
	"github.com/parkerwhite/voicedash/go-harness/internal/evaluator"
	"github.com/parkerwhite/voicedash/go-harness/internal/gateway"
	"github.com/parkerwhite/voicedash/go-harness/internal/history"
	"github.com/parkerwhite/voicedash/go-harness/internal/lifecycle"
	"github.com/parkerwhite/voicedash/go-harness/internal/scenario"
)

// #region main
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	store, err := history.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open history store: %v", err)
	}
	defer store.Close()

	client := gateway.NewClient(cfg)
	eval := evaluator.NewEvaluator(cfg)
	exec := scenario.NewGatewayExecutor(client, nil)
	runner := lifecycle.NewRunner(client, eval, exec, scenario.DefaultSuite(), cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Training-cycle harness ready.\n  API: %s | Frontend: %s | DB: %s\n",
		cfg.APIBaseURL, cfg.FrontendURL, cfg.DBPath)

	result, err := runner.Run(ctx)
	if err != nil {
		log.Fatalf("cycle failed: %v", err)
	}

	if err := store.SaveCycle(result); err != nil {
		log.Printf("failed to persist cycle: %v", err)
	}

	fmt.Println(result.Report())
}

// #endregion main
