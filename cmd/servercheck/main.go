package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/parkerwhite/voicedash/go-harness/internal/config"
	"github.com/parkerwhite/voicedash/go-harness/internal/gateway"
)

// #region main
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	client := gateway.NewClient(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	health := client.CheckServers(ctx, cfg.FrontendURL)
	fmt.Printf("frontend %s: %s\n", cfg.FrontendURL, upDown(health.Frontend))
	fmt.Printf("backend  %s: %s\n", cfg.APIBaseURL, upDown(health.Backend))

	if rag, err := client.RAGHealth(ctx); err != nil {
		fmt.Printf("rag: unavailable (%v)\n", err)
	} else {
		fmt.Printf("rag: %v\n", rag["status"])
	}

	if !health.Backend {
		os.Exit(1)
	}
}

func upDown(ok bool) string {
	if ok {
		return "up"
	}
	return "down"
}

// #endregion main
