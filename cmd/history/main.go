package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/parkerwhite/voicedash/go-harness/internal/config"
	"github.com/parkerwhite/voicedash/go-harness/internal/history"
)

// #region main
func main() {
	limit := flag.Int("n", 10, "number of records to show")
	evals := flag.Bool("evals", false, "show individual evaluations instead of cycles")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	store, err := history.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open history store: %v", err)
	}
	defer store.Close()

	if *evals {
		showEvaluations(store, *limit)
		return
	}
	showCycles(store, *limit)
}

func showCycles(store *history.Store, limit int) {
	cycles, err := store.ListCycles(limit)
	if err != nil {
		log.Fatalf("list cycles: %v", err)
	}
	if len(cycles) == 0 {
		fmt.Println("no cycles recorded")
		return
	}
	for _, c := range cycles {
		fmt.Printf("%s  %s\n", c.StartedAt.Format("2006-01-02 15:04:05"), c.CycleID)
		fmt.Printf("  baseline %.3f → after %.3f  delta %+.3f (%s)\n",
			c.BaselineScore, c.AfterScore, c.ScoreDelta, c.RelativeDelta)
		fmt.Printf("  feedback %d/%d  training %s (%d pairs)\n",
			c.FeedbackSubmitted, c.FeedbackAttempted, c.Training, c.PairsReady)
	}
}

func showEvaluations(store *history.Store, limit int) {
	records, err := store.RecentEvaluations(limit)
	if err != nil {
		log.Fatalf("list evaluations: %v", err)
	}
	if len(records) == 0 {
		fmt.Println("no evaluations recorded")
		return
	}
	for _, r := range records {
		fmt.Printf("%s  [%s] %s\n", r.CreatedAt.Format("15:04:05"), r.Phase, r.Rationale)
	}
}

// #endregion main
