package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mExArb/sharpshooter/internal/config"
	"github.com/mExArb/sharpshooter/internal/rates"
	"github.com/mExArb/sharpshooter/internal/scanner"
	"github.com/mExArb/sharpshooter/pkg/types"
)

var (
	configPath = flag.String("config", "", "Config file path (default configs/sharpshooter.yaml)")
	from       = flag.String("from", "BTC", "Currency converted from")
	to         = flag.String("to", "USD", "Currency converted to")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logrus.SetLevel(cfg.Level())

	clients, err := scanner.BuildClients(cfg)
	if err != nil {
		logrus.Fatalf("Failed to build exchange clients: %v", err)
	}

	synonyms, err := types.NewSynonymTable(cfg.Synonyms)
	if err != nil {
		logrus.Fatalf("Failed to build synonym table: %v", err)
	}

	table := rates.New(synonyms, rates.Options{
		Blacklist:  cfg.Blacklist,
		MaxRetries: cfg.Refresh.MaxRetries,
		Workers:    cfg.Refresh.Workers,
	})
	defer table.Close()

	ctx := context.Background()
	for _, client := range clients {
		if err := table.Populate(ctx, client); err != nil {
			logrus.Warnf("Failed to refresh %s: %v", client.Name(), err)
		}
	}

	fromCode := strings.ToUpper(*from)
	toCode := strings.ToUpper(*to)
	snap := table.Snapshot()

	abs, pct := snap.PairwiseDiffs(fromCode, toCode)
	if len(abs) == 0 {
		fmt.Printf("no venue quotes %s -> %s\n", fromCode, toCode)
		if reachable := snap.Conversions()[fromCode]; len(reachable) > 0 {
			fmt.Printf("%s converts to: %s\n", fromCode, strings.Join(reachable, " "))
		}
		return
	}

	fmt.Printf("%s -> %s gain buying on the row venue, selling on the column\n", fromCode, toCode)
	printMatrix(abs, "%.8f", 1)
	fmt.Printf("\nsame gain as %% of the row venue's rate\n")
	printMatrix(pct, "%.4f", 100)

	fmt.Println("\npairs per venue")
	pairs := snap.Pairs()
	for _, venue := range snap.Venues() {
		fmt.Printf("%12s: %d\n", venue, len(pairs[venue]))
	}
}

func printMatrix(m rates.DiffMatrix, format string, scale float64) {
	for _, row := range m {
		fmt.Printf("%12s:", row.Venue)
		for _, cell := range row.Cells {
			fmt.Printf("  %s=", cell.Venue)
			fmt.Printf(format, cell.Value*scale)
		}
		fmt.Println()
	}
}
