package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	natsclient "github.com/mExArb/sharpshooter/pkg/nats"
	"github.com/mExArb/sharpshooter/pkg/types"
)

var (
	natsURL  = flag.String("nats-url", "nats://localhost:4222", "NATS server URL")
	currency = flag.String("currency", "*", "Start currency to follow, * for all")
)

func main() {
	flag.Parse()

	client, err := natsclient.NewClient(natsclient.DefaultConfig(*natsURL))
	if err != nil {
		logrus.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer client.Close()

	cur := strings.ToUpper(*currency)
	sub, err := client.SubscribeOpportunities(cur, func(subject string, data []byte) error {
		var opp types.Opportunity
		if err := json.Unmarshal(data, &opp); err != nil {
			return fmt.Errorf("failed to decode opportunity: %w", err)
		}
		fmt.Printf("[%s] %s\n", opp.DetectedAt.Format("15:04:05"), opp)
		return nil
	})
	if err != nil {
		logrus.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	logrus.Infof("Following %s opportunities on %s", cur, *natsURL)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logrus.Info("Shutting down feed")
}
