package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/algorandfoundation/algokit-subscriber-go/internal/algod"
	"github.com/algorandfoundation/algokit-subscriber-go/internal/api"
	"github.com/algorandfoundation/algokit-subscriber-go/internal/config"
	"github.com/algorandfoundation/algokit-subscriber-go/internal/db"
	"github.com/algorandfoundation/algokit-subscriber-go/internal/indexer"
	"github.com/algorandfoundation/algokit-subscriber-go/internal/kafka"
	"github.com/algorandfoundation/algokit-subscriber-go/internal/subscriber"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

func main() {
	log.Println("Starting Algorand transaction subscriber...")

	// Local development reads a .env file; deployed environments inject
	// variables directly.
	_ = godotenv.Load()

	cfgPath := getEnvOrDefault("SUBSCRIBER_CONFIG", "subscriber.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	frequency, _ := cfg.PollFrequency()

	dbUrl := requireEnv("DATABASE_URL")
	dbConn, err := db.Connect(dbUrl)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer dbConn.Close()
	if err := dbConn.InitSchema(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	algodClient := algod.NewClient(algod.Config{
		BaseURL: requireEnv("ALGOD_SERVER"),
		Token:   os.Getenv("ALGOD_TOKEN"),
	})

	// The indexer is only needed for catchup-with-indexer.
	var indexerClient subscriber.IndexerClient
	if server := os.Getenv("INDEXER_SERVER"); server != "" {
		indexerClient = indexer.NewClient(indexer.Config{
			BaseURL: server,
			Token:   os.Getenv("INDEXER_TOKEN"),
		})
	}

	sub, err := subscriber.New(subscriber.Config{
		Filters:                cfg.Filters,
		Arc28Groups:            cfg.Arc28Groups,
		SyncBehaviour:          cfg.SyncBehaviour,
		MaxRoundsToSync:        cfg.MaxRoundsToSync,
		MaxIndexerRoundsToSync: cfg.MaxIndexerRoundsToSync,
		Frequency:              frequency,
		WaitForBlockWhenAtTip:  cfg.WaitForBlockWhenAtTip,
		Watermark:              dbConn.Watermark(cfg.Name),
	}, algodClient, indexerClient)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	// Kafka is optional; without brokers matches only reach the database
	// and websocket clients.
	var producer *kafka.Publisher
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		producer, err = kafka.NewPublisher(strings.Split(brokers, ","),
			getEnvOrDefault("KAFKA_TOPIC_PREFIX", "algorand"))
		if err != nil {
			log.Printf("Warning: Kafka unavailable, continuing without publishing: %v", err)
			producer = nil
		} else {
			defer producer.Close()
		}
	}

	wsHub := api.NewHub()
	go wsHub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, f := range cfg.Filters {
		name := f.Name
		sub.OnBatch(name, api.BroadcastMatches(wsHub, name))
		sub.OnBatch(name, func(data interface{}) {
			txns, ok := data.([]*models.SubscribedTransaction)
			if !ok {
				return
			}
			for _, t := range txns {
				if err := dbConn.SaveSubscribedTransaction(ctx, t); err != nil {
					log.Printf("Warning: Failed to persist transaction %s: %v", t.ID, err)
				}
			}
			if producer != nil {
				producer.PublishBatch(name, txns)
			}
		})
	}
	sub.OnError(func(data interface{}) {
		log.Printf("[Subscriber] Poll failed: %v", data)
	})

	go func() {
		if err := sub.Start(ctx); err != nil && err != context.Canceled {
			log.Fatalf("FATAL: Subscriber stopped: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		sub.Stop(sig.String())
		cancel()
	}()

	r := api.SetupRouter(dbConn, sub, wsHub)
	port := getEnvOrDefault("PORT", "8085")

	log.Printf("Subscriber API running on :%s\n", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// requireEnv reads a required environment variable and exits if it is not set.
func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set. "+
			"Copy .env.example to .env and fill in your values: cp .env.example .env", key)
	}
	return val
}

// getEnvOrDefault returns the env var value or a default for non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
