package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"escalation-service/internal/api"
	"escalation-service/internal/config"
	"escalation-service/internal/db"
	"escalation-service/internal/engine"
	"escalation-service/internal/events"
	"escalation-service/internal/kafka"
	"escalation-service/internal/logging"
	"escalation-service/internal/models"
	"escalation-service/internal/store"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Config load failed:", err)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatal("Logger init failed:", err)
	}

	// Pick the store: Postgres when a DSN is configured, in-memory otherwise.
	var (
		repo        engine.EscalationRepository
		obligations engine.ObligationSource
		roster      []models.TeamMember
	)
	if cfg.DB.DSN != "" {
		dbConn, err := db.New(cfg.DB.DSN)
		if err != nil {
			logger.Errorf("DB connect failed: %v", err)
			log.Fatal("DB connect failed:", err)
		}
		defer dbConn.Close()
		repo = dbConn
		obligations = dbConn
		roster, err = dbConn.ListMembers(context.Background())
		if err != nil {
			logger.Errorf("Load team roster failed: %v", err)
			log.Fatal("Load team roster failed:", err)
		}
	} else {
		mem := store.NewMemory()
		repo = mem
		obligations = mem
		roster, err = loadRoster(cfg.Team.File)
		if err != nil {
			logger.Errorf("Load team roster failed: %v", err)
			log.Fatal("Load team roster failed:", err)
		}
		logger.Infof("No DB_DSN configured, running with in-memory store")
	}
	registry := engine.NewRegistry(roster)

	// Event sinks: dashboard hub always, Kafka when a broker is configured.
	hub := events.NewHub(logger)
	sink := events.Fanout{hub}
	var publisher *kafka.Publisher
	if cfg.Kafka.Broker != "" {
		publisher = kafka.NewPublisher(cfg.Kafka.Broker, cfg.Kafka.EventsTopic, logger)
		sink = append(sink, publisher)
	}

	eng := engine.New(repo, registry, sink, logger)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	// Start breach scanner
	scanner := engine.NewScanner(eng, obligations, cfg.Scanner.Interval, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner.Start(ctx)
	}()

	// Start Kafka intake consumer
	var consumer *kafka.Consumer
	if cfg.Kafka.Broker != "" {
		consumer = kafka.NewConsumer(cfg.Kafka.Broker, cfg.Kafka.IntakeTopic, cfg.Kafka.GroupID, eng, logger)
		consumer.Start(ctx, &wg)
	}

	// Start API server
	r := api.NewRouter(eng, registry, hub, logger, cfg)
	go func() {
		logger.Infof("API started on %s", cfg.API.Port)
		if err := r.Run(cfg.API.Port); err != nil {
			logger.Errorf("API run failed: %v", err)
		}
	}()

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Infof("Shutting down...")
	cancel()
	if consumer != nil {
		consumer.Close()
	}
	if publisher != nil {
		publisher.Close()
	}
	wg.Wait()
	logger.Infof("Service stopped")
}

// loadRoster reads the JSON team file used by in-memory mode. Without a
// roster the router has nobody to assign to, so an empty file is refused.
func loadRoster(path string) ([]models.TeamMember, error) {
	if path == "" {
		path = "team.json"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var roster []models.TeamMember
	if err := json.Unmarshal(data, &roster); err != nil {
		return nil, err
	}
	return roster, nil
}
