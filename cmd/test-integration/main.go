package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/airadar/citation-bot/internal/config"
	"github.com/airadar/citation-bot/internal/database"
	"github.com/airadar/citation-bot/internal/models"
	"github.com/airadar/citation-bot/internal/monitoring"
	"github.com/airadar/citation-bot/internal/notifications"
	"github.com/airadar/citation-bot/internal/providers"
	"github.com/airadar/citation-bot/internal/scanner"
	"github.com/airadar/citation-bot/internal/storage"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	keyword := flag.String("keyword", "project management tools", "category to scan")
	brands := flag.String("brands", "Notion,Asana,ClickUp", "comma-separated brands, the first is the focal brand")
	out := flag.String("out", "test_output", "directory for the database and archive")
	flag.Parse()

	fmt.Println("AI Radar - Local Integration Test")
	fmt.Println("=================================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.Keywords = []string{*keyword}
	cfg.Brands = strings.Split(*brands, ",")
	logrus.SetLevel(logrus.WarnLevel)

	if err := os.MkdirAll(*out, 0755); err != nil {
		log.Fatalf("Failed to create %s: %v", *out, err)
	}

	store, err := database.NewSQLiteStore(filepath.Join(*out, "integration.db"))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	archive, err := storage.NewLocalStore(filepath.Join(*out, "archive"))
	if err != nil {
		log.Fatalf("Failed to open archive: %v", err)
	}

	sc := scanner.New(providers.Default(cfg), cfg.ProviderTimeout)
	for provider, ok := range sc.Availability() {
		fmt.Printf("%-12s configured: %v\n", provider, ok)
	}

	service := monitoring.NewService(cfg, sc, store, archive, notifications.NewConsole(os.Stdout))

	fmt.Printf("\nRunning lite scan for %q...\n\n", *keyword)
	if err := service.RunMonitoring(models.CadenceLite); err != nil {
		log.Fatalf("Monitoring run failed: %v", err)
	}

	fmt.Println("\nMetrics:")
	fmt.Println(service.GetMetrics())
	fmt.Printf("\nResults stored under %s\n", *out)
}
