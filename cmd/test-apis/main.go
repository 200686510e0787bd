package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/airadar/citation-bot/internal/config"
	"github.com/airadar/citation-bot/internal/providers"
	"github.com/airadar/citation-bot/internal/scanner"
	"github.com/joho/godotenv"
)

func main() {
	keyword := flag.String("keyword", "project management tools", "category to ask about")
	brands := flag.String("brands", "Notion,Asana,Monday.com,ClickUp,Trello,Jira", "comma-separated brands to look for")
	flag.Parse()

	fmt.Println("AI Radar - Provider Connectivity Test")
	fmt.Println("=====================================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	sc := scanner.New(providers.Default(cfg), cfg.ProviderTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ScanTimeout)
	defer cancel()

	start := time.Now()
	diagnosis, err := sc.Diagnose(ctx, *keyword, strings.Split(*brands, ","))
	if err != nil {
		log.Fatalf("Diagnostic scan failed: %v", err)
	}

	fmt.Printf("\nPrompt: %s\n", diagnosis.Prompt)
	fmt.Println(strings.Repeat("-", 40))

	for _, check := range diagnosis.Results {
		fmt.Printf("%-12s ", check.Provider)
		switch {
		case !check.HasAPIKey:
			fmt.Println("DISABLED (missing API key)")
		case !check.Success:
			fmt.Printf("FAILED: %s\n", check.Error)
		default:
			fmt.Printf("OK - %d chars, brands: %s\n", check.ResponseLength, strings.Join(check.BrandsFound, ", "))
		}

		if key := diagnosis.KeyDiagnostics[check.Provider]; key != nil && key.Length != key.TrimmedLength {
			fmt.Printf("             key %s has surrounding whitespace (%d vs %d chars)\n", key.Prefix, key.Length, key.TrimmedLength)
		}
	}

	fmt.Printf("\nStatus: %s (%v)\n", diagnosis.Status, time.Since(start).Round(time.Millisecond))
	if diagnosis.Status != "all_working" {
		fmt.Println("\nConfigure OPENAI_API_KEY, PERPLEXITY_API_KEY and GEMINI_API_KEY in .env to enable every provider.")
	}
}
