package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/airadar/citation-bot/internal/demo"
	"github.com/airadar/citation-bot/internal/models"
	"github.com/airadar/citation-bot/internal/monitoring"
	"github.com/airadar/citation-bot/internal/notifications"
	"github.com/airadar/citation-bot/internal/storage"
)

func main() {
	brand := flag.String("brand", "Notion", "focal brand")
	competitors := flag.String("competitors", "Asana,ClickUp", "comma-separated competitors")
	keyword := flag.String("keyword", "project management tools", "category keyword")
	out := flag.String("out", "test_output", "output directory")
	flag.Parse()

	fmt.Println("AI Radar - Test Report Generator")
	fmt.Println("================================")

	bundle, err := demo.NewGenerator(nil).Generate(*brand, strings.Split(*competitors, ","), *keyword)
	if err != nil {
		log.Fatalf("Failed to generate demo data: %v", err)
	}

	report := monitoring.BuildReport(models.Demo{Bundle: bundle, Reason: "test_report"}, "weekly", *brand, time.Now())

	archive, err := storage.NewLocalStore(*out)
	if err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	name, err := storage.NewArchiver(archive).ArchiveReport(context.Background(), report)
	if err != nil {
		log.Fatalf("Failed to save report: %v", err)
	}

	var text bytes.Buffer
	if err := notifications.NewConsole(&text).SendReport(context.Background(), report); err != nil {
		log.Fatalf("Failed to render report: %v", err)
	}
	textPath := filepath.Join(*out, strings.TrimSuffix(name, ".json")+".txt")
	if err := os.WriteFile(textPath, text.Bytes(), 0644); err != nil {
		log.Fatalf("Failed to write %s: %v", textPath, err)
	}

	fmt.Print(text.String())
	fmt.Printf("\nReport saved to %s and %s\n", filepath.Join(*out, name), textPath)
}
