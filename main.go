package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"pustaka/config"
	"pustaka/tui"
)

func main() {
	// Load environment
	_ = godotenv.Load()

	cfg := config.FromEnv()

	// Parse command-line flags (override environment)
	apiURL := flag.String("url", cfg.APIURL, "Pustaka library service URL")
	model := flag.String("model", cfg.Model, "Model used for generation")
	flag.Parse()
	cfg.APIURL = *apiURL
	cfg.Model = *model

	// Create TUI model
	m := tui.NewModel(cfg)

	// Create the tea program
	program := tea.NewProgram(m, tea.WithAltScreen())

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		program.Quit()
	}()

	// Run the program
	if _, err := program.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
