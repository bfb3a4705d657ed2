// Package main provides the entry point for the Parley TUI.
//
// Parley is a push-to-talk voice client for a conversational backend: it
// records an utterance from the microphone, submits it, and plays the spoken
// reply, falling back to local speech synthesis or plain text when reply
// audio is unavailable.
//
// Usage:
//
//	parley                        # Use default config
//	parley --config myapp.yaml    # Use custom config
//	parley --url http://...       # Talk to a specific backend
//	parley --audio portaudio      # Select the audio backend
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parleyvoice/parley-core/internal/app"
	"github.com/parleyvoice/parley-core/internal/config"
)

var (
	configPath   = flag.String("config", "", "Path to YAML configuration file")
	backendURL   = flag.String("url", "", "Backend URL (overrides config)")
	audioBackend = flag.String("audio", "", "Audio backend: miniaudio or portaudio (overrides config)")
	sessionFile  = flag.String("session", "", "Path to the session identity file (overrides config)")
	version      = flag.Bool("version", false, "Show version information")
)

const (
	appVersion = "0.1.0"
	appName    = "Parley"
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", appName, appVersion)
		fmt.Println("A push-to-talk voice client for conversational backends")
		os.Exit(0)
	}

	configFile := findConfig(*configPath)

	cfg, err := loadOrCreateConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Flag overrides
	if *backendURL != "" {
		cfg.Backend.URL = *backendURL
	}
	if *audioBackend != "" {
		cfg.Audio.Backend = *audioBackend
	}
	if *sessionFile != "" {
		cfg.Session.File = *sessionFile
	}

	if err := config.ValidateConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadOrCreateConfig loads configuration from file or returns defaults
func loadOrCreateConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.DefaultConfig(), nil
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfig locates the configuration file
func findConfig(explicit string) string {
	if explicit != "" {
		return explicit
	}

	locations := []string{
		"parley.yaml",
		"parley.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "parley", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".parley.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return "parley.yaml"
}
