// Package main provides a CLI tool for exercising GitHub App credentials
// outside the server: mint an assertion, resolve the installation, and
// exchange it for an installation access token. Useful when debugging why
// a key or App id is rejected.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"repocomply/internal/auth/appjwt"
	"repocomply/internal/auth/installation"
	"repocomply/internal/github"
	"repocomply/internal/platform/logger"
)

type tokenOutput struct {
	InstallationID int64     `json:"installation_id"`
	Token          string    `json:"token"`
	ExpiresAt      time.Time `json:"expires_at"`
}

func main() {
	appID := flag.String("app-id", "", "GitHub App id")
	keyPath := flag.String("key", "", "Path to the App's private key PEM file")
	org := flag.String("org", "", "Organization login the App is installed on")
	apiURL := flag.String("api-url", "", "GitHub API base URL override (for GHES)")
	asJSON := flag.Bool("json", false, "Output as JSON")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall timeout")
	flag.Parse()

	if *appID == "" || *keyPath == "" || *org == "" {
		fmt.Fprintln(os.Stderr, "usage: apptoken -app-id <id> -key <pem-file> -org <login> [-api-url <url>] [-json]")
		os.Exit(2)
	}

	keyPEM, err := os.ReadFile(*keyPath)
	if err != nil {
		fatalf("failed to read key file: %v", err)
	}

	log := logger.New(slog.LevelWarn)
	clientOpts := []github.Option{github.WithLogger(log)}
	if *apiURL != "" {
		clientOpts = append(clientOpts, github.WithAPIBaseURL(*apiURL))
	}
	client := github.NewClient(clientOpts...)

	manager := installation.NewManager(client, appjwt.NewMinter(), installation.WithLogger(log))
	manager.Configure(*appID, string(keyPEM), *org, 0)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	token, err := manager.EnsureFresh(ctx)
	if err != nil {
		fatalf("%v", err)
	}

	out := tokenOutput{
		InstallationID: manager.InstallationID(),
		Token:          token,
		ExpiresAt:      manager.TokenExpiry(),
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fatalf("failed to encode output: %v", err)
		}
		return
	}

	fmt.Printf("installation_id: %d\n", out.InstallationID)
	fmt.Printf("token:           %s\n", out.Token)
	fmt.Printf("expires_at:      %s\n", out.ExpiresAt.Format(time.RFC3339))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
