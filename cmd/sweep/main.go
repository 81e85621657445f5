package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"bidr_backend/internal/config"
	"bidr_backend/internal/logger"
)

// Calls the completion endpoint on a running server. Meant to be run from
// cron; the server does the actual settlement so holds and payouts go
// through the same code path as manual completion.
func main() {
	logger.InitFromEnv()
	cfg := config.Load()

	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = "http://localhost:" + cfg.AppPort
	}
	url := base + "/api/v1/auctions/complete-expired"

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Post(url, "application/json", nil)
	if err != nil {
		logger.Error("sweep request failed", "url", url, "error", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var body struct {
		Success   bool            `json:"success"`
		Completed int             `json:"completed"`
		Failed    int             `json:"failed"`
		Results   json.RawMessage `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		logger.Error("failed to decode sweep response", "status", resp.StatusCode, "error", err)
		os.Exit(1)
	}

	if resp.StatusCode != http.StatusOK || !body.Success {
		logger.Error("sweep failed", "status", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Printf("sweep finished: %d completed, %d failed\n", body.Completed, body.Failed)
	if body.Failed > 0 {
		fmt.Println(string(body.Results))
	}
}
