package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/skygraph/statsbridge/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check if statsbridge is running",
	Long: `Check the health of a running statsbridge instance by querying its
/health endpoint.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	listen := cfg.Server.GetListen()
	host := listen
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	healthURL := fmt.Sprintf("http://%s/health", host)

	client := &http.Client{Timeout: 5 * time.Second}

	//nolint:noctx // one-shot CLI health check
	resp, err := client.Get(healthURL)
	if err != nil {
		fmt.Printf("✗ statsbridge is not running (%s)\n", listen)
		return fmt.Errorf("server not reachable: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close response body")
		}
	}()

	switch resp.StatusCode {
	case http.StatusOK:
		fmt.Printf("✓ statsbridge is healthy (%s)\n", listen)
		return nil
	case http.StatusServiceUnavailable:
		fmt.Printf("✗ statsbridge is degraded or unhealthy (%s)\n", listen)
		return fmt.Errorf("health check reported status %d", resp.StatusCode)
	default:
		fmt.Printf("✗ statsbridge returned unexpected status: %d\n", resp.StatusCode)
		return fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}
}
