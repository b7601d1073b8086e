package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/config"
	"github.com/spf13/cobra"
)

var (
	weeksAhead int
	weekStart  string
	tokenTTL   time.Duration
	limit      int
)

func init() {
	generateCmd.Flags().IntVar(&weeksAhead, "weeks", 0, "Weeks ahead to generate (server default when 0)")
	skipWeekCmd.Flags().StringVar(&weekStart, "week", "", "Week to skip as YYYY-MM-DD (current week when empty)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	matchesCmd.Flags().IntVar(&limit, "limit", 10, "Number of matches to list")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(rankingCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(attendCmd)
	rootCmd.AddCommand(skipWeekCmd)
	rootCmd.AddCommand(syncCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health", nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics", nil)
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Issue an API token signed with JWT_SECRET",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if cfg.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is not set")
		}
		signed, err := auth.NewTokens(cfg.JWTSecret).Issue(args[0], tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(signed)
		return nil
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard <group>",
	Short: "Show a group's dashboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/api/g/"+args[0]+"/", nil)
	},
}

var rankingCmd = &cobra.Command{
	Use:   "ranking <group>",
	Short: "Show a group's ranking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/api/g/"+args[0]+"/ranking", nil)
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches <group>",
	Short: "List a group's latest matches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, fmt.Sprintf("/api/g/%s/matches?limit=%d", args[0], limit), nil)
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate <group> <event-id>",
	Short: "Generate upcoming occurrences of a weekly event",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var body any
		if weeksAhead > 0 {
			body = map[string]int{"weeks_ahead": weeksAhead}
		}
		return performRequest(http.MethodPost, "/api/g/"+args[0]+"/events/"+args[1]+"/generate", body)
	},
}

var attendCmd = &cobra.Command{
	Use:   "attend <group> <occurrence-id> <player-id> <confirmed|declined|maybe|waitlist>",
	Short: "Set a player's attendance",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPut, "/api/g/"+args[0]+"/occurrences/"+args[1]+"/attendance", map[string]string{
			"player_id": args[2],
			"status":    args[3],
			"source":    "admin",
		})
	},
}

var skipWeekCmd = &cobra.Command{
	Use:   "skip-week <group-id>",
	Short: "Mark a week as skipped so streaks are kept",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var body any
		if weekStart != "" {
			body = map[string]string{"week_start": weekStart}
		}
		return performRequest(http.MethodPost, "/api/groups/"+args[0]+"/skip-week", body)
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync <group-id>",
	Short: "Link Playtomic bookings to a group's occurrences",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/api/admin/playtomic/sync", map[string]string{"group_id": args[0]})
	},
}

func performRequest(method, endpoint string, payload any) error {
	url := host + endpoint
	fmt.Printf("Making request to %s %s\n", method, url)

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(respBody))
	return nil
}
