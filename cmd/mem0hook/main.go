package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/quinnmay/mem0hook/webhookservice"
)

var rootCmd = &cobra.Command{
	Use:   "mem0hook",
	Short: "Webhook relay that forwards JSON payloads to the Mem0 memory API",
}

func main() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook relay HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return webhookservice.Run()
		},
	}
	rootCmd.AddCommand(serveCmd)

	postCmd := &cobra.Command{
		Use:   "post",
		Short: "Send a test memory to a running relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _ := cmd.Flags().GetString("api")
			content, _ := cmd.Flags().GetString("content")
			user, _ := cmd.Flags().GetString("user")
			category, _ := cmd.Flags().GetString("category")
			return runPost(api, content, user, category, os.Stdout)
		},
	}
	postCmd.Flags().StringP("api", "a", "http://localhost:8000", "Relay base URL")
	postCmd.Flags().StringP("content", "c", "", "Memory content (required)")
	postCmd.Flags().StringP("user", "u", "", "User ID")
	postCmd.Flags().String("category", "", "Memory category")
	_ = postCmd.MarkFlagRequired("content")
	rootCmd.AddCommand(postCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runPost(api, content, user, category string, out *os.File) error {
	body := map[string]interface{}{"content": content}
	if user != "" {
		body["user_id"] = user
	}
	if category != "" {
		body["category"] = category
	}

	client := resty.New().SetBaseURL(api).SetTimeout(30 * time.Second)
	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/webhook/memory")
	if err != nil {
		return err
	}

	var pretty json.RawMessage = resp.Body()
	b, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		b = resp.Body()
	}
	fmt.Fprintln(out, string(b))
	if resp.IsError() {
		return fmt.Errorf("relay returned %d", resp.StatusCode())
	}
	return nil
}
