package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"content-orchestrator/core/models"

	"github.com/spf13/cobra"
)

var addr string

var rootCmd = &cobra.Command{
	Use:   "opsctl",
	Short: "CLI client for the content-orchestrator API",
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a content-operation job",
	Run: func(cmd *cobra.Command, args []string) {
		specFile, _ := cmd.Flags().GetString("spec")
		operation, _ := cmd.Flags().GetString("operation")
		category, _ := cmd.Flags().GetString("category")
		requirements, _ := cmd.Flags().GetString("requirements")
		account, _ := cmd.Flags().GetString("account")
		keywords, _ := cmd.Flags().GetStringSlice("keywords")

		body := map[string]interface{}{}
		if specFile != "" {
			b, err := os.ReadFile(specFile)
			if err != nil {
				fail("Failed to read spec file: %v", err)
			}
			body["spec_yaml"] = string(b)
		} else {
			if operation == "" || requirements == "" {
				fail("Either --spec or both --operation and --requirements are required")
			}
			body["input"] = models.JobInput{
				OperationType: models.OperationType(operation),
				AccountID:     account,
				Category:      category,
				Requirements:  requirements,
				Keywords:      keywords,
			}
		}

		var resp struct {
			ID        string    `json:"id"`
			Status    string    `json:"status"`
			CreatedAt time.Time `json:"created_at"`
		}
		call(http.MethodPost, "/v1/jobs", body, &resp)
		fmt.Printf("Submitted job %s (status: %s)\n", resp.ID, resp.Status)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Show a job's status and result",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var view models.JobView
		call(http.MethodGet, "/v1/jobs/"+args[0], nil, &view)
		fmt.Printf("Job:       %s\n", view.ID)
		fmt.Printf("Status:    %s\n", view.Status)
		fmt.Printf("Operation: %s\n", view.Input.OperationType)
		fmt.Printf("Created:   %s\n", view.CreatedAt.Format(time.RFC3339))
		fmt.Printf("Updated:   %s\n", view.UpdatedAt.Format(time.RFC3339))
		if view.Error != "" {
			fmt.Printf("Error:     %s\n", view.Error)
		}
		if len(view.Result) > 0 {
			fmt.Printf("Result:    %s\n", string(view.Result))
		}
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events [job-id]",
	Short: "Show a job's event log",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var resp struct {
			Items []models.JobEvent `json:"items"`
		}
		call(http.MethodGet, "/v1/jobs/"+args[0]+"/events", nil, &resp)
		if len(resp.Items) == 0 {
			fmt.Println("No events recorded.")
			return
		}
		for _, ev := range resp.Items {
			fmt.Printf("%s  %s\n", ev.Timestamp.Format(time.RFC3339), ev.Message)
		}
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [job-id]",
	Short: "Cancel a pending or running job",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reason, _ := cmd.Flags().GetString("reason")
		var resp struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		call(http.MethodPost, "/v1/jobs/"+args[0]+"/cancel", map[string]string{"reason": reason}, &resp)
		fmt.Printf("Job %s is now %s\n", resp.ID, resp.Status)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs",
	Run: func(cmd *cobra.Command, args []string) {
		status, _ := cmd.Flags().GetString("status")
		path := "/v1/jobs"
		if status != "" {
			path += "?status=" + status
		}
		var resp struct {
			Items []struct {
				ID            string    `json:"id"`
				Status        string    `json:"status"`
				OperationType string    `json:"operation_type"`
				CreatedAt     time.Time `json:"created_at"`
			} `json:"items"`
		}
		call(http.MethodGet, path, nil, &resp)
		if len(resp.Items) == 0 {
			fmt.Println("No jobs found.")
			return
		}
		for _, item := range resp.Items {
			fmt.Printf("%s  %-10s %-20s %s\n", item.ID, item.Status, item.OperationType, item.CreatedAt.Format(time.RFC3339))
		}
	},
}

// call performs one API request and decodes the JSON response into out.
func call(method, path string, body interface{}, out interface{}) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			fail("Failed to encode request: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, addr+path, reader)
	if err != nil {
		fail("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fail("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(resp.Body)
		fail("Server returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			fail("Failed to decode response: %v", err)
		}
	}
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "http://localhost:8080", "Server address")

	submitCmd.Flags().String("spec", "", "Path to a YAML workflow spec file")
	submitCmd.Flags().String("operation", "", "Operation type (e.g. content_creation)")
	submitCmd.Flags().String("category", "", "Content category")
	submitCmd.Flags().String("requirements", "", "Requirement description")
	submitCmd.Flags().String("account", "", "Account id")
	submitCmd.Flags().StringSlice("keywords", nil, "Keyword list")
	cancelCmd.Flags().String("reason", "", "Cancellation reason")
	listCmd.Flags().String("status", "", "Filter by status")

	rootCmd.AddCommand(submitCmd, statusCmd, eventsCmd, cancelCmd, listCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
