// Command cli is a small client for the manager API, useful for demos and
// manual poking: create/list/chat/delete agents and browse prompt templates.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var serverURL string

func main() {
	rootCmd := &cobra.Command{
		Use:   "agentpod",
		Short: "agentpod manages containerized chat agents",
	}
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "manager base URL")

	var (
		agentType    string
		modelName    string
		deployment   string
		systemPrompt string
		template     string
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{
				"agent_type": agentType,
				"model_name": modelName,
			}
			if deployment != "" {
				body["deployment_name"] = deployment
			}
			if systemPrompt != "" {
				body["system_prompt"] = systemPrompt
			}
			if template != "" {
				body["template"] = template
			}
			return call(http.MethodPost, "/agents", body)
		},
	}
	createCmd.Flags().StringVarP(&agentType, "type", "t", "coder", "agent type (general, coder, analyzer, creative)")
	createCmd.Flags().StringVarP(&modelName, "model", "m", "gpt-4o-mini", "logical model name")
	createCmd.Flags().StringVarP(&deployment, "deployment", "d", "", "deployment name (defaults from manager config)")
	createCmd.Flags().StringVarP(&systemPrompt, "prompt", "p", "", "custom system prompt")
	createCmd.Flags().StringVar(&template, "template", "", "prompt template name (takes precedence over --prompt)")

	var userID string
	chatCmd := &cobra.Command{
		Use:   "chat <agent-id> <message...>",
		Short: "Send a chat message to an agent",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(http.MethodPost, "/agents/"+args[0]+"/chat", map[string]string{
				"message": strings.Join(args[1:], " "),
				"user_id": userID,
			})
		},
	}
	chatCmd.Flags().StringVarP(&userID, "user", "u", "cli_user", "user id attached to the request")

	rootCmd.AddCommand(
		createCmd,
		chatCmd,
		&cobra.Command{
			Use:   "list",
			Short: "List all agents",
			RunE: func(cmd *cobra.Command, args []string) error {
				return call(http.MethodGet, "/agents", nil)
			},
		},
		&cobra.Command{
			Use:   "get <agent-id>",
			Short: "Show one agent",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return call(http.MethodGet, "/agents/"+args[0], nil)
			},
		},
		&cobra.Command{
			Use:   "delete <agent-id>",
			Short: "Delete an agent and its container",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return call(http.MethodDelete, "/agents/"+args[0], nil)
			},
		},
		&cobra.Command{
			Use:   "health [agent-id]",
			Short: "Check manager health, or one agent's health",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if len(args) == 1 {
					return call(http.MethodGet, "/agents/"+args[0]+"/health", nil)
				}
				return call(http.MethodGet, "/health", nil)
			},
		},
		&cobra.Command{
			Use:   "templates [name]",
			Short: "List prompt templates, or show one",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if len(args) == 1 {
					return call(http.MethodGet, "/templates/"+args[0], nil)
				}
				return call(http.MethodGet, "/templates", nil)
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// call performs one API request and pretty-prints the JSON response.
func call(method, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, strings.TrimRight(serverURL, "/")+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, respBody, "", "  "); err != nil {
		fmt.Println(string(respBody))
	} else {
		fmt.Println(pretty.String())
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed: HTTP %d", resp.StatusCode)
	}
	return nil
}
