// cmd/zebractl/commands.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// apiResponse mirrors the server's response envelope.
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func callAPI(method, path string, body interface{}) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, strings.TrimRight(serverURL, "/")+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot reach server at %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("unexpected response (%d): %s", resp.StatusCode, string(raw))
	}
	if !envelope.Success {
		return envelope.Data, fmt.Errorf("%s", envelope.Error)
	}
	return envelope.Data, nil
}

func printJSON(data json.RawMessage) {
	if len(data) == 0 {
		fmt.Println("OK")
		return
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		fmt.Println(string(data))
		return
	}
	fmt.Println(pretty.String())
}

func newDiscoverCmd() *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Start printer discovery",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := callAPI(http.MethodPost, "/api/v1/discovery/start", nil)
			if err != nil {
				return err
			}
			if !wait {
				printJSON(data)
				return nil
			}

			// Poll until the session finishes, then show what it found.
			for {
				time.Sleep(2 * time.Second)
				data, err = callAPI(http.MethodGet, "/api/v1/discovery/session", nil)
				if err != nil {
					return err
				}
				var session struct {
					Status string `json:"status"`
				}
				if err := json.Unmarshal(data, &session); err != nil {
					return err
				}
				if session.Status == "COMPLETED" || session.Status == "ERROR" {
					break
				}
				fmt.Fprintln(os.Stderr, "scanning...")
			}
			printJSON(data)
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the session to finish")
	return cmd
}

func newPrintersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "printers",
		Short: "List discovered printers",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := callAPI(http.MethodGet, "/api/v1/printers", nil)
			if err != nil {
				return err
			}
			printJSON(data)
			return nil
		},
	}
}

func newConnectCmd() *cobra.Command {
	var family string
	cmd := &cobra.Command{
		Use:   "connect <address>",
		Short: "Connect to a printer (connecting to the connected printer disconnects it)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := callAPI(http.MethodPost, "/api/v1/printers/connect", map[string]string{
				"address": args[0],
				"family":  family,
			})
			if err != nil {
				return err
			}
			printJSON(data)
			return nil
		},
	}
	cmd.Flags().StringVar(&family, "family", "SMART", "printer family: SMART or GENERIC_SOCKET")
	return cmd
}

func newDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Disconnect the active printer",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := callAPI(http.MethodPost, "/api/v1/printers/disconnect", nil)
			if err != nil {
				return err
			}
			fmt.Println("Disconnected")
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe the active connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := callAPI(http.MethodGet, "/api/v1/printers/status", nil)
			if err != nil {
				return err
			}
			printJSON(data)
			return nil
		},
	}
}

func newPrintCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "print [data]",
		Short: "Send a payload to the connected printer",
		Long:  "Send raw printer data. Pass the payload as an argument, via --file, or on stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload []byte
			switch {
			case file != "":
				raw, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				payload = raw
			case len(args) == 1:
				payload = []byte(args[0])
			default:
				raw, err := io.ReadAll(os.Stdin)
				if err != nil {
					return err
				}
				payload = raw
			}

			data, err := callAPI(http.MethodPost, "/api/v1/print", map[string]string{"data": string(payload)})
			if err != nil {
				return err
			}
			printJSON(data)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "read the payload from a file")
	return cmd
}

func newJobsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jobs [id]",
		Short: "List print jobs, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/jobs"
			if len(args) == 1 {
				path += "/" + url.PathEscape(args[0])
			}
			data, err := callAPI(http.MethodGet, path, nil)
			if err != nil {
				return err
			}
			printJSON(data)
			return nil
		},
	}
}

func newDarknessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "darkness <value>",
		Short: "Set print darkness (preset step or -30..30)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("darkness must be an integer: %w", err)
			}
			if _, err := callAPI(http.MethodPost, "/api/v1/settings/darkness", map[string]int{"darkness": value}); err != nil {
				return err
			}
			fmt.Println("Darkness set to", value)
			return nil
		},
	}
}

func newMediaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "media <LABEL|BLACK_MARK|JOURNAL>",
		Short: "Set the media type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			media := strings.ToUpper(args[0])
			if _, err := callAPI(http.MethodPost, "/api/v1/settings/media", map[string]string{"media": media}); err != nil {
				return err
			}
			fmt.Println("Media type set to", media)
			return nil
		},
	}
}

func newCalibrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calibrate",
		Short: "Run a media calibration pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := callAPI(http.MethodPost, "/api/v1/settings/calibrate", nil); err != nil {
				return err
			}
			fmt.Println("Calibration started")
			return nil
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream printer events until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			wsURL, err := websocketURL(serverURL)
			if err != nil {
				return err
			}

			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			if err != nil {
				return fmt.Errorf("cannot open event stream: %w", err)
			}
			defer conn.Close()

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			go func() {
				<-interrupt
				conn.Close()
			}()

			for {
				_, message, err := conn.ReadMessage()
				if err != nil {
					return nil
				}
				printJSON(message)
			}
		},
	}
}

func websocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return u.String(), nil
}
