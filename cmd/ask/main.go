// Command ask sends one question to a running assistant server and renders
// the streamed answer to the terminal as it arrives.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spassist/sp-assistant/sse"
)

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "assistant server base URL")
	timeout := flag.Duration("timeout", 5*time.Minute, "request timeout")
	flag.Parse()

	question := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if question == "" {
		fmt.Fprintln(os.Stderr, "usage: ask [-server URL] <question>")
		os.Exit(2)
	}

	if err := run(*serverURL, question, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(serverURL, question string, timeout time.Duration) error {
	payload, err := json.Marshal(chatRequest{
		Messages: []chatMessage{{Role: "user", Content: question}},
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(serverURL+"/api/v1/chat", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// Rewrite the line in place as tokens arrive.
	printed := 0
	acc := sse.NewAccumulator(func(answer string) {
		fmt.Print(answer[printed:])
		printed = len(answer)
	})

	answer, err := acc.Consume(resp.Body)
	if err != nil {
		return fmt.Errorf("stream read failed: %w", err)
	}

	if answer == "" {
		fmt.Println("(no answer)")
		return nil
	}
	fmt.Println()
	return nil
}
