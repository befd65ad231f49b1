package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const pollinationsURL = "https://text.pollinations.ai/openai"

type PollinationsProvider struct {
	model  string
	client *http.Client
}

// NewPollinationsProvider accepts an engine string of the form
// "pollinations" or "pollinations:<model>"; the bare form uses the
// endpoint's default "openai" model.
func NewPollinationsProvider(engine string) *PollinationsProvider {
	model := "openai"
	if _, m, ok := strings.Cut(engine, ":"); ok && m != "" {
		model = m
	}
	return &PollinationsProvider{
		model: model,
		client: &http.Client{
			Timeout: 25 * time.Second,
		},
	}
}

func (p *PollinationsProvider) Generate(messages []Message) (string, error) {
	payload := map[string]interface{}{
		"model":       p.model,
		"messages":    messages,
		"temperature": 1,
		"private":     true,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(
		http.MethodPost,
		pollinationsURL,
		bytes.NewReader(data),
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("pollinations http %d: %s", resp.StatusCode, truncate(body))
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return "", fmt.Errorf("pollinations returned html")
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("pollinations empty choices")
	}

	reply := cleanReply(parsed.Choices[0].Message.Content)
	if isGarbageResponse(reply) {
		return "", fmt.Errorf("pollinations returned garbage")
	}

	return reply, nil
}
