package summary

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/ollama/ollama/api"
)

type OllamaSummarizer struct {
	client *api.Client
	prompt string
	model  string
	mu     sync.Mutex
}

func NewOllamaSummarizer(baseURL, prompt, model string) *OllamaSummarizer {
	c := api.NewClient(&url.URL{
		Scheme: "http",
		Host:   baseURL,
		Path:   "/",
	}, &http.Client{})

	return &OllamaSummarizer{
		client: c,
		prompt: prompt,
		model:  model,
	}
}

func (o *OllamaSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	// Local models choke on concurrent generations; serialize them.
	o.mu.Lock()
	defer o.mu.Unlock()

	req := &api.GenerateRequest{
		Model:  o.model,
		System: o.prompt,
		Prompt: text,
	}

	var responseFlow []string
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		responseFlow = append(responseFlow, resp.Response)
		return nil
	})
	if err != nil {
		return "", err
	}

	return strings.Join(responseFlow, ""), nil
}
