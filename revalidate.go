package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Revalidator asks the frontend to rebuild its static pages after content changes.
type Revalidator struct {
	url    string
	secret string
	client *http.Client
}

func NewRevalidator(url, secret string) *Revalidator {
	return &Revalidator{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Trigger posts {"secret": ...} to the revalidation URL. Failures are logged
// and dropped. A Revalidator without a URL does nothing.
func (rv *Revalidator) Trigger() {
	if rv == nil || rv.url == "" {
		return
	}

	payload, _ := json.Marshal(map[string]string{"secret": rv.secret})
	resp, err := rv.client.Post(rv.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		slog.Warn("revalidation request failed", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("revalidation rejected", "status", resp.StatusCode)
		return
	}
	slog.Debug("revalidation triggered")
}
