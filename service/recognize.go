package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"aggregate-news/config"
)

// HTTPRecognizer calls an external entity recognition service
type HTTPRecognizer struct {
	Endpoint string
	Client   *http.Client
}

type recognizeRequest struct {
	Text string `json:"text"`
}

type recognizeResponse struct {
	Spans []config.Span `json:"spans"`
}

// Recognize return labeled spans for a text
func (r *HTTPRecognizer) Recognize(text string) ([]config.Span, error) {
	if r.Endpoint == "" {
		return nil, errors.New("recognizer endpoint is not configured")
	}
	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	payload, err := json.Marshal(recognizeRequest{Text: text})
	if err != nil {
		return nil, err
	}
	response, err := client.Post(r.Endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recognizer returned status %d", response.StatusCode)
	}
	var decoded recognizeResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	return decoded.Spans, nil
}
