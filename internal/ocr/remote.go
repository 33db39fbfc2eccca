package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// AccessKeyHeader carries the endpoint access key on every request.
const AccessKeyHeader = "Ocp-Apim-Subscription-Key"

// RemoteEngine submits raw image bytes to a hosted read API. A response
// status of 200 or 202 is success; anything else is a fatal error for that
// page, to be captured by the dispatcher.
type RemoteEngine struct {
	endpoint  string
	accessKey string
	client    *http.Client
}

// NewRemoteEngine builds an engine for the given endpoint. Both endpoint
// and accessKey must be non-empty; the caller checks that before wiring.
func NewRemoteEngine(endpoint, accessKey string) *RemoteEngine {
	return &RemoteEngine{
		endpoint:  endpoint,
		accessKey: accessKey,
		client:    &http.Client{},
	}
}

func (e *RemoteEngine) Name() string { return "remote" }

// Recognize posts the encoded page image and normalizes the JSON body.
func (e *RemoteEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(in.Image))
	if err != nil {
		return Result{}, fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set(AccessKeyHeader, e.accessKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := e.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("ocr request for page %d: %w", in.PageIndex+1, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return Result{}, fmt.Errorf("ocr endpoint returned status %d for page %d", resp.StatusCode, in.PageIndex+1)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read ocr response for page %d: %w", in.PageIndex+1, err)
	}
	return normalizeResponse(body)
}

// envelope accepts both the wrapped and the bare response shapes.
type envelope struct {
	Status        string         `json:"status"`
	AnalyzeResult *AnalyzeResult `json:"analyzeResult"`
	ReadResults   []ReadResult   `json:"readResults"`
}

// normalizeResponse wraps bare read results under the analyzeResult key so
// every consumer sees one shape.
func normalizeResponse(body []byte) (Result, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Result{}, fmt.Errorf("decode ocr response: %w", err)
	}

	res := Result{Status: env.Status}
	if env.AnalyzeResult != nil {
		res.AnalyzeResult = *env.AnalyzeResult
	} else {
		res.AnalyzeResult = AnalyzeResult{ReadResults: env.ReadResults}
	}
	return res, nil
}
