package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultRunnerURL is the default base URL for the model runner sidecar.
	DefaultRunnerURL = "http://localhost:8090"
	// DefaultRunnerTimeout is the default timeout for generation requests.
	// Wide-beam decoding of long inputs on CPU can take well over a minute.
	DefaultRunnerTimeout = 2 * time.Minute
)

// RunnerClient implements Backend against the HTTP API of the model
// runner, a sidecar process that holds the mBART weights and exposes
// generation over localhost.
type RunnerClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewRunnerClient creates a client for the model runner at baseURL.
func NewRunnerClient(baseURL string, logger *logrus.Logger) *RunnerClient {
	if baseURL == "" {
		baseURL = DefaultRunnerURL
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &RunnerClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultRunnerTimeout,
		},
		logger: logger,
	}
}

// generateRequest is the payload for the runner's /generate endpoint.
type generateRequest struct {
	Text      string `json:"text"`
	Source    string `json:"source"` // model locale identifier, e.g. "en_XX"
	Target    string `json:"target"` // model locale identifier, e.g. "de_DE"
	BeamWidth int    `json:"num_beams"`
}

// generateResponse is the payload returned by /generate.
type generateResponse struct {
	Text string `json:"text"`
}

// Generate translates text between two model locale identifiers.
func (c *RunnerClient) Generate(ctx context.Context, text, sourceID, targetID string, beamWidth int) (string, error) {
	c.logger.WithFields(logrus.Fields{
		"source":      sourceID,
		"target":      targetID,
		"beam_width":  beamWidth,
		"text_length": len(text),
	}).Debug("Requesting generation from model runner")

	reqPayload := generateRequest{
		Text:      text,
		Source:    sourceID,
		Target:    targetID,
		BeamWidth: beamWidth,
	}

	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(&reqPayload); err != nil {
		c.logger.WithError(err).Error("Failed to encode generation request")
		return "", fmt.Errorf("encode request: %w", err)
	}

	url := c.baseURL + "/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, buf)
	if err != nil {
		c.logger.WithError(err).Error("Failed to create generation request")
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"url": url,
		}).Error("Generation request failed")
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(startTime)
	c.logger.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"duration_ms": duration.Milliseconds(),
	}).Debug("Generation request completed")

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"response":    string(bodyBytes),
		}).Error("Generation request returned non-OK status")
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		c.logger.WithError(err).Error("Failed to decode generation response")
		return "", fmt.Errorf("decode response: %w", err)
	}

	return genResp.Text, nil
}

// Capabilities reports the runner's loaded model and adapter state.
func (c *RunnerClient) Capabilities(ctx context.Context) (Capabilities, error) {
	c.logger.Debug("Fetching model runner capabilities")

	url := c.baseURL + "/capabilities"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.WithError(err).Error("Failed to create capabilities request")
		return Capabilities{}, fmt.Errorf("create capabilities request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Error("Capabilities request failed")
		return Capabilities{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
		}).Error("Capabilities request returned non-OK status")
		return Capabilities{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var caps Capabilities
	if err := json.NewDecoder(resp.Body).Decode(&caps); err != nil {
		c.logger.WithError(err).Error("Failed to decode capabilities response")
		return Capabilities{}, fmt.Errorf("decode response: %w", err)
	}
	if caps.ModelVersion == "" {
		caps.ModelVersion = DefaultModelID
	}

	c.logger.WithFields(logrus.Fields{
		"model_version":   caps.ModelVersion,
		"adapters_loaded": caps.AdaptersLoaded,
		"device":          caps.Device,
	}).Info("Model runner capabilities fetched")

	return caps, nil
}

// CheckHealth verifies that the model runner is ready to serve requests.
func (c *RunnerClient) CheckHealth(ctx context.Context) error {
	c.logger.Debug("Checking model runner health")

	url := c.baseURL + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.WithError(err).Error("Failed to create health check request")
		return fmt.Errorf("create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"url": url,
		}).Error("Health check request failed")
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
		}).Error("Health check returned non-OK status")
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	c.logger.Debug("Model runner health check passed")
	return nil
}
