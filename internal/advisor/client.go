package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"game-stock-advisor/console/internal/util"
)

// Backend endpoints relative to Config.BaseURL.
const (
	trainPath = "/api/train-model"
	predPath  = "/api/predict"
	yearsPath = "/api/get-years"
)

// Dispatcher is the set of backend calls the workflows depend on.
type Dispatcher interface {
	SubmitTraining(ctx context.Context) (TrainResponse, error)
	SubmitPrediction(ctx context.Context, req PredictionRequest) (PredictionResponse, error)
	FetchYears(ctx context.Context) ([]int, error)
}

// Config holds backend connection parameters.
type Config struct {
	BaseURL string
	// Timeout bounds each call. Zero waits until the backend answers.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements Dispatcher over the backend's JSON HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// ErrMissingBaseURL is returned when no backend address is configured.
var ErrMissingBaseURL = errors.New("advisor backend url not configured")

// NewClient constructs a Client if the supplied configuration is valid.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, ErrMissingBaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q: unsupported scheme", base)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{httpClient: httpClient, baseURL: base}, nil
}

// SubmitTraining asks the backend to (re)build its model.
func (c *Client) SubmitTraining(ctx context.Context) (TrainResponse, error) {
	var decoded TrainResponse
	status, err := c.post(ctx, "train", trainPath, nil, &decoded)
	if err != nil {
		return TrainResponse{}, err
	}
	if !isSuccess(status) || !decoded.Success {
		return decoded, newApplicationError("train", status, decoded.Error, FallbackTrainError)
	}
	return decoded, nil
}

// SubmitPrediction requests the ranked game list for req.
func (c *Client) SubmitPrediction(ctx context.Context, req PredictionRequest) (PredictionResponse, error) {
	var decoded PredictionResponse
	status, err := c.post(ctx, "predict", predPath, req, &decoded)
	if err != nil {
		return PredictionResponse{}, err
	}
	if !isSuccess(status) || !decoded.Success {
		return decoded, newApplicationError("predict", status, decoded.Error, FallbackPredictError)
	}
	return decoded, nil
}

// FetchYears lists the years the backend can predict for. The backend answers
// with an error until a model has been trained.
func (c *Client) FetchYears(ctx context.Context) ([]int, error) {
	var decoded yearsResponse
	status, err := c.do(ctx, "years", http.MethodGet, yearsPath, nil, &decoded)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, newApplicationError("years", status, decoded.Error, "years unavailable")
	}
	return decoded.Years, nil
}

func (c *Client) post(ctx context.Context, op, path string, payload any, out any) (int, error) {
	return c.do(ctx, op, http.MethodPost, path, payload, out)
}

// do performs one request and decodes exactly one JSON body into out,
// whatever the status code.
func (c *Client) do(ctx context.Context, op, method, path string, payload any, out any) (int, error) {
	timer := util.StartTimer()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("marshal %s request: %w", op, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observeBackend(op, "transport", timer)
		return 0, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		observeBackend(op, "decode", timer)
		return resp.StatusCode, &TransportError{Op: op, Err: fmt.Errorf("decode %s response: %w", op, err)}
	}

	outcome := "ok"
	if !isSuccess(resp.StatusCode) {
		outcome = "status"
	}
	observeBackend(op, outcome, timer)
	logrus.WithFields(logrus.Fields{
		"op":          op,
		"status":      resp.StatusCode,
		"duration_ms": timer.ElapsedMs(),
	}).Debug("backend call finished")
	return resp.StatusCode, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
