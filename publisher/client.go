package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"notes2blog/pipeline"
)

// Client talks to a running notes2blog server.
type Client struct {
	baseURL string
	client  *http.Client
	verbose bool
	logger  *log.Logger
}

type ingestResp struct {
	ImagePath string `json:"image_path"`
	Error     string `json:"error"`
}

type errorResp struct {
	Error string `json:"error"`
}

// NewClient creates a Client for the server at baseURL.
func NewClient(baseURL string, client *http.Client, verbose bool, logger *log.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("server url is required")
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		verbose: verbose,
		logger:  logger,
	}, nil
}

func (c *Client) infof(format string, args ...interface{}) {
	if !c.verbose {
		return
	}
	c.logger.Printf("[INFO] "+format, args...)
}

// Submit uploads the photo at imagePath and runs the pipeline on it.
func (c *Client) Submit(ctx context.Context, imagePath string) (pipeline.Result, error) {
	ref, err := c.Ingest(ctx, imagePath)
	if err != nil {
		return pipeline.Result{}, err
	}
	c.infof("Uploaded %s -> %s", imagePath, ref)

	res, err := c.Process(ctx, ref)
	if err != nil {
		return pipeline.Result{}, err
	}
	c.infof("Processed %s: validated=%v", ref, res.Validated)
	return res, nil
}

// Ingest uploads a photo and returns the server side image reference.
func (c *Client) Ingest(ctx context.Context, imagePath string) (string, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(imagePath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ingest", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var data ingestResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode ingest response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || data.ImagePath == "" {
		return "", fmt.Errorf("failed to upload image: %d %s", resp.StatusCode, data.Error)
	}
	return data.ImagePath, nil
}

// Process runs the pipeline on an already uploaded image.
func (c *Client) Process(ctx context.Context, imageRef string) (pipeline.Result, error) {
	payload, err := json.Marshal(map[string]string{"image_path": imageRef})
	if err != nil {
		return pipeline.Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process", bytes.NewReader(payload))
	if err != nil {
		return pipeline.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return pipeline.Result{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return pipeline.Result{}, err
	}
	if resp.StatusCode != http.StatusOK {
		var e errorResp
		_ = json.Unmarshal(raw, &e)
		if e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		return pipeline.Result{}, fmt.Errorf("failed to process image: %d %s", resp.StatusCode, e.Error)
	}

	var res pipeline.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return pipeline.Result{}, fmt.Errorf("decode process response: %w", err)
	}
	return res, nil
}
