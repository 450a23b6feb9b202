// Package firestore stores workout logs in Cloud Firestore through its REST API.
package firestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/ayusman/repcoach/internal/store"
)

// DefaultBaseURL is the Firestore REST endpoint.
const DefaultBaseURL = "https://firestore.googleapis.com/v1"

// Config identifies the project and user whose logs are read and written.
type Config struct {
	ProjectID string
	UserID    string
	// BaseURL overrides DefaultBaseURL, mostly for tests and the emulator.
	BaseURL string
}

// APIError is a non-2xx response from Firestore.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("firestore API error %d: %s", e.Status, e.Body)
}

// Client reads and writes the per-user log collection.
type Client struct {
	httpClient *http.Client
	baseURL    string
	projectID  string
	userID     string
}

// NewClient creates a client that authenticates every request with tokens from ts.
func NewClient(cfg Config, ts oauth2.TokenSource) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		httpClient: oauth2.NewClient(context.Background(), ts),
		baseURL:    base,
		projectID:  cfg.ProjectID,
		userID:     cfg.UserID,
	}
}

// UserID returns the user whose collection this client uses.
func (c *Client) UserID() string { return c.userID }

// CollectionURL is the REST URL of the user's log collection.
func (c *Client) CollectionURL() string {
	return fmt.Sprintf("%s/projects/%s/databases/(default)/documents/user_logs_%s", c.baseURL, c.projectID, c.userID)
}

// Save appends a log document. On success the log's ID is set to the document ID.
func (c *Client) Save(ctx context.Context, l *store.WorkoutLog) error {
	ts := l.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	body, err := json.Marshal(encodeLog(l, ts))
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.CollectionURL(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var doc document
	if err := c.do(req, &doc); err != nil {
		return err
	}
	if doc.Name != "" {
		l.ID = path.Base(doc.Name)
	}
	return nil
}

// List returns up to limit logs, most recent first. A limit <= 0 returns one page
// of the server's default size.
func (c *Client) List(ctx context.Context, limit int) ([]*store.WorkoutLog, error) {
	params := url.Values{}
	params.Set("orderBy", "timestamp desc")
	if limit > 0 {
		params.Set("pageSize", strconv.Itoa(limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.CollectionURL()+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	logs := make([]*store.WorkoutLog, 0, len(resp.Documents))
	for _, doc := range resp.Documents {
		l := decodeLog(doc)
		l.UserID = c.userID
		logs = append(logs, l)
	}
	return logs, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
