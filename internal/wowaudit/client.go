// Package wowaudit is the roster-management API client: team metadata, raid
// instances, characters, wishlist history and wishlist uploads.
package wowaudit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/jonathan/wishlist-sync/internal/schemas"
	"github.com/jonathan/wishlist-sync/internal/types"
)

// DefaultBaseURL is the public WoWAudit API host.
const DefaultBaseURL = "https://wowaudit.com"

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultConfigurationName is the wishlist configuration uploads are filed under.
const DefaultConfigurationName = "Single Target"

// Error represents a failed roster API call.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("wowaudit error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("wowaudit error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the client.
type Options struct {
	BaseURL           string
	Token             string
	Timeout           time.Duration
	ConfigurationName string
}

// Client calls the WoWAudit API.
type Client struct {
	baseURL           string
	token             string
	configurationName string
	http              *http.Client
}

// NewClient creates a client. The token is required.
func NewClient(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("wowaudit API token is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.ConfigurationName == "" {
		opts.ConfigurationName = DefaultConfigurationName
	}
	return &Client{
		baseURL:           strings.TrimRight(opts.BaseURL, "/"),
		token:             opts.Token,
		configurationName: opts.ConfigurationName,
		http:              &http.Client{Timeout: opts.Timeout},
	}, nil
}

// TeamInfo is the subset of /v1/team the pipeline needs.
type TeamInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

var regionPattern = regexp.MustCompile(`^https?://[^/]+/([^/]+)/`)

// Region extracts the region code from a team URL of the form https://<host>/<region>/...
func Region(teamURL string) (string, bool) {
	m := regionPattern.FindStringSubmatch(teamURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// FetchTeamInfo returns the team the token belongs to.
func (c *Client) FetchTeamInfo(ctx context.Context) (*TeamInfo, error) {
	var team TeamInfo
	if err := c.getJSON(ctx, "/v1/team", &team); err != nil {
		return nil, err
	}
	return &team, nil
}

// FetchCurrentRaidInstance returns the live instance flagged current, or nil when none is.
func (c *Client) FetchCurrentRaidInstance(ctx context.Context) (*types.RaidInstance, error) {
	var instances []types.RaidInstance
	if err := c.getJSON(ctx, "/api/instances?kind=live", &instances); err != nil {
		return nil, err
	}
	for i := range instances {
		if instances[i].IsCurrentTier {
			return &instances[i], nil
		}
	}
	return nil, nil
}

// FetchCharacters returns the team roster.
func (c *Client) FetchCharacters(ctx context.Context) ([]types.Character, error) {
	var characters []types.Character
	if err := c.getJSON(ctx, "/v1/characters", &characters); err != nil {
		return nil, err
	}
	return characters, nil
}

// FetchWishlists returns wishlist metadata for every character. The body is
// validated against the embedded schema before decoding.
func (c *Client) FetchWishlists(ctx context.Context) (*Wishlists, error) {
	endpoint := c.baseURL + "/v1/wishlists"
	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if err := schemas.ValidateWishlists(body); err != nil {
		return nil, &Error{URL: endpoint, Message: "unexpected wishlists payload", Cause: err}
	}
	var wishlists Wishlists
	if err := json.Unmarshal(body, &wishlists); err != nil {
		return nil, &Error{URL: endpoint, Message: "failed to decode response", Cause: err}
	}
	return &wishlists, nil
}

type submitRequest struct {
	ReportID           string `json:"report_id"`
	CharacterID        int    `json:"character_id"`
	CharacterName      string `json:"character_name"`
	ConfigurationName  string `json:"configuration_name"`
	ReplaceManualEdits bool   `json:"replace_manual_edits"`
	ClearConduits      bool   `json:"clear_conduits"`
}

// SubmitWishlist uploads a finished Droptimizer report for a character.
func (c *Client) SubmitWishlist(ctx context.Context, character types.Character, jobID string) error {
	payload, err := json.Marshal(submitRequest{
		ReportID:           jobID,
		CharacterID:        character.ID,
		CharacterName:      character.Name,
		ConfigurationName:  c.configurationName,
		ReplaceManualEdits: true,
		ClearConduits:      true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal wishlist upload: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, c.baseURL+"/v1/wishlists", payload)
	return err
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	endpoint := c.baseURL + path
	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{URL: endpoint, Message: "failed to decode response", Cause: err}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, &Error{URL: endpoint, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{URL: endpoint, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: endpoint, Message: "failed to read response body", StatusCode: resp.StatusCode, Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, &Error{URL: endpoint, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode), StatusCode: resp.StatusCode}
	}
	return body, nil
}
