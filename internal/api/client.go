// Package api consumes the remote property endpoint. The endpoint is a
// single URL dispatching on an action parameter; every property-bearing
// response is a JSON array of loosely-typed records that the property
// package normalizes on decode.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/uptwnp/deal-network-sub001/internal/filter"
	"github.com/uptwnp/deal-network-sub001/internal/property"
)

const (
	ActionGetUserProperties   = "get_user_properties"
	ActionGetPublicProperties = "get_public_properties"
	ActionGetAllProperties    = "get_all_properties"
	ActionGetProperty         = "get_property"
	ActionAddProperty         = "add_property"
	ActionUpdateProperty      = "update_property"
	ActionDeleteProperty      = "delete_property"
	ActionFilterProperties    = "filter_properties"
	ActionSearchProperties    = "search_properties"
)

const defaultRequestTimeout = 15 * time.Second

var (
	errMissingBaseURL = errors.New("api: base url is required")
	noOpLogger        = zap.NewNop()
)

// Error carries the failing action and reason alongside the cause.
type Error struct {
	Action     string
	Reason     string
	StatusCode int
	err        error
}

func (e *Error) Error() string {
	code := fmt.Sprintf("api.%s.%s", e.Action, e.Reason)
	if e.err == nil {
		return code
	}
	return fmt.Sprintf("%s: %v", code, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

func newError(action, reason string, statusCode int, cause error) error {
	return &Error{Action: action, Reason: reason, StatusCode: statusCode, err: cause}
}

// IsNotFound reports whether the error is a missing-record response.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Reason == "not_found"
}

// RequestEditorFn mutates an outgoing request before it is sent.
type RequestEditorFn func(ctx context.Context, req *http.Request) error

// Config configures the remote client.
type Config struct {
	BaseURL        string
	SessionToken   string
	HTTPClient     *http.Client
	Logger         *zap.Logger
	RequestEditors []RequestEditorFn
}

// Client talks to the remote property endpoint. It performs no retries
// and no caching; failures are reported once to the caller.
type Client struct {
	baseURL      string
	sessionToken string
	httpClient   *http.Client
	logger       *zap.Logger
	editors      []RequestEditorFn
}

// NewClient validates the configuration and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errMissingBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("api: malformed base url: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Client{
		baseURL:      baseURL,
		sessionToken: cfg.SessionToken,
		httpClient:   httpClient,
		logger:       logger,
		editors:      cfg.RequestEditors,
	}, nil
}

// envelope is the common response wrapper. Older deployments report
// success as 1/"1", newer ones as a bool; both are accepted.
type envelope struct {
	Success json.RawMessage `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	ID      json.RawMessage `json:"id"`
}

func (e envelope) succeeded() bool {
	raw := strings.TrimSpace(string(e.Success))
	switch raw {
	case "", "false", "0", `"0"`, "null":
		return false
	}
	return true
}

// GetUserProperties fetches the acting dealer's own records.
func (c *Client) GetUserProperties(ctx context.Context) ([]property.Property, error) {
	return c.fetchList(ctx, ActionGetUserProperties, url.Values{})
}

// GetPublicProperties fetches records other dealers share publicly.
func (c *Client) GetPublicProperties(ctx context.Context) ([]property.Property, error) {
	return c.fetchList(ctx, ActionGetPublicProperties, url.Values{})
}

// GetAllProperties fetches the union list in one round trip.
func (c *Client) GetAllProperties(ctx context.Context) ([]property.Property, error) {
	return c.fetchList(ctx, ActionGetAllProperties, url.Values{})
}

// GetProperty fetches a single record by its numeric id.
func (c *Client) GetProperty(ctx context.Context, id int64) (property.Property, error) {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(id, 10))
	records, err := c.fetchList(ctx, ActionGetProperty, params)
	if err != nil {
		return property.Property{}, err
	}
	if len(records) == 0 {
		return property.Property{}, newError(ActionGetProperty, "not_found", http.StatusOK, nil)
	}
	return records[0], nil
}

// SearchProperties runs a free-text search over the given column,
// scoped by the resolved list parameter ("mine", "public" or "both").
func (c *Client) SearchProperties(ctx context.Context, query, column, listParam string) ([]property.Property, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("column", column)
	params.Set("list", listParam)
	return c.fetchList(ctx, ActionSearchProperties, params)
}

// FilterProperties asks the server to apply the predicate. The server
// mirrors the filter package's matching semantics.
func (c *Client) FilterProperties(ctx context.Context, predicate filter.Predicate, listParam string) ([]property.Property, error) {
	params := url.Values{}
	params.Set("list", listParam)
	encodePredicate(params, predicate)
	return c.fetchList(ctx, ActionFilterProperties, params)
}

// AddProperty creates a record and returns the server-assigned id.
func (c *Client) AddProperty(ctx context.Context, record property.Property) (int64, error) {
	params := url.Values{}
	encodeRecord(params, record)
	env, err := c.do(ctx, ActionAddProperty, params)
	if err != nil {
		return 0, err
	}
	var id looseID
	if len(env.ID) > 0 {
		if err := json.Unmarshal(env.ID, &id); err != nil {
			return 0, newError(ActionAddProperty, "malformed_id", http.StatusOK, err)
		}
	}
	if id <= 0 {
		return 0, newError(ActionAddProperty, "missing_id", http.StatusOK, nil)
	}
	return int64(id), nil
}

// UpdateProperty applies a partial update; only the provided fields
// change on the server.
func (c *Client) UpdateProperty(ctx context.Context, id int64, fields map[string]string) error {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(id, 10))
	for key, value := range fields {
		params.Set(key, value)
	}
	_, err := c.do(ctx, ActionUpdateProperty, params)
	return err
}

// DeleteProperty removes a record.
func (c *Client) DeleteProperty(ctx context.Context, id int64) error {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(id, 10))
	_, err := c.do(ctx, ActionDeleteProperty, params)
	return err
}

func (c *Client) fetchList(ctx context.Context, action string, params url.Values) ([]property.Property, error) {
	env, err := c.do(ctx, action, params)
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 {
		return []property.Property{}, nil
	}
	var records []property.Property
	if err := json.Unmarshal(env.Data, &records); err != nil {
		return nil, newError(action, "malformed_payload", http.StatusOK, err)
	}
	return records, nil
}

func (c *Client) do(ctx context.Context, action string, params url.Values) (envelope, error) {
	params.Set("action", action)
	if c.sessionToken != "" {
		params.Set("token", c.sessionToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(params.Encode()))
	if err != nil {
		return envelope{}, newError(action, "build_request_failed", 0, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.sessionToken)
	}
	for _, edit := range c.editors {
		if err := edit(ctx, req); err != nil {
			return envelope{}, newError(action, "request_editor_failed", 0, err)
		}
	}

	rsp, err := c.httpClient.Do(req)
	if err != nil {
		c.logError(action, "transport_failed", err)
		return envelope{}, newError(action, "transport_failed", 0, err)
	}
	defer rsp.Body.Close()

	body, err := io.ReadAll(rsp.Body)
	if err != nil {
		c.logError(action, "read_body_failed", err)
		return envelope{}, newError(action, "read_body_failed", rsp.StatusCode, err)
	}
	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		c.logError(action, "http_status", fmt.Errorf("status %d", rsp.StatusCode))
		return envelope{}, newError(action, "http_status", rsp.StatusCode, fmt.Errorf("status %d: %s", rsp.StatusCode, strings.TrimSpace(string(body))))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.logError(action, "malformed_envelope", err)
		return envelope{}, newError(action, "malformed_envelope", rsp.StatusCode, err)
	}
	if !env.succeeded() {
		cause := errors.New(env.Message)
		if env.Message == "" {
			cause = errors.New("server reported failure")
		}
		c.logError(action, "server_failure", cause)
		return envelope{}, newError(action, "server_failure", rsp.StatusCode, cause)
	}
	return env, nil
}

func (c *Client) logError(action, reason string, err error) {
	c.logger.Error("remote api error",
		zap.String("action", action),
		zap.String("reason", reason),
		zap.Error(err))
}

type looseID int64

func (i *looseID) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*i = 0
		return nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return err
	}
	*i = looseID(value)
	return nil
}

func encodePredicate(params url.Values, predicate filter.Predicate) {
	setIfPresent := func(key, value string) {
		if strings.TrimSpace(value) != "" {
			params.Set(key, value)
		}
	}
	setIfPresent("city", predicate.City)
	setIfPresent("area", predicate.Area)
	setIfPresent("type", predicate.Type)
	setIfPresent("description", predicate.Description)
	setIfPresent("note", predicate.Note)
	setIfPresent("location", predicate.Location)
	setIfPresent("tag", predicate.TagTerm)
	setIfPresent("highlight", predicate.HighlightTerm)
	if predicate.MinPrice != nil {
		params.Set("min_price", strconv.FormatFloat(*predicate.MinPrice, 'f', -1, 64))
	}
	if predicate.MaxPrice != nil {
		params.Set("max_price", strconv.FormatFloat(*predicate.MaxPrice, 'f', -1, 64))
	}
	if predicate.MinSize != nil {
		params.Set("min_size", strconv.FormatFloat(*predicate.MinSize, 'f', -1, 64))
	}
	if predicate.MaxSize != nil {
		params.Set("max_size", strconv.FormatFloat(*predicate.MaxSize, 'f', -1, 64))
	}
}

func encodeRecord(params url.Values, record property.Property) {
	params.Set("city", record.City)
	params.Set("area", record.Area)
	params.Set("location", record.Location)
	params.Set("landmark_location", record.LandmarkLocation)
	params.Set("type", record.Type)
	params.Set("size_min", strconv.FormatFloat(record.SizeMin, 'f', -1, 64))
	params.Set("size_max", strconv.FormatFloat(record.SizeMax, 'f', -1, 64))
	params.Set("size_unit", record.SizeUnit)
	params.Set("price_min", strconv.FormatFloat(record.PriceMin, 'f', -1, 64))
	params.Set("price_max", strconv.FormatFloat(record.PriceMax, 'f', -1, 64))
	params.Set("description", record.Description)
	params.Set("note", record.Note)
	params.Set("highlights", record.Highlights)
	params.Set("tags", record.Tags)
	if record.IsPublic {
		params.Set("is_public", "1")
	} else {
		params.Set("is_public", "0")
	}
	params.Set("contact_name", record.ContactName)
	params.Set("contact_phone", record.ContactPhone)
}
