// Package http provides a Confluence REST implementation of
// confpub.PageService.
package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/confpub"
)

// DefaultTimeout is the default timeout for a single REST request.
const DefaultTimeout = 30 * time.Second

// contentPath is the REST resource for pages, relative to the site URL.
const contentPath = "/wiki/rest/api/content/"

// Ensure Client implements confpub.PageService at compile time.
var _ confpub.PageService = (*Client)(nil)

// Client talks to the Confluence content REST API using HTTP Basic auth.
type Client struct {
	client   *http.Client
	baseURL  string
	auth     string
	timeout  time.Duration
	insecure bool
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the timeout for each request. Zero disables it.
// Defaults to DefaultTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
// This exposes credentials to any interceptor on the network path.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Client) {
		c.insecure = skip
	}
}

// NewClient creates a Client for the site at baseURL, e.g.
// https://example.atlassian.net.
func NewClient(baseURL, username, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    base64.StdEncoding.EncodeToString([]byte(username + ":" + apiKey)),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if c.insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in
	}
	c.client = &http.Client{
		Timeout:   c.timeout,
		Transport: transport,
	}

	return c
}

// pageJSON is the wire form of a page, shared by reads and writes.
type pageJSON struct {
	ID      string       `json:"id"`
	Type    string       `json:"type"`
	Title   string       `json:"title"`
	Space   *spaceJSON   `json:"space,omitempty"`
	Body    *bodyJSON    `json:"body,omitempty"`
	Version *versionJSON `json:"version,omitempty"`
}

type spaceJSON struct {
	Key string `json:"key"`
}

type bodyJSON struct {
	Storage storageJSON `json:"storage"`
}

type storageJSON struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type versionJSON struct {
	Number int `json:"number"`
}

// FindPage retrieves the page's title and current version number.
func (c *Client) FindPage(ctx context.Context, contentID string, opts confpub.FindPageOptions) (*confpub.Page, error) {
	u := c.contentURL(contentID)
	if opts.IncludeBody {
		u += "?expand=" + url.QueryEscape("body.storage,version")
	}

	resp, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch page %s: %w", contentID, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, statusError("fetch page "+contentID, resp)
	}

	var raw pageJSON
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode page %s: %w", contentID, err)
	}
	if raw.Version == nil || raw.Version.Number < 1 {
		return nil, confpub.Errorf(confpub.EINTERNAL, "page %s: response has no version number", contentID)
	}

	page := &confpub.Page{
		ID:      raw.ID,
		Title:   raw.Title,
		Version: raw.Version.Number,
	}
	if raw.Body != nil {
		page.Body = raw.Body.Storage.Value
	}
	return page, nil
}

// UpdatePage writes req as a new version of the page.
func (c *Client) UpdatePage(ctx context.Context, req *confpub.UpdateRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	raw := pageJSON{
		ID:    req.ContentID,
		Type:  "page",
		Title: req.Title,
		Space: &spaceJSON{Key: req.SpaceKey},
		Body: &bodyJSON{Storage: storageJSON{
			Value:          req.Body,
			Representation: "storage",
		}},
		Version: &versionJSON{Number: req.Version},
	}

	payload, err := json.Marshal(&raw)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPut, c.contentURL(req.ContentID), payload)
	if err != nil {
		return fmt.Errorf("update page %s: %w", req.ContentID, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return statusError("update page "+req.ContentID, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// DeleteVersion removes one historical version of the page.
func (c *Client) DeleteVersion(ctx context.Context, contentID string, version int) error {
	u := c.contentURL(contentID) + "/version/" + strconv.Itoa(version)

	resp, err := c.do(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return fmt.Errorf("delete version %d of page %s: %w", version, contentID, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return statusError(fmt.Sprintf("delete version %d of page %s", version, contentID), resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) contentURL(contentID string) string {
	return c.baseURL + contentPath + url.PathEscape(contentID)
}

func (c *Client) do(ctx context.Context, method, u string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Basic "+c.auth)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.client.Do(req)
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// statusError converts a failed response into an application error carrying
// the status code, reason phrase, and the server's message when present.
func statusError(op string, resp *http.Response) error {
	msg := fmt.Sprintf("%s: %s", op, statusLine(resp))

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil && body.Message != "" {
		msg += ": " + body.Message
	}

	return confpub.Errorf(codeForStatus(resp.StatusCode), "%s", msg)
}

// statusLine returns "404 Not Found" style text even when the server sent
// no reason phrase.
func statusLine(resp *http.Response) string {
	if resp.Status != "" && resp.Status != strconv.Itoa(resp.StatusCode) {
		return resp.Status
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

func codeForStatus(code int) string {
	switch code {
	case http.StatusBadRequest:
		return confpub.EINVALID
	case http.StatusUnauthorized, http.StatusForbidden:
		return confpub.EUNAUTHORIZED
	case http.StatusNotFound:
		return confpub.ENOTFOUND
	case http.StatusConflict:
		return confpub.ECONFLICT
	default:
		return confpub.EINTERNAL
	}
}
