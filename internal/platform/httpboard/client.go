// Package httpboard implements the platform adapter contract for job boards
// that expose a JSON API with bearer-token auth and paginated search.
// Site-specific browser automation stays out of the core; boards with an
// HTTP API work through this adapter directly.
package httpboard

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Kiranreddymk90/ai-job-application-agent/internal/job"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/platform"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/qa"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/secrets"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip, deflate, br"
	defaultAgent    = "job-agent (github.com/Kiranreddymk90/ai-job-application-agent)"

	// Max supported by most boards; fewer requests per search.
	defaultPerPage = 100

	mePath     = "/me"
	jobsPath   = "/jobs"
	logoutPath = "/logout"
)

type Client struct {
	id      string
	baseURL string
	creds   secrets.Store
	logger  *zap.Logger

	HTTPClient *http.Client
	UserAgent  string

	token    string
	loggedIn bool
}

var _ platform.Adapter = (*Client)(nil)

func New(id, baseURL string, creds secrets.Store, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		id:      id,
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		logger:  logger,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		UserAgent: defaultAgent,
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) IsLoggedIn() bool { return c.loggedIn }

// Login resolves the platform credential and probes it against the board.
// A rejected credential returns (false, nil); transport problems are
// transient errors. The logged-in flag is false on every failure path.
func (c *Client) Login(ctx context.Context) (bool, error) {
	c.loggedIn = false

	cred, err := c.creds.Get(c.id)
	if err != nil {
		return false, err
	}
	c.token = cred.Token

	resp, err := c.get(ctx, c.baseURL+mePath, nil)
	if err != nil {
		return false, platform.Transient("login probe", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		c.loggedIn = true
		return true, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.Debug("login rejected", zap.String("status", resp.Status))
		return false, nil
	case resp.StatusCode >= 500:
		return false, platform.Transient("login probe", fmt.Errorf("bad status: %s", resp.Status))
	default:
		return false, platform.Permanent("login probe", fmt.Errorf("bad status: %s", resp.Status))
	}
}

// GetJobDetails fetches the full posting including its application form.
// Returns (nil, nil) when the job is gone.
func (c *Client) GetJobDetails(ctx context.Context, externalID string) (*job.Posting, error) {
	resp, err := c.get(ctx, c.baseURL+jobsPath+"/"+url.PathEscape(externalID), nil)
	if err != nil {
		return nil, platform.Transient("get job details", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, nil
	}
	if err := c.checkStatus("get job details", resp); err != nil {
		return nil, err
	}

	body, err := decodeBody(resp)
	if err != nil {
		return nil, platform.Transient("get job details", err)
	}

	var item postingItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, platform.Permanent("get job details", fmt.Errorf("decode posting: %w", err))
	}

	return item.toPosting(c.id), nil
}

// SubmitApplication posts the answers as multipart form data. True means
// the board accepted the submission; an already-applied rejection returns
// (false, nil).
func (c *Client) SubmitApplication(ctx context.Context, posting *job.Posting, answers []qa.Answer) (bool, error) {
	data := make(map[string]string, len(answers))
	for _, answer := range answers {
		data[fmt.Sprintf("answer_%d", answer.QuestionOrdinal)] = answer.Text
	}

	target := c.baseURL + jobsPath + "/" + url.PathEscape(posting.ExternalID) + "/applications"

	resp, err := c.postFormData(ctx, target, data)
	if err != nil {
		return false, platform.Transient("submit application", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity:
		c.logger.Debug("submission rejected", zap.String("status", resp.Status))
		return false, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return false, platform.Transient("submit application", fmt.Errorf("bad status: %s", resp.Status))
	default:
		return false, platform.Permanent("submit application", fmt.Errorf("bad status: %s", resp.Status))
	}
}

// Logout invalidates the session server-side when the board supports it.
// The local session state is cleared regardless.
func (c *Client) Logout(ctx context.Context) (bool, error) {
	defer func() {
		c.loggedIn = false
		c.token = ""
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+logoutPath, nil)
	if err != nil {
		return false, err
	}
	c.setHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return false, platform.Transient("logout", err)
	}
	defer resp.Body.Close()

	return resp.StatusCode < 400, nil
}

func (c *Client) get(ctx context.Context, target string, q url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	c.logger.Debug("make request", zap.String("url", req.URL.String()))

	return c.HTTPClient.Do(req)
}

func (c *Client) postFormData(ctx context.Context, target string, data map[string]string) (*http.Response, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	for key, val := range data {
		field, err := w.CreateFormField(key)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(field, strings.NewReader(val)); err != nil {
			return nil, err
		}
	}
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &b)
	if err != nil {
		return nil, err
	}

	c.setHeaders(req)
	req.Header.Set("Content-Type", w.FormDataContentType())

	c.logger.Debug("make request", zap.String("url", req.URL.String()))

	return c.HTTPClient.Do(req)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)
}

func (c *Client) checkStatus(op string, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return platform.Transient(op, fmt.Errorf("bad status: %s", resp.Status))
	default:
		return platform.Permanent(op, fmt.Errorf("bad status: %s", resp.Status))
	}
}

func decodeBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}
