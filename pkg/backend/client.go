// Package backend fetches candidate data from the autoapply service.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/entrhq/autoapply/pkg/autofill"
	"github.com/entrhq/autoapply/pkg/logging"
	"github.com/entrhq/autoapply/pkg/profile"
	"github.com/entrhq/autoapply/pkg/resume"
)

const (
	defaultTimeout   = 30 * time.Second
	retryCount       = 2
	retryWait        = 500 * time.Millisecond
	retryMaxWait     = 2 * time.Second
	profileEndpoint  = "/v1/profile"
	resumeEndpoint   = "/v1/resume"
	fallbackFilename = "resume.pdf"
)

// Client talks to the candidate data service. The bearer token is held
// by the underlying transport and never appears in logs.
type Client struct {
	http *resty.Client
	log  *logging.Logger
}

// New creates a client for the given base URL and bearer token. The
// logger may be nil.
func New(baseURL, token string, log *logging.Logger) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token).
		SetTimeout(defaultTimeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(retryWait).
		SetRetryMaxWaitTime(retryMaxWait).
		AddRetryCondition(func(r *resty.Response, _ error) bool {
			return r != nil && r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{http: c, log: log}
}

// FetchProfile retrieves the candidate profile. Missing or inaccessible
// data maps to ErrUpstreamDataMissing so the engine refuses to start.
func (c *Client) FetchProfile(ctx context.Context) (*profile.Profile, error) {
	resp, err := c.http.R().SetContext(ctx).Get(profileEndpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	if err := classifyStatus(resp); err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("fetch profile: empty payload: %w", autofill.ErrUpstreamDataMissing)
	}
	var p profile.Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	if c.log != nil {
		c.log.Debugf("fetched profile from %s (%d bytes)", profileEndpoint, len(body))
	}
	return &p, nil
}

// FetchResume retrieves the stored resume file. The filename comes from
// Content-Disposition when the service provides one.
func (c *Client) FetchResume(ctx context.Context) (*resume.File, error) {
	resp, err := c.http.R().SetContext(ctx).Get(resumeEndpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch resume: %w", err)
	}
	if err := classifyStatus(resp); err != nil {
		return nil, fmt.Errorf("fetch resume: %w", err)
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("fetch resume: empty payload: %w", autofill.ErrUpstreamDataMissing)
	}

	f := &resume.File{
		Name: filenameFrom(resp.Header().Get("Content-Disposition")),
		MIME: mediaType(resp.Header().Get("Content-Type")),
		Data: body,
	}
	if c.log != nil {
		c.log.Debugf("fetched resume %q (%d bytes)", f.Name, len(f.Data))
	}
	return f, nil
}

// FetchPage retrieves raw page HTML from an absolute URL, outside the
// service base. Used by dry runs and posting metadata extraction.
func (c *Client) FetchPage(ctx context.Context, url string) (string, error) {
	resp, err := resty.NewWithClient(c.http.GetClient()).R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("fetch page %q: status %d", url, resp.StatusCode())
	}
	return resp.String(), nil
}

// classifyStatus maps auth failures and absent records to the engine's
// upstream-data sentinel; other non-2xx statuses are plain errors.
func classifyStatus(resp *resty.Response) error {
	switch resp.StatusCode() {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return fmt.Errorf("status %d: %w", resp.StatusCode(), autofill.ErrUpstreamDataMissing)
	default:
		return fmt.Errorf("unexpected status %d", resp.StatusCode())
	}
}

func filenameFrom(disposition string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := params["filename"]; name != "" {
				return name
			}
		}
	}
	return fallbackFilename
}

func mediaType(contentType string) string {
	if contentType == "" {
		return "application/octet-stream"
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	return contentType
}
