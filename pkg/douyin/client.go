package douyin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	errs "dyfetch/pkg/errors"
	"dyfetch/pkg/logger"
	"dyfetch/pkg/ratelimit"
)

// Client talks to the share-page API. The platform serves the expected
// JSON payloads only to mobile browsers, so every request goes out with a
// fixed mobile Safari header set.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	baseURL    string
	headers    map[string]string
	limiter    ratelimit.Limiter
	logger     logger.Logger
	pageSize   int
}

// NewClient creates a client for the share-page API. The timeout bounds
// connection setup, the wait for response headers and, for the JSON
// endpoints, the whole call. It deliberately does not bound a video body
// read: a large download may outlive it many times over. limiter may be
// nil to disable pacing (tests do this); a nil log falls back to the
// global logger.
func NewClient(timeout time.Duration, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
			},
		},
		timeout: timeout,
		baseURL: BaseURL,
		headers: map[string]string{
			"User-Agent":      "Mozilla/5.0 (iPhone; CPU iPhone OS 13_2_3 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/13.0.3 Mobile/15E148 Safari/604.1",
			"Accept":          "application/json, text/plain, */*",
			"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
			"Referer":         BaseURL + "/",
		},
		limiter:  limiter,
		logger:   log,
		pageSize: DefaultPageSize,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHeaders sets multiple headers at once
func (c *Client) SetHeaders(headers map[string]string) {
	for key, value := range headers {
		c.headers[key] = value
	}
}

// SetBaseURL points the catalog calls at a different host. The share-page
// API has moved hosts before; tests also use this to stand in a local
// server.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = strings.TrimRight(base, "/")
}

// SetPageSize sets how many items each catalog page requests. Out-of-range
// values are clamped to what the API honors.
func (c *Client) SetPageSize(n int) {
	if n <= 0 {
		n = DefaultPageSize
	} else if n > MaxPageSize {
		n = MaxPageSize
	}
	c.pageSize = n
}

// doRequest waits for the rate limiter, applies the fixed headers and
// performs the request.
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, errs.New(errs.ErrorTypeCanceled, "canceled while waiting for rate limiter", 0)
		}
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		// Only operator cancellation maps to the canceled type. A request
		// deadline running out is transport trouble and stays retryable.
		if errors.Is(req.Context().Err(), context.Canceled) {
			return nil, errs.New(errs.ErrorTypeCanceled, "request canceled", 0)
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Newf(errs.ErrorTypeNetwork, 0, "network error: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// Get performs a GET request to the specified URL. The caller owns any
// deadline: the request runs until ctx says otherwise.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.Newf(errs.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	return c.doRequest(req)
}

// requestCtx bounds one API call as a whole. The streaming path must not
// use it: the deadline would cut the body read mid-transfer.
func (c *Client) requestCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// GetJSON performs a GET request and decodes the JSON response. The whole
// call, body read included, is bounded by the client timeout.
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	ctx, cancel := c.requestCtx(ctx)
	defer cancel()

	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return errs.New(errs.ErrorTypeCanceled, "request canceled", 0)
		}
		return errs.Newf(errs.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		// Keep a preview of what the server actually sent for debugging
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errs.Newf(errs.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
	}

	return nil
}

// checkResponseStatus maps HTTP statuses onto the error taxonomy
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errs.New(errs.ErrorTypeNotFound, "resource not found", resp.StatusCode)
	case http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errs.New(errs.ErrorTypeRateLimit, "rate limit exceeded", resp.StatusCode)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		c.logger.ErrorWithFields("server error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errs.New(errs.ErrorTypeServerError, "server error", resp.StatusCode)
	default:
		if resp.StatusCode >= 400 {
			c.logger.ErrorWithFields("unexpected API error", map[string]interface{}{
				"status": resp.StatusCode,
				"url":    resp.Request.URL.String(),
			})
			return errs.Newf(errs.ErrorTypeUnknown, resp.StatusCode, "unexpected status code: %d", resp.StatusCode)
		}
		return nil
	}
}

// ResolveShareLink follows a shared profile link through its redirect chain
// and extracts the creator ID from the final URL. It returns the ID and the
// URL the chain landed on.
func (c *Client) ResolveShareLink(ctx context.Context, link string) (string, string, error) {
	if !IsValidLink(link) {
		return "", "", errs.Newf(errs.ErrorTypeResolve, 0, "not a usable profile link: %q", link)
	}

	// The whole redirect chain shares one deadline.
	ctx, cancel := c.requestCtx(ctx)
	defer cancel()

	c.logger.DebugWithFields("resolving share link", map[string]interface{}{
		"link": link,
	})

	resp, err := c.Get(ctx, link)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return "", "", err
	}

	// The redirect chain was followed by the HTTP client; the request URL
	// is wherever it ended up.
	finalURL := resp.Request.URL.String()
	secUID, err := ExtractSecUID(finalURL)
	if err != nil {
		c.logger.WarnWithFields("share link did not resolve to a profile", map[string]interface{}{
			"link":      link,
			"final_url": finalURL,
		})
		return "", "", err
	}

	c.logger.DebugWithFields("share link resolved", map[string]interface{}{
		"link":    link,
		"sec_uid": secUID,
	})

	return secUID, finalURL, nil
}

// FetchCatalogPage fetches one page of a creator's posted videos. cursor 0
// is the newest page; pass the previous page's MaxCursor to continue.
func (c *Client) FetchCatalogPage(ctx context.Context, secUID string, cursor int64) (*CatalogPage, error) {
	url := catalogURL(c.baseURL, secUID, cursor, c.pageSize)

	c.logger.DebugWithFields("fetching catalog page", map[string]interface{}{
		"sec_uid": secUID,
		"cursor":  cursor,
		"url":     url,
	})

	var page CatalogPage
	if err := c.GetJSON(ctx, url, &page); err != nil {
		c.logger.ErrorWithFields("failed to fetch catalog page", map[string]interface{}{
			"sec_uid": secUID,
			"cursor":  cursor,
			"error":   err.Error(),
		})
		return nil, err
	}

	if page.StatusCode != 0 {
		c.logger.WarnWithFields("catalog API rejected the request", map[string]interface{}{
			"sec_uid":     secUID,
			"cursor":      cursor,
			"status_code": page.StatusCode,
		})
		return nil, errs.Newf(errs.ErrorTypeServerError, page.StatusCode, "catalog API returned status_code %d", page.StatusCode)
	}

	c.logger.DebugWithFields("fetched catalog page", map[string]interface{}{
		"sec_uid":  secUID,
		"cursor":   cursor,
		"items":    len(page.AwemeList),
		"has_more": page.HasMore,
	})

	return &page, nil
}

// OpenVideoStream starts downloading a video and hands the body back for
// streaming. The second return is the Content-Length, -1 when the server
// did not say. The caller owns closing the stream.
//
// The client timeout bounds only reaching the response here; reading the
// body runs as long as the transfer takes and is stopped by ctx alone.
func (c *Client) OpenVideoStream(ctx context.Context, videoURL string) (io.ReadCloser, int64, error) {
	c.logger.DebugWithFields("opening video stream", map[string]interface{}{
		"url": videoURL,
	})

	resp, err := c.Get(ctx, videoURL)
	if err != nil {
		return nil, 0, err
	}

	if err := c.checkResponseStatus(resp); err != nil {
		resp.Body.Close()
		return nil, 0, err
	}

	return resp.Body, resp.ContentLength, nil
}
