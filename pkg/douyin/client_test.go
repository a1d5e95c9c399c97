package douyin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	errs "dyfetch/pkg/errors"
	"dyfetch/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

// Helper function to create a mock HTTP client
func newMockHTTPClient(handler func(req *http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{
		Transport: &mockRoundTripper{handler: handler},
		Timeout:   10 * time.Second,
	}
}

// Helper function to create a response. The request is attached because the
// status mapping reads resp.Request.URL, exactly like responses built by the
// real transport.
func newResponse(req *http.Request, statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
		Request:    req,
	}
}

// countingLimiter records how often the client waited on it
type countingLimiter struct {
	waits int32
}

func (c *countingLimiter) Allow() bool { return true }
func (c *countingLimiter) Wait(ctx context.Context) error {
	atomic.AddInt32(&c.waits, 1)
	return ctx.Err()
}
func (c *countingLimiter) Reset() {}

func TestNewClient(t *testing.T) {
	log := logger.NewTestLogger()
	client := NewClient(10*time.Second, nil, log)

	require.NotNil(t, client)
	require.NotNil(t, client.httpClient)
	assert.Equal(t, DefaultPageSize, client.pageSize)

	// The timeout bounds connection setup and the header wait, never the
	// whole body read: a video transfer may legitimately outlive it.
	assert.Zero(t, client.httpClient.Timeout)
	transport, ok := client.httpClient.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, transport.ResponseHeaderTimeout)
	assert.Equal(t, 10*time.Second, transport.TLSHandshakeTimeout)

	// The API only answers mobile browsers.
	assert.Contains(t, client.headers["User-Agent"], "iPhone")
}

func TestSetPageSize(t *testing.T) {
	client := NewClient(10*time.Second, nil, logger.NewTestLogger())

	client.SetPageSize(10)
	assert.Equal(t, 10, client.pageSize)

	client.SetPageSize(0)
	assert.Equal(t, DefaultPageSize, client.pageSize)

	client.SetPageSize(MaxPageSize + 1)
	assert.Equal(t, MaxPageSize, client.pageSize)
}

func TestFetchCatalogPage(t *testing.T) {
	log := logger.NewTestLogger()
	client := NewClient(10*time.Second, nil, log)

	var gotReq *http.Request
	client.httpClient = newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		gotReq = req
		page := CatalogPage{
			StatusCode: 0,
			MaxCursor:  1700000000000,
			HasMore:    true,
			AwemeList: []Aweme{
				{
					AwemeID:    "7001",
					Desc:       "first clip",
					CreateTime: 1690000000,
					Author:     Author{Nickname: "creator", SecUID: "SEC123"},
					Video: Video{PlayAddr: PlayAddr{
						URLList: []string{"https://cdn.example.com/v/7001"},
					}},
				},
			},
		}
		body, _ := json.Marshal(page)
		return newResponse(req, http.StatusOK, string(body)), nil
	})

	page, err := client.FetchCatalogPage(context.Background(), "SEC123", 0)
	require.NoError(t, err)
	require.NotNil(t, page)

	assert.Len(t, page.AwemeList, 1)
	assert.Equal(t, "first clip", page.AwemeList[0].Desc)
	assert.Equal(t, "https://cdn.example.com/v/7001", page.AwemeList[0].PlayURL())
	assert.Equal(t, int64(1700000000000), page.MaxCursor)
	assert.True(t, page.HasMore)

	// Request shape: endpoint, pagination params and the mobile UA.
	require.NotNil(t, gotReq)
	assert.Equal(t, CatalogEndpoint, gotReq.URL.Path)
	query := gotReq.URL.Query()
	assert.Equal(t, "SEC123", query.Get(SecUIDParam))
	assert.Equal(t, "21", query.Get("count"))
	assert.Equal(t, "0", query.Get("max_cursor"))
	assert.Contains(t, gotReq.Header.Get("User-Agent"), "iPhone")
}

func TestFetchCatalogPageCursorPropagation(t *testing.T) {
	client := NewClient(10*time.Second, nil, logger.NewTestLogger())
	client.SetPageSize(5)

	client.httpClient = newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		query := req.URL.Query()
		assert.Equal(t, "5", query.Get("count"))
		assert.Equal(t, "1699999999999", query.Get("max_cursor"))
		return newResponse(req, http.StatusOK, `{"status_code":0,"aweme_list":[],"max_cursor":0,"has_more":false}`), nil
	})

	_, err := client.FetchCatalogPage(context.Background(), "SEC123", 1699999999999)
	require.NoError(t, err)
}

func TestFetchCatalogPageBodyStatusCode(t *testing.T) {
	client := NewClient(10*time.Second, nil, logger.NewTestLogger())
	client.httpClient = newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return newResponse(req, http.StatusOK, `{"status_code":2154,"aweme_list":[]}`), nil
	})

	_, err := client.FetchCatalogPage(context.Background(), "SEC123", 0)
	require.Error(t, err)

	var derr *errs.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, errs.ErrorTypeServerError, derr.Type)
	assert.Equal(t, 2154, derr.Code)
}

func TestFetchCatalogPageHTTPErrors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantType   errs.ErrorType
	}{
		{"not found", http.StatusNotFound, errs.ErrorTypeNotFound},
		{"rate limited", http.StatusTooManyRequests, errs.ErrorTypeRateLimit},
		{"server error", http.StatusInternalServerError, errs.ErrorTypeServerError},
		{"bad gateway", http.StatusBadGateway, errs.ErrorTypeServerError},
		{"teapot", http.StatusTeapot, errs.ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(10*time.Second, nil, logger.NewTestLogger())
			client.httpClient = newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
				return newResponse(req, tt.statusCode, ""), nil
			})

			_, err := client.FetchCatalogPage(context.Background(), "SEC123", 0)
			require.Error(t, err)

			var derr *errs.Error
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.wantType, derr.Type)
			assert.Equal(t, tt.statusCode, derr.Code)
		})
	}
}

func TestFetchCatalogPageParseError(t *testing.T) {
	log := logger.NewTestLogger()
	client := NewClient(10*time.Second, nil, log)
	client.httpClient = newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return newResponse(req, http.StatusOK, "<html>definitely not json</html>"), nil
	})

	_, err := client.FetchCatalogPage(context.Background(), "SEC123", 0)
	require.Error(t, err)

	var derr *errs.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, errs.ErrorTypeParsing, derr.Type)

	// The body preview makes these failures debuggable.
	assert.True(t, log.HasMessage("failed to parse JSON response"))
}

func TestResolveShareLink(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/AbCdEf/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/share/user/12345?sec_uid=MS4wLjABAAAAtest", http.StatusFound)
	})
	mux.HandleFunc("/share/user/12345", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "<html>profile page</html>")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(10*time.Second, nil, logger.NewTestLogger())

	secUID, finalURL, err := client.ResolveShareLink(context.Background(), server.URL+"/AbCdEf/")
	require.NoError(t, err)
	assert.Equal(t, "MS4wLjABAAAAtest", secUID)
	assert.Contains(t, finalURL, "sec_uid=MS4wLjABAAAAtest")
}

func TestResolveShareLinkWithoutSecUID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(10*time.Second, nil, logger.NewTestLogger())

	_, _, err := client.ResolveShareLink(context.Background(), server.URL+"/nowhere")
	require.Error(t, err)

	var derr *errs.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, errs.ErrorTypeResolve, derr.Type)
}

func TestResolveShareLinkRejectsMalformedLinks(t *testing.T) {
	client := NewClient(10*time.Second, nil, logger.NewTestLogger())

	for _, link := range []string{"", "not a link", "ftp://v.douyin.com/x/", "v.douyin.com/x"} {
		_, _, err := client.ResolveShareLink(context.Background(), link)
		require.Error(t, err, "link %q should be rejected", link)

		var derr *errs.Error
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, errs.ErrorTypeResolve, derr.Type)
	}
}

func TestResolveShareLinkGoneProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(10*time.Second, nil, logger.NewTestLogger())

	_, _, err := client.ResolveShareLink(context.Background(), server.URL+"/dead/")
	require.Error(t, err)

	var derr *errs.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, errs.ErrorTypeNotFound, derr.Type)
}

func TestOpenVideoStream(t *testing.T) {
	payload := bytes.Repeat([]byte("video-bytes/"), 100)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.WriteHeader(http.StatusOK)
		w.Write(payload)
	}))
	defer server.Close()

	client := NewClient(10*time.Second, nil, logger.NewTestLogger())

	stream, length, err := client.OpenVideoStream(context.Background(), server.URL+"/v/7001")
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, int64(len(payload)), length)

	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestOpenVideoStreamOutlivesRequestTimeout(t *testing.T) {
	// The body arrives in chunks spread over roughly twice the request
	// timeout. Only obtaining the response is bounded; the read is not.
	chunk := bytes.Repeat([]byte("v"), 1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.WriteHeader(http.StatusOK)
		for i := 0; i < 3; i++ {
			w.Write(chunk)
			w.(http.Flusher).Flush()
			time.Sleep(100 * time.Millisecond)
		}
	}))
	defer server.Close()

	client := NewClient(150*time.Millisecond, nil, logger.NewTestLogger())

	stream, _, err := client.OpenVideoStream(context.Background(), server.URL+"/v/7001")
	require.NoError(t, err)
	defer stream.Close()

	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Len(t, data, 3*len(chunk))
}

func TestStalledCatalogResponseIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release // hold the response headers past the request timeout
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(100*time.Millisecond, nil, logger.NewTestLogger())
	client.SetBaseURL(server.URL)

	_, err := client.FetchCatalogPage(context.Background(), "SEC123", 0)
	require.Error(t, err)

	// A stalled request is transport trouble and stays retryable; only
	// operator cancellation maps to the canceled type.
	var derr *errs.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, errs.ErrorTypeNetwork, derr.Type)
}

func TestStalledCatalogBodyIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status_code":0,"aweme_list":[`)
		w.(http.Flusher).Flush()
		<-release // never finish the JSON document
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(100*time.Millisecond, nil, logger.NewTestLogger())
	client.SetBaseURL(server.URL)

	_, err := client.FetchCatalogPage(context.Background(), "SEC123", 0)
	require.Error(t, err)

	var derr *errs.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, errs.ErrorTypeNetwork, derr.Type)
}

func TestOpenVideoStreamServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(10*time.Second, nil, logger.NewTestLogger())

	_, _, err := client.OpenVideoStream(context.Background(), server.URL+"/v/7001")
	require.Error(t, err)

	var derr *errs.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, errs.ErrorTypeServerError, derr.Type)
}

func TestClientWaitsOnRateLimiter(t *testing.T) {
	limiter := &countingLimiter{}
	client := NewClient(10*time.Second, limiter, logger.NewTestLogger())
	client.httpClient = newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return newResponse(req, http.StatusOK, `{"status_code":0,"aweme_list":[],"max_cursor":0,"has_more":false}`), nil
	})

	_, err := client.FetchCatalogPage(context.Background(), "SEC123", 0)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&limiter.waits))
}

func TestCanceledContextMapsToCanceledError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(10*time.Second, nil, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, server.URL)
	require.Error(t, err)

	var derr *errs.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, errs.ErrorTypeCanceled, derr.Type)
}
