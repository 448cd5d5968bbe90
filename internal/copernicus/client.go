package copernicus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/Justclemax/Land-cover-Temporel-monthly-Sentinel-2/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrUnauthorized  = errors.New("unauthorized access, check your client ID and secret")
	ErrQuotaExceeded = errors.New("request quota exceeded")
	ErrUnavailable   = errors.New("service unavailable")
	ErrBadRequest    = errors.New("request rejected")
)

const maxErrorBodyLength = 512

// Client posts JSON requests to the Copernicus Data Space Sentinel Hub APIs.
// Each configured credential gets its own OAuth2 client; a request moves on to
// the next credential when the current one is rejected.
type Client struct {
	baseURL   string
	clients   []*http.Client
	retries   int
	retryWait time.Duration
}

func NewClient(ctx context.Context, cfg config.Copernicus) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := &http.Client{Timeout: cfg.Timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	clients := make([]*http.Client, 0, len(cfg.ClientIDs))
	for i, clientID := range cfg.ClientIDs {
		cc := &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: cfg.ClientSecrets[i],
			TokenURL:     cfg.TokenURL,
		}
		httpClient := cc.Client(ctx)
		httpClient.Timeout = cfg.Timeout
		clients = append(clients, httpClient)
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		clients:   clients,
		retries:   cfg.Retries,
		retryWait: cfg.RetryWait,
	}, nil
}

// PostJSON sends payload to path and returns the raw response body.
func (c *Client) PostJSON(ctx context.Context, path string, payload interface{}, accept string) ([]byte, error) {
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request payload")
	}
	url := c.baseURL + path

	var lastErr error
	for i, httpClient := range c.clients {
		body, err := c.postWithRetries(ctx, httpClient, url, requestBody, accept)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !errors.Is(err, ErrUnauthorized) {
			return nil, err
		}
		if i < len(c.clients)-1 {
			logrus.WithField("credential", i).Warn("credential rejected, trying the next one")
		}
	}
	return nil, lastErr
}

func (c *Client) postWithRetries(ctx context.Context, httpClient *http.Client, url string, requestBody []byte, accept string) ([]byte, error) {
	attempts := c.retries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		var body []byte
		body, err = c.post(ctx, httpClient, url, requestBody, accept)
		if err == nil {
			return body, nil
		}
		if !retryable(err) || ctx.Err() != nil {
			return nil, err
		}

		logrus.WithFields(logrus.Fields{"url": url, "attempt": attempt}).Warnf("request failed: %v", err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryWait):
		}
	}
	return nil, errors.Wrapf(err, "request to %s failed after %d attempts", url, attempts)
}

func (c *Client) post(ctx context.Context, httpClient *http.Client, url string, requestBody []byte, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBody))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	response, err := httpClient.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, tokenError(retrieveErr)
		}
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if response.StatusCode == http.StatusOK {
		return body, nil
	}
	return nil, statusError(response.StatusCode, body)
}

func statusError(code int, body []byte) error {
	msg := string(body)
	if len(msg) > maxErrorBodyLength {
		msg = msg[:maxErrorBodyLength]
	}
	detail := fmt.Sprintf("status %d: %s", code, msg)

	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.Wrap(ErrUnauthorized, detail)
	case code == http.StatusTooManyRequests:
		return errors.Wrap(ErrQuotaExceeded, detail)
	case code >= 500:
		return errors.Wrap(ErrUnavailable, detail)
	default:
		return errors.Wrap(ErrBadRequest, detail)
	}
}

// tokenError classifies a failed token request. Only a rejection of the
// credentials counts as unauthorized; an unavailable or throttled token
// endpoint is retried like the API itself.
func tokenError(err *oauth2.RetrieveError) error {
	if err.Response == nil {
		return errors.Wrap(ErrUnavailable, err.Error())
	}
	switch code := err.Response.StatusCode; code {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return errors.Wrap(ErrUnauthorized, err.Error())
	default:
		return errors.Wrap(statusError(code, err.Body), "token request failed")
	}
}

func retryable(err error) bool {
	return !errors.Is(err, ErrUnauthorized) && !errors.Is(err, ErrBadRequest)
}
