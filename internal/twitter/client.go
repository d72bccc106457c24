package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const statusUpdatePath = "/1.1/statuses/update.json"

// APIError is a non-2xx response from the platform. The raw body is kept so
// platform-side rejections can be diagnosed from the stored error string.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twitter API returned %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type tweetResponse struct {
	IDStr string `json:"id_str"`
}

// PostTweet publishes one tweet, optionally as a reply to inReplyToID, and
// returns the id the platform assigned. It never retries; the caller owns
// retry policy so partial thread progress can be resumed at the right index.
func (c *Client) PostTweet(ctx context.Context, creds Credentials, text, inReplyToID string) (string, error) {
	endpoint := c.baseURL + statusUpdatePath

	bodyParams := map[string]string{
		"status": text,
	}
	if inReplyToID != "" {
		bodyParams["in_reply_to_status_id"] = inReplyToID
	}

	nonce, err := Nonce()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	authHeader := AuthorizationHeader(creds, "POST", endpoint, bodyParams, nonce, time.Now().Unix())

	form := url.Values{}
	for k, v := range bodyParams {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	req.Header.Set("Authorization", authHeader)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
		slog.Info(apiErr.Error())
		return "", apiErr
	}

	var tweet tweetResponse
	if err := json.Unmarshal(respBody, &tweet); err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("failed to decode tweet response: %w", err)
	}
	if tweet.IDStr == "" {
		return "", errors.New("tweet response missing id_str")
	}

	return tweet.IDStr, nil
}
