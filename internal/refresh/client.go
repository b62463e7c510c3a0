package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ingatatech/e-learning-sub003/internal/auth"
	"github.com/ingatatech/e-learning-sub003/internal/session"
)

// Client calls the refresh endpoint on behalf of a client context and
// persists the outcome in that context's store. It satisfies the same
// contract as Coordinator.Refresh, over the network.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) Refresh(ctx context.Context, store session.Store, refreshToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+Path, nil)
	if err != nil {
		return "", err
	}
	req.AddCookie(&http.Cookie{Name: auth.RefreshCookieName, Value: refreshToken})

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		for _, ck := range resp.Cookies() {
			if ck.Name == auth.AccessCookieName && ck.Value != "" {
				if err := store.SetAccess(ctx, ck.Value); err != nil {
					return "", err
				}
				return ck.Value, nil
			}
		}
		return "", fmt.Errorf("refresh response carried no %s cookie", auth.AccessCookieName)

	case http.StatusUnauthorized:
		var body errorBody
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4<<10)).Decode(&body)
		if err := store.Clear(ctx); err != nil {
			return "", fmt.Errorf("%w: %s (clear failed: %v)", ErrInvalid, body.Error, err)
		}
		return "", fmt.Errorf("%w: %s", ErrInvalid, body.Error)

	default:
		return "", fmt.Errorf("refresh: unexpected status %d", resp.StatusCode)
	}
}
