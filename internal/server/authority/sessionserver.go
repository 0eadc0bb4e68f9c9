// Package authority talks to the identity authority, the Minecraft session
// server, which confirms that a player recently joined a server using a given
// secret.
package authority

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HasJoinedPath is the session server endpoint queried by Confirm.
const HasJoinedPath = "/session/minecraft/hasJoined"

// SessionServer is an HTTP client for the session server's hasJoined check.
type SessionServer struct {
	baseURL string
	client  *http.Client
}

// NewSessionServer returns a client for baseURL whose requests are bounded by
// timeout. A zero timeout leaves requests bounded only by the caller's context.
func NewSessionServer(baseURL string, timeout time.Duration) *SessionServer {
	return &SessionServer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Confirm asks whether username recently authenticated with proof as its
// server ID. HTTP 200 means confirmed and any other status means denied. A
// non-nil error means the question could not be answered.
func (s *SessionServer) Confirm(ctx context.Context, username, proof string) (bool, error) {
	q := url.Values{}
	q.Set("username", username)
	q.Set("serverId", proof)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+HasJoinedPath+"?"+q.Encode(), nil)
	if err != nil {
		return false, fmt.Errorf("build session server request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("session server request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK, nil
}
