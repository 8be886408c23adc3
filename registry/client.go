// Package registry submits signed publish requests to the release registry
// and interprets its structured response.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pithecene-io/stevedore/iox"
	"github.com/pithecene-io/stevedore/signer"
)

// DefaultTimeout is the publish request timeout. Publishes carry a full
// manifest but no archive bytes, so this stays short.
const DefaultTimeout = 30 * time.Second

// Sentinel errors for submission outcomes.
var (
	// ErrRejected indicates the registry processed the request and
	// declined it (success=false). A clean, expected halt.
	ErrRejected = errors.New("publish rejected by registry")

	// ErrTransport indicates no interpretable response was obtained
	// (network failure, malformed body).
	ErrTransport = errors.New("publish submission failed")
)

// RejectionError carries the registry's user-facing rejection message.
type RejectionError struct {
	Msg string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("publish rejected by registry: %s", e.Msg)
}

// Is reports a match for ErrRejected so callers can classify without
// unwrapping the message.
func (e *RejectionError) Is(target error) bool {
	return target == ErrRejected
}

// response is the registry's transport body: a result nested under "body".
type response struct {
	Body struct {
		Success bool   `json:"success"`
		Msg     string `json:"msg"`
	} `json:"body"`
}

// Client submits signed envelopes to the registry.
// It is pure given its inputs; the network call is the only side effect.
type Client struct {
	http *http.Client
}

// NewClient creates a registry client. A nil httpClient gets a default
// with DefaultTimeout.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{http: httpClient}
}

// Submit sends the signed envelope and interprets the response.
// Returns nil when the registry accepted the publish, a RejectionError
// (ErrRejected) when it declined, and an ErrTransport-wrapped error when no
// interpretable response was obtained. Callers must not proceed to asset
// sync on any non-nil return.
func (c *Client) Submit(ctx context.Context, env *signer.Envelope) error {
	resp, err := c.http.Do(env.Request.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer iox.DiscardClose(resp.Body)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	var parsed response
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("%w: malformed response (status %d): %v", ErrTransport, resp.StatusCode, err)
	}

	if !parsed.Body.Success {
		return &RejectionError{Msg: parsed.Body.Msg}
	}
	return nil
}
