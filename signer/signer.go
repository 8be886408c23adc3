// Package signer builds and signs the registry publish request.
//
// The request body is serialized exactly once; those bytes are both the
// signing input and the transport payload, so the signature always covers
// what is sent. encoding/json sorts map keys, which keeps the serialization
// canonical for a given request.
package signer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"

	"github.com/pithecene-io/stevedore/types"
)

// ErrSignatureBuild indicates the request could not be serialized or signed.
var ErrSignatureBuild = errors.New("signature build failed")

// Envelope is a signed transport envelope: the prepared request plus the
// exact body bytes the signature covers. Submitters must send Body verbatim.
type Envelope struct {
	Request *http.Request
	Body    []byte
}

// Signer signs publish requests for a fixed registry endpoint and scope.
type Signer struct {
	endpoint string // full URL, e.g. https://host/v1/app/publish
	service  string
	region   string

	// now is replaceable in tests; signatures embed the signing time.
	now func() time.Time
	v4  *v4.Signer
}

// New creates a Signer for the given endpoint URL and signing scope.
func New(endpoint, service, region string) *Signer {
	return &Signer{
		endpoint: endpoint,
		service:  service,
		region:   region,
		now:      time.Now,
		v4:       v4.NewSigner(),
	}
}

// Sign serializes req canonically and produces a signed envelope bound to
// creds. The signature covers method, host, path, timestamp and the body
// digest. Transport-framing headers the HTTP client recomputes
// (Content-Length) are stripped after signing so they cannot go stale.
func (s *Signer) Sign(ctx context.Context, req *types.PublishRequest, creds *types.Credentials) (*Envelope, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: serialize body: %v", ErrSignatureBuild, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrSignatureBuild, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.ContentLength = int64(len(body))
	// Replayable body for transports that need it.
	httpReq.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	digest := sha256.Sum256(body)
	payloadHash := hex.EncodeToString(digest[:])

	awsCreds := aws.Credentials{
		AccessKeyID:     creds.KeyID,
		SecretAccessKey: creds.Secret,
	}
	if err := s.v4.SignHTTP(ctx, awsCreds, httpReq, payloadHash, s.service, s.region, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureBuild, err)
	}

	// The client derives these from the URL and body; a signed copy would
	// be duplicated or stale.
	httpReq.Header.Del("Content-Length")
	httpReq.Header.Del("Host")

	return &Envelope{Request: httpReq, Body: body}, nil
}
