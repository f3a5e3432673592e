// internal/stream/transport.go
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const recvBufferSize = 4096

// CompletionRequest is the payload sent to the upstream completion endpoint.
// The endpoint is an opaque producer: all this service relies on is that the
// response body is a chunked text stream.
type CompletionRequest struct {
	ContextAction string `json:"contextAction"`
	Message       string `json:"message"`
}

// HTTPSource adapts a streaming HTTP response body into a ChunkSource.
type HTTPSource struct {
	body io.ReadCloser
	buf  []byte
}

// OpenHTTPSource POSTs the request to the upstream endpoint and returns a
// source over its response body. The context bounds the whole stream, not
// just the dial.
func OpenHTTPSource(ctx context.Context, client *http.Client, baseURL, apiKey string, reqBody CompletionRequest) (*HTTPSource, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	return &HTTPSource{
		body: resp.Body,
		buf:  make([]byte, recvBufferSize),
	}, nil
}

// Recv returns the next chunk of response body text. io.EOF signals normal
// end of stream; cancellation surfaces as the context's error.
func (s *HTTPSource) Recv(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	n, err := s.body.Read(s.buf)
	if n > 0 {
		return string(s.buf[:n]), nil
	}
	if err == nil {
		err = io.EOF
	}
	return "", err
}

// Close releases the underlying response body.
func (s *HTTPSource) Close() error {
	return s.body.Close()
}
