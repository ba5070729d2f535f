package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/danielpatrickdp/correction-synth/internal/finding"
)

// #region client-struct
// Client calls a remote Compliance Validator. It satisfies the synthesis
// engine's Validator contract.
type Client struct {
	conn   *grpc.ClientConn
	client ComplianceValidatorClient

	// Timeout applies per RPC attempt when non-zero.
	Timeout time.Duration
	// Backoff is the initial wait between retries of transient failures.
	Backoff time.Duration
}

// #endregion client-struct

// #region constructor
// NewClient connects to the validator service at addr.
func NewClient(addr string, timeout time.Duration) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{
		conn:    conn,
		client:  NewComplianceValidatorClient(conn),
		Timeout: timeout,
		Backoff: DefaultBackoff,
	}, nil
}

// NewClientWithService creates a Client with an injected service implementation.
// Used for testing without a real gRPC connection.
func NewClientWithService(svc ComplianceValidatorClient) *Client {
	return &Client{client: svc}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region check
// Check sends text and the module ids to re-validate and returns the fresh
// findings. Unavailable, ResourceExhausted and Aborted failures are retried
// with exponential backoff.
func (c *Client) Check(ctx context.Context, text string, modules []string) ([]finding.Finding, error) {
	body, err := json.Marshal(CheckRequest{Text: text, Modules: modules})
	if err != nil {
		return nil, fmt.Errorf("encode check request: %w", err)
	}

	var resp *wrapperspb.BytesValue
	for attempts := 1; ; attempts++ {
		resp, err = c.call(ctx, body)
		if err == nil {
			break
		}
		if !shouldRetry(ctx, err, attempts) {
			return nil, fmt.Errorf("check rpc (attempt %d): %w", attempts, err)
		}
		if werr := wait(ctx, c.Backoff, attempts); werr != nil {
			return nil, fmt.Errorf("check rpc (attempt %d): %w", attempts, err)
		}
	}

	var out CheckResponse
	if err := json.Unmarshal(resp.GetValue(), &out); err != nil {
		return nil, fmt.Errorf("decode check response: %w", err)
	}
	return out.Findings, nil
}

func (c *Client) call(ctx context.Context, body []byte) (*wrapperspb.BytesValue, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	return c.client.Check(ctx, wrapperspb.Bytes(body))
}

// #endregion check
