// Package apiclient is a thin HTTP client for cfdpd's JSON gateway,
// generalizing dittofsctl's pkg/apiclient from a control-plane REST
// API to the CFDP Put/status/list/cancel/suspend/resume surface.
package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to one cfdpd gateway.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a Client against baseURL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: 10 * time.Second}}
}

// PutRequest mirrors gateway/http.PutRequest; kept as a separate type
// so apiclient has no import-time dependency on the gateway package.
type PutRequest struct {
	DestinationEntityID uint64  `json:"destination_entity_id"`
	SourceFilename      string  `json:"source_filename"`
	DestinationFilename string  `json:"destination_filename"`
	TransmissionMode    *string `json:"transmission_mode,omitempty"`
	ChecksumType        *string `json:"checksum_type,omitempty"`
	ClosureRequested    bool    `json:"closure_requested"`
}

type PutResponse struct {
	TransactionID string `json:"transaction_id"`
}

type StatusResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

type ListResponse struct {
	TransactionIDs []string `json:"transaction_ids"`
}

type ActionResponse struct {
	TransactionID string `json:"transaction_id"`
	Applied       bool   `json:"applied"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Put issues a transfer request.
func (c *Client) Put(req PutRequest) (*PutResponse, error) {
	var resp PutResponse
	if err := c.do(http.MethodPost, "/put", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status fetches one transaction's coarse status.
func (c *Client) Status(transactionID string) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.do(http.MethodGet, "/transactions/"+transactionID, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List enumerates active transactions.
func (c *Client) List() (*ListResponse, error) {
	var resp ListResponse
	if err := c.do(http.MethodGet, "/transactions", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cancel, Suspend and Resume apply the named action to a transaction.
func (c *Client) Cancel(transactionID string) (*ActionResponse, error) {
	return c.action(transactionID, "cancel")
}

func (c *Client) Suspend(transactionID string) (*ActionResponse, error) {
	return c.action(transactionID, "suspend")
}

func (c *Client) Resume(transactionID string) (*ActionResponse, error) {
	return c.action(transactionID, "resume")
}

func (c *Client) action(transactionID, verb string) (*ActionResponse, error) {
	var resp ActionResponse
	if err := c.do(http.MethodPost, "/transactions/"+transactionID+"/"+verb, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(method, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	if resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := dec.Decode(&errResp); err != nil {
			return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: %s", method, path, errResp.Error)
	}
	if out == nil {
		return nil
	}
	return dec.Decode(out)
}
