package chores

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DefaultEndpoint is used when no endpoint is configured
const DefaultEndpoint = "http://localhost:8080/api/tasks"

// RequestIDHeader carries a per-call id logged on both ends
const RequestIDHeader = "X-Request-Id"

// LoadResponse is the body returned by GET on the endpoint
type LoadResponse struct {
	Data []CompletedTask `json:"data"`
}

// SaveRequest is the body sent by POST to the endpoint
type SaveRequest struct {
	TaskData []CompletedTask `json:"task_data"`
}

// RemoteStore talks to the remote completion endpoint. Every call is a
// single request; retries are the Syncer's job.
type RemoteStore struct {
	endpoint string
	client   *http.Client
	logger   *log.Logger
}

// RemoteOption configures a RemoteStore
type RemoteOption func(*RemoteStore)

// WithHTTPClient replaces the default client (10s timeout)
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *RemoteStore) { r.client = c }
}

// WithRemoteLogger sets the logger used for request traces
func WithRemoteLogger(l *log.Logger) RemoteOption {
	return func(r *RemoteStore) { r.logger = l }
}

// NewRemoteStore creates a client for endpoint
func NewRemoteStore(endpoint string, opts ...RemoteOption) *RemoteStore {
	r := &RemoteStore{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Endpoint returns the URL the store talks to
func (r *RemoteStore) Endpoint() string {
	return r.endpoint
}

// LoadAll fetches the full snapshot. The payload is validated before it
// is returned; any deviation from the expected shape is reported as
// ErrMalformedResponse.
func (r *RemoteStore) LoadAll(ctx context.Context) ([]CompletedTask, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return nil, &SyncError{Op: "load", Err: fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)}
	}
	req.Header.Set("Accept", "application/json")

	body, err := r.do(req, "load")
	if err != nil {
		return nil, err
	}

	entries, err := DecodeLoadResponse(body)
	if err != nil {
		return nil, &SyncError{Op: "load", Err: err}
	}
	r.logger.Printf("load %s: %d entries", req.Header.Get(RequestIDHeader), len(entries))
	return entries, nil
}

// SaveAll sends the full snapshot, replacing whatever the remote holds
func (r *RemoteStore) SaveAll(ctx context.Context, entries []CompletedTask) error {
	if entries == nil {
		entries = []CompletedTask{}
	}
	payload, err := json.Marshal(SaveRequest{TaskData: entries})
	if err != nil {
		return &SyncError{Op: "save", Err: fmt.Errorf("failed to marshal snapshot: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return &SyncError{Op: "save", Err: fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)}
	}
	req.Header.Set("Content-Type", "application/json")

	if _, err := r.do(req, "save"); err != nil {
		return err
	}
	r.logger.Printf("save %s: %d entries", req.Header.Get(RequestIDHeader), len(entries))
	return nil
}

// do sends req and returns the body of a 2xx response
func (r *RemoteStore) do(req *http.Request, op string) ([]byte, error) {
	req.Header.Set(RequestIDHeader, uuid.NewString())

	resp, err := r.client.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", op, ctxErr)
		}
		return nil, &SyncError{Op: op, Err: fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, &SyncError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(bytes.TrimSpace(body))
		if len(msg) > 200 {
			msg = msg[:200] + "..."
		}
		return nil, &SyncError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %s", ErrServerRejected, msg)}
	}
	return body, nil
}

// wireEntry mirrors CompletedTask with every field optional so that
// missing fields can be told apart from zero values
type wireEntry struct {
	TaskID    *int    `json:"taskId"`
	Date      *string `json:"date"`
	ChildName *string `json:"childName"`
}

// DecodeLoadResponse validates a {"data": [...]} body
func DecodeLoadResponse(body []byte) ([]CompletedTask, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}
	return decodeEntries(envelope.Data, ErrMalformedResponse)
}

// DecodeSaveRequest validates a {"task_data": [...]} body
func DecodeSaveRequest(body []byte) ([]CompletedTask, error) {
	var envelope struct {
		TaskData json.RawMessage `json:"task_data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.TaskData) == 0 || string(envelope.TaskData) == "null" {
		return nil, fmt.Errorf("missing task_data")
	}
	return decodeEntries(envelope.TaskData, nil)
}

func decodeEntries(raw json.RawMessage, kind error) ([]CompletedTask, error) {
	wrap := func(err error) error {
		if kind == nil {
			return err
		}
		return fmt.Errorf("%w: %v", kind, err)
	}

	var wire []wireEntry
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, wrap(err)
	}

	entries := make([]CompletedTask, 0, len(wire))
	for i, w := range wire {
		if w.TaskID == nil || w.Date == nil || w.ChildName == nil {
			return nil, wrap(fmt.Errorf("entry %d: missing field", i))
		}
		e := CompletedTask{TaskID: *w.TaskID, Date: *w.Date, ChildName: Child(*w.ChildName)}
		if err := e.Validate(); err != nil {
			return nil, wrap(fmt.Errorf("entry %d: %w", i, err))
		}
		entries = append(entries, e)
	}
	return entries, nil
}
