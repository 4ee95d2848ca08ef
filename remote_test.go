package chores

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respondWith(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestRemoteLoadAll(t *testing.T) {
	var gotMethod, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotRequestID = r.Header.Get(RequestIDHeader)
		respondWith(http.StatusOK, `{"data":[{"taskId":5,"date":"2025-04-15","childName":"aaliya"}]}`)(w, r)
	}))
	defer srv.Close()

	entries, err := NewRemoteStore(srv.URL).LoadAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, gotMethod)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, []CompletedTask{{TaskID: 5, Date: "2025-04-15", ChildName: Aaliya}}, entries)
}

func TestRemoteLoadAllEmpty(t *testing.T) {
	srv := httptest.NewServer(respondWith(http.StatusOK, `{"data":[]}`))
	defer srv.Close()

	entries, err := NewRemoteStore(srv.URL).LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestRemoteLoadAllMalformed tests that unexpected shapes are rejected at the boundary
func TestRemoteLoadAllMalformed(t *testing.T) {
	bodies := map[string]string{
		"not json":       `<html>oops</html>`,
		"missing data":   `{"items":[]}`,
		"null data":      `{"data":null}`,
		"data not array": `{"data":{"taskId":1}}`,
		"string task id": `{"data":[{"taskId":"5","date":"2025-04-15","childName":"aaliya"}]}`,
		"missing date":   `{"data":[{"taskId":5,"childName":"aaliya"}]}`,
		"bad date":       `{"data":[{"taskId":5,"date":"15/04/2025","childName":"aaliya"}]}`,
		"unknown child":  `{"data":[{"taskId":5,"date":"2025-04-15","childName":"zara"}]}`,
		"zero task id":   `{"data":[{"taskId":0,"date":"2025-04-15","childName":"aaliya"}]}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(respondWith(http.StatusOK, body))
			defer srv.Close()

			_, err := NewRemoteStore(srv.URL).LoadAll(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedResponse)

			var syncErr *SyncError
			require.ErrorAs(t, err, &syncErr)
			assert.False(t, syncErr.Temporary())
		})
	}
}

func TestRemoteServerRejected(t *testing.T) {
	srv := httptest.NewServer(respondWith(http.StatusServiceUnavailable, `{"error":"down"}`))
	defer srv.Close()

	_, err := NewRemoteStore(srv.URL).LoadAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServerRejected)

	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, http.StatusServiceUnavailable, syncErr.StatusCode)
	assert.True(t, syncErr.Temporary())
	assert.Contains(t, err.Error(), "down")
}

func TestRemoteNetworkUnavailable(t *testing.T) {
	srv := httptest.NewServer(respondWith(http.StatusOK, `{"data":[]}`))
	url := srv.URL
	srv.Close()

	_, err := NewRemoteStore(url).LoadAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetworkUnavailable)

	err = NewRemoteStore(url).SaveAll(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNetworkUnavailable)
}

func TestRemoteSaveAll(t *testing.T) {
	var gotMethod, gotContentType string
	var gotBody map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	snapshot := []CompletedTask{
		{TaskID: 1, Date: "2025-04-13", ChildName: Aaliya},
		{TaskID: 2, Date: "2025-04-13", ChildName: Haidar},
	}
	require.NoError(t, NewRemoteStore(srv.URL).SaveAll(context.Background(), snapshot))

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	require.Contains(t, gotBody, "task_data")
	assert.JSONEq(t,
		`[{"taskId":1,"date":"2025-04-13","childName":"aaliya"},{"taskId":2,"date":"2025-04-13","childName":"haidar"}]`,
		string(gotBody["task_data"]))
}

func TestRemoteSaveAllEmptySnapshot(t *testing.T) {
	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		raw = string(b)
	}))
	defer srv.Close()

	require.NoError(t, NewRemoteStore(srv.URL).SaveAll(context.Background(), nil))
	assert.JSONEq(t, `{"task_data":[]}`, raw)
}

func TestRemoteSaveAllClientError(t *testing.T) {
	srv := httptest.NewServer(respondWith(http.StatusBadRequest, `{"error":"bad"}`))
	defer srv.Close()

	err := NewRemoteStore(srv.URL).SaveAll(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServerRejected)

	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.False(t, syncErr.Temporary())
}

func TestRemoteCanceledContext(t *testing.T) {
	srv := httptest.NewServer(respondWith(http.StatusOK, `{"data":[]}`))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRemoteStore(srv.URL).LoadAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeSaveRequest(t *testing.T) {
	entries, err := DecodeSaveRequest([]byte(`{"task_data":[{"taskId":3,"date":"2025-05-01","childName":"haidar"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []CompletedTask{{TaskID: 3, Date: "2025-05-01", ChildName: Haidar}}, entries)

	_, err = DecodeSaveRequest([]byte(`{"data":[]}`))
	assert.Error(t, err)

	_, err = DecodeSaveRequest([]byte(`{"task_data":[{"taskId":3}]}`))
	assert.Error(t, err)
}
