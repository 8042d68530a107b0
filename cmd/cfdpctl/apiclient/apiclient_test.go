package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/put", r.URL.Path)
		var req PutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, uint64(2), req.DestinationEntityID)
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(PutResponse{TransactionID: "1:1"})
	}))
	defer srv.Close()

	resp, err := New(srv.URL).Put(PutRequest{DestinationEntityID: 2, SourceFilename: "a", DestinationFilename: "b"})
	require.NoError(t, err)
	assert.Equal(t, "1:1", resp.TransactionID)
}

func TestStatusAndList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/transactions/1:1":
			_ = json.NewEncoder(w).Encode(StatusResponse{TransactionID: "1:1", Status: "active"})
		case "/transactions":
			_ = json.NewEncoder(w).Encode(ListResponse{TransactionIDs: []string{"1:1"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	status, err := c.Status("1:1")
	require.NoError(t, err)
	assert.Equal(t, "active", status.Status)

	list, err := c.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"1:1"}, list.TransactionIDs)
}

func TestActionVerbs(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(ActionResponse{TransactionID: "1:1", Applied: true})
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.Cancel("1:1")
	require.NoError(t, err)
	assert.True(t, resp.Applied)
	assert.Equal(t, "/transactions/1:1/cancel", gotPath)
}

func TestErrorResponseSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "bad request"})
	}))
	defer srv.Close()

	_, err := New(srv.URL).List()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad request")
}
