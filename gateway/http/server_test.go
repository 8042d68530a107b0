package http

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccsds-cfdp/gocfdp/entity"
	"github.com/ccsds-cfdp/gocfdp/filestore"
	"github.com/ccsds-cfdp/gocfdp/mib"
	"github.com/ccsds-cfdp/gocfdp/pdu"
)

func newTestEngine(t *testing.T) *entity.Engine {
	t.Helper()
	fs, err := filestore.NewLocal(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, fs.WriteAll("in.bin", []byte("hello")))
	cfg := &mib.Config{
		EntityID:                1,
		EntityIDLength:          2,
		SequenceNumberLength:    2,
		MaxFileSegmentLength:    1024,
		DefaultTransmissionMode: pdu.Unacknowledged,
		DefaultChecksumType:     pdu.ChecksumCRC32,
		MaxNakRetries:           3,
		RemoteEntities:          map[pdu.EntityID]mib.RemoteOverride{},
	}
	return entity.New(cfg, fs, nil)
}

func TestHandlePutReturnsTransactionID(t *testing.T) {
	e := newTestEngine(t)
	s := New(e)

	body, _ := json.Marshal(PutRequest{DestinationEntityID: 2, SourceFilename: "in.bin", DestinationFilename: "out.bin"})
	req := httptest.NewRequest("POST", "/put", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, 202, w.Code)
	var resp PutResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1:1", resp.TransactionID)
}

func TestHandlePutRejectsMissingFields(t *testing.T) {
	e := newTestEngine(t)
	s := New(e)

	body, _ := json.Marshal(PutRequest{})
	req := httptest.NewRequest("POST", "/put", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestHandleListTransactions(t *testing.T) {
	e := newTestEngine(t)
	s := New(e)

	req := httptest.NewRequest("GET", "/transactions", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.TransactionIDs)
}

func TestHandleTransactionStatusUnrecognized(t *testing.T) {
	e := newTestEngine(t)
	s := New(e)

	req := httptest.NewRequest("GET", "/transactions/9:9", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unrecognized", resp.Status)
}

func TestHandleCancelUnknownTransactionNotApplied(t *testing.T) {
	e := newTestEngine(t)
	s := New(e)

	req := httptest.NewRequest("POST", "/transactions/9:9/cancel", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp ActionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Applied)
}

func TestHandleMalformedTransactionPath(t *testing.T) {
	e := newTestEngine(t)
	s := New(e)

	req := httptest.NewRequest("GET", "/transactions/not-an-id", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
}
