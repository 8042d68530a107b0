package entity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccsds-cfdp/gocfdp/filestore"
	"github.com/ccsds-cfdp/gocfdp/mib"
	"github.com/ccsds-cfdp/gocfdp/pdu"
	"github.com/ccsds-cfdp/gocfdp/transport"
)

// fakeTransport records every Send call instead of touching a real
// socket, the same role virtual.Bus plays in the teacher's can tests.
type fakeTransport struct {
	mu    sync.Mutex
	sent  [][]byte
	dests []pdu.EntityID
}

func (f *fakeTransport) Connect(ctx context.Context) error { return nil }
func (f *fakeTransport) Disconnect() error                 { return nil }
func (f *fakeTransport) Subscribe(l transport.PduListener) error {
	return nil
}
func (f *fakeTransport) Send(ctx context.Context, dst pdu.EntityID, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), buf...)
	f.sent = append(f.sent, cp)
	f.dests = append(f.dests, dst)
	return nil
}

func (f *fakeTransport) last() ([]byte, pdu.EntityID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.sent)
	return f.sent[n-1], f.dests[n-1]
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func testConfig(entityID pdu.EntityID) *mib.Config {
	return &mib.Config{
		EntityID:                entityID,
		EntityIDLength:          2,
		SequenceNumberLength:    2,
		MaxFileSegmentLength:    1024,
		DefaultTransmissionMode: pdu.Unacknowledged,
		DefaultChecksumType:     pdu.ChecksumCRC32,
		InactivityTimeout:       50 * time.Millisecond,
		AckTimeout:              10 * time.Millisecond,
		NakTimeout:              10 * time.Millisecond,
		MaxAckRetries:           3,
		MaxNakRetries:           3,
		RemoteEntities:          map[pdu.EntityID]mib.RemoteOverride{},
	}
}

func newTestFs(t *testing.T) filestore.Filestore {
	t.Helper()
	fs, err := filestore.NewLocal(t.TempDir())
	require.NoError(t, err)
	return fs
}

func TestPutRegistersSendTransactionAndEmitsPdus(t *testing.T) {
	fs := newTestFs(t)
	require.NoError(t, fs.WriteAll("in.bin", []byte("hello world")))

	tr := &fakeTransport{}
	e := New(testConfig(0x01), fs, tr)

	var created []pdu.TransactionID
	e.SetObservers(Observers{
		OnTransactionCreated: func(id pdu.TransactionID) { created = append(created, id) },
	})

	id, err := e.Put(PutRequest{
		DestinationEntityID: 0x02,
		SourceFilename:      "in.bin",
		DestinationFilename: "out.bin",
	})
	require.NoError(t, err)
	assert.Equal(t, pdu.EntityID(0x01), id.Source)
	assert.Len(t, created, 1)
	assert.Equal(t, id, created[0])

	// Unacknowledged mode completes immediately: Metadata + 1 FileData + EOF.
	assert.Equal(t, 3, tr.count())
	buf, dst := tr.last()
	assert.Equal(t, pdu.EntityID(0x02), dst)
	h, body, err := pdu.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, pdu.TowardReceiver, h.Direction)
	assert.Equal(t, pdu.EntityID(0x01), h.SourceEntityID)
	assert.Equal(t, pdu.EntityID(0x02), h.DestEntityID)
	_, isEOF := body.(pdu.EOF)
	assert.True(t, isEOF)

	assert.Equal(t, StatusUnrecognized, e.GetTransactionStatus(id))
}

func TestPutExplicitModeOverridesEntityDefaultOnWire(t *testing.T) {
	fs := newTestFs(t)
	require.NoError(t, fs.WriteAll("in.bin", []byte("hello world")))

	tr := &fakeTransport{}
	cfg := testConfig(0x01) // DefaultTransmissionMode: Unacknowledged
	e := New(cfg, fs, tr)

	acknowledged := pdu.Acknowledged
	id, err := e.Put(PutRequest{
		DestinationEntityID: 0x02,
		SourceFilename:      "in.bin",
		DestinationFilename: "out.bin",
		TransmissionMode:    &acknowledged,
	})
	require.NoError(t, err)

	// Request overrides the entity's Unacknowledged default: the
	// transaction stays Active awaiting Finished, and every PDU already
	// on the wire must carry Mode=Acknowledged, not the config default.
	assert.Equal(t, StatusActive, e.GetTransactionStatus(id))
	require.True(t, tr.count() > 0)
	buf, _ := tr.last()
	h, _, err := pdu.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, pdu.Acknowledged, h.Mode)
}

func TestPutUsesPerRemoteOverrides(t *testing.T) {
	fs := newTestFs(t)
	require.NoError(t, fs.WriteAll("in.bin", []byte("x")))

	tr := &fakeTransport{}
	cfg := testConfig(0x01)
	mode := pdu.Acknowledged
	cfg.RemoteEntities[0x02] = mib.RemoteOverride{Address: "x", DefaultTransmissionMode: &mode}
	e := New(cfg, fs, tr)

	id, err := e.Put(PutRequest{DestinationEntityID: 0x02, SourceFilename: "in.bin", DestinationFilename: "out.bin"})
	require.NoError(t, err)

	// Acknowledged mode stays Active awaiting Finished, not terminated yet.
	assert.Equal(t, StatusActive, e.GetTransactionStatus(id))
}

func TestProcessPduCreatesRecvTransactionOnMetadata(t *testing.T) {
	fs := newTestFs(t)
	tr := &fakeTransport{}
	e := New(testConfig(0x02), fs, tr)

	var created []pdu.TransactionID
	e.SetObservers(Observers{OnTransactionCreated: func(id pdu.TransactionID) { created = append(created, id) }})

	h := pdu.Header{
		Version: 1, Direction: pdu.TowardReceiver, Mode: pdu.Unacknowledged,
		EntityIDLength: 2, SeqNumberLength: 2,
		SourceEntityID: 0x01, SequenceNumber: 7, DestEntityID: 0x02,
	}
	body := pdu.Metadata{ChecksumType: pdu.ChecksumNull, FileSize: 5, SourceFilename: "a", DestinationFilename: "b"}
	buf, err := pdu.Encode(h, body)
	require.NoError(t, err)

	require.NoError(t, e.ProcessPdu(buf))
	require.Len(t, created, 1)
	assert.Equal(t, pdu.EntityID(0x01), created[0].Source)
	assert.Equal(t, uint64(7), created[0].Seq)

	active := e.GetActiveTransactions()
	assert.Len(t, active, 1)
}

func TestProcessPduDropsUnknownTowardSender(t *testing.T) {
	fs := newTestFs(t)
	tr := &fakeTransport{}
	e := New(testConfig(0x02), fs, tr)

	h := pdu.Header{
		Version: 1, Direction: pdu.TowardSender, Mode: pdu.Acknowledged,
		EntityIDLength: 2, SeqNumberLength: 2,
		SourceEntityID: 0x01, SequenceNumber: 99, DestEntityID: 0x02,
	}
	body := pdu.Finished{ConditionCode: pdu.NoError, FileStatus: pdu.RetainedSuccessfully}
	buf, err := pdu.Encode(h, body)
	require.NoError(t, err)

	require.NoError(t, e.ProcessPdu(buf))
	assert.Len(t, e.GetActiveTransactions(), 0)
}

func TestRecvRepliesToOriginalSourceNotDestination(t *testing.T) {
	fs := newTestFs(t)
	tr := &fakeTransport{}
	cfg := testConfig(0x02)
	cfg.DefaultTransmissionMode = pdu.Acknowledged
	e := New(cfg, fs, tr)

	h := pdu.Header{
		Version: 1, Direction: pdu.TowardReceiver, Mode: pdu.Acknowledged,
		EntityIDLength: 2, SeqNumberLength: 2,
		SourceEntityID: 0x01, SequenceNumber: 3, DestEntityID: 0x02,
	}
	meta := pdu.Metadata{ChecksumType: pdu.ChecksumNull, FileSize: 4, SourceFilename: "a", DestinationFilename: "out.bin"}
	buf, err := pdu.Encode(h, meta)
	require.NoError(t, err)
	require.NoError(t, e.ProcessPdu(buf))

	fd, err := pdu.Encode(h, pdu.FileData{Offset: 0, Data: []byte("data")})
	require.NoError(t, err)
	require.NoError(t, e.ProcessPdu(fd))

	eofBuf, err := pdu.Encode(h, pdu.EOF{ConditionCode: pdu.NoError, FileSize: 4})
	require.NoError(t, err)
	require.NoError(t, e.ProcessPdu(eofBuf))

	// recv transaction completes and emits Finished back to entity 0x01,
	// never to its own id (0x02) and never to h.DestEntityID misapplied.
	require.Equal(t, 1, tr.count())
	outBuf, dst := tr.last()
	assert.Equal(t, pdu.EntityID(0x01), dst)
	outH, outBody, err := pdu.Decode(outBuf)
	require.NoError(t, err)
	assert.Equal(t, pdu.TowardSender, outH.Direction)
	assert.Equal(t, pdu.EntityID(0x01), outH.SourceEntityID)
	assert.Equal(t, pdu.EntityID(0x02), outH.DestEntityID)
	_, isFinished := outBody.(pdu.Finished)
	assert.True(t, isFinished)
}

func TestCancelReapsTransactionAndNotifies(t *testing.T) {
	fs := newTestFs(t)
	require.NoError(t, fs.WriteAll("in.bin", []byte("x")))
	tr := &fakeTransport{}
	cfg := testConfig(0x01)
	cfg.DefaultTransmissionMode = pdu.Acknowledged
	e := New(cfg, fs, tr)

	var completed []TransactionResult
	e.SetObservers(Observers{OnTransactionCompleted: func(id pdu.TransactionID, r TransactionResult) { completed = append(completed, r) }})

	id, err := e.Put(PutRequest{DestinationEntityID: 0x02, SourceFilename: "in.bin", DestinationFilename: "out.bin"})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, e.GetTransactionStatus(id))

	ok := e.Cancel(id)
	assert.True(t, ok)
	assert.Equal(t, StatusUnrecognized, e.GetTransactionStatus(id))
	require.Len(t, completed, 1)
	assert.False(t, completed[0].Success)
	assert.Equal(t, pdu.CancelRequestReceived, completed[0].ConditionCode)
}

func TestSuspendResumeRoundTrip(t *testing.T) {
	fs := newTestFs(t)
	require.NoError(t, fs.WriteAll("in.bin", []byte("x")))
	tr := &fakeTransport{}
	cfg := testConfig(0x01)
	cfg.DefaultTransmissionMode = pdu.Acknowledged
	e := New(cfg, fs, tr)

	id, err := e.Put(PutRequest{DestinationEntityID: 0x02, SourceFilename: "in.bin", DestinationFilename: "out.bin"})
	require.NoError(t, err)

	assert.True(t, e.Suspend(id))
	assert.True(t, e.Resume(id))
	// An id the engine does not know reports false.
	assert.False(t, e.Suspend(pdu.TransactionID{Source: 0x99, Seq: 1}))
}

func TestRunTickReapsInactiveTransaction(t *testing.T) {
	fs := newTestFs(t)
	tr := &fakeTransport{}
	cfg := testConfig(0x02)
	cfg.InactivityTimeout = 5 * time.Millisecond
	cfg.NakTimeout = 5 * time.Millisecond
	e := New(cfg, fs, tr)

	h := pdu.Header{
		Version: 1, Direction: pdu.TowardReceiver, Mode: pdu.Acknowledged,
		EntityIDLength: 2, SeqNumberLength: 2,
		SourceEntityID: 0x01, SequenceNumber: 11, DestEntityID: 0x02,
	}
	meta := pdu.Metadata{ChecksumType: pdu.ChecksumNull, FileSize: 4, SourceFilename: "a", DestinationFilename: "out.bin"}
	buf, err := pdu.Encode(h, meta)
	require.NoError(t, err)
	require.NoError(t, e.ProcessPdu(buf))
	require.Len(t, e.GetActiveTransactions(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return len(e.GetActiveTransactions()) == 0
	}, 500*time.Millisecond, 5*time.Millisecond)

	cancel()
	<-done
}

func TestPutNotifiesBytesSent(t *testing.T) {
	fs := newTestFs(t)
	require.NoError(t, fs.WriteAll("in.bin", []byte("hello world")))
	tr := &fakeTransport{}
	e := New(testConfig(0x01), fs, tr)

	var sent uint64
	e.SetObservers(Observers{OnBytesSent: func(n uint64) { sent += n }})

	_, err := e.Put(PutRequest{DestinationEntityID: 0x02, SourceFilename: "in.bin", DestinationFilename: "out.bin"})
	require.NoError(t, err)
	assert.Greater(t, sent, uint64(0))
}

func TestProcessPduNotifiesBytesReceived(t *testing.T) {
	fs := newTestFs(t)
	tr := &fakeTransport{}
	e := New(testConfig(0x02), fs, tr)

	var received uint64
	e.SetObservers(Observers{OnBytesReceived: func(n uint64) { received += n }})

	h := pdu.Header{
		Version: 1, Direction: pdu.TowardReceiver, Mode: pdu.Unacknowledged,
		EntityIDLength: 2, SeqNumberLength: 2,
		SourceEntityID: 0x01, SequenceNumber: 21, DestEntityID: 0x02,
	}
	meta := pdu.Metadata{ChecksumType: pdu.ChecksumNull, FileSize: 4, SourceFilename: "a", DestinationFilename: "out.bin"}
	buf, err := pdu.Encode(h, meta)
	require.NoError(t, err)
	require.NoError(t, e.ProcessPdu(buf))

	assert.Equal(t, uint64(len(buf)), received)
}

func TestTickNotifiesNakRetryOnGap(t *testing.T) {
	fs := newTestFs(t)
	tr := &fakeTransport{}
	cfg := testConfig(0x02)
	cfg.NakTimeout = 5 * time.Millisecond
	e := New(cfg, fs, tr)

	var retries int
	e.SetObservers(Observers{OnNakRetry: func() { retries++ }})

	h := pdu.Header{
		Version: 1, Direction: pdu.TowardReceiver, Mode: pdu.Acknowledged,
		EntityIDLength: 2, SeqNumberLength: 2,
		SourceEntityID: 0x01, SequenceNumber: 22, DestEntityID: 0x02,
	}
	// FileSize declares 8 bytes but only the first 4 ever arrive, so
	// every tick's attemptCompletion finds a gap and sends a NAK.
	meta := pdu.Metadata{ChecksumType: pdu.ChecksumNull, FileSize: 8, SourceFilename: "a", DestinationFilename: "out.bin"}
	buf, err := pdu.Encode(h, meta)
	require.NoError(t, err)
	require.NoError(t, e.ProcessPdu(buf))

	fd, err := pdu.Encode(h, pdu.FileData{Offset: 0, Data: []byte("data")})
	require.NoError(t, err)
	require.NoError(t, e.ProcessPdu(fd))

	eofBuf, err := pdu.Encode(h, pdu.EOF{ConditionCode: pdu.NoError, FileSize: 8})
	require.NoError(t, err)
	require.NoError(t, e.ProcessPdu(eofBuf))

	e.tick()
	assert.Equal(t, 1, retries)
}
