package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccsds-cfdp/gocfdp/entity"
	"github.com/ccsds-cfdp/gocfdp/pdu"
)

func gaugeValue(t *testing.T, c prometheus.Collector, name string) float64 {
	t.Helper()
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f.Metric[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func counterValue(t *testing.T, c prometheus.Collector, name string) float64 {
	t.Helper()
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			var sum float64
			for _, m := range f.Metric {
				sum += m.GetCounter().GetValue()
			}
			return sum
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestObserveCreatedIncrementsStartedAndActive(t *testing.T) {
	c := New(0x01)
	id := pdu.TransactionID{Source: 0x01, Seq: 1}
	c.ObserveCreated(id)

	assert.Equal(t, float64(1), counterValue(t, c, "cfdp_transactions_started_total"))
	assert.Equal(t, float64(1), gaugeValue(t, c, "cfdp_active_transactions"))
}

func TestObserveCompletedSuccessDecrementsActive(t *testing.T) {
	c := New(0x01)
	id := pdu.TransactionID{Source: 0x01, Seq: 1}
	c.ObserveCreated(id)
	c.ObserveCompleted(id, entity.TransactionResult{Success: true, ConditionCode: pdu.NoError})

	assert.Equal(t, float64(0), gaugeValue(t, c, "cfdp_active_transactions"))
	assert.Equal(t, float64(1), counterValue(t, c, "cfdp_transactions_succeeded_total"))
}

func TestObserveCompletedFailureLabelsByConditionCode(t *testing.T) {
	c := New(0x01)
	id := pdu.TransactionID{Source: 0x01, Seq: 1}
	c.ObserveCreated(id)
	c.ObserveCompleted(id, entity.TransactionResult{Success: false, ConditionCode: pdu.NakLimitReached})

	assert.Equal(t, float64(1), counterValue(t, c, "cfdp_transactions_failed_total"))
}

func TestObserveBytesAndNakRetries(t *testing.T) {
	c := New(0x01)
	c.ObserveBytesSent(100)
	c.ObserveBytesSent(50)
	c.ObserveBytesReceived(200)
	c.ObserveNakRetry()
	c.ObserveNakRetry()

	assert.Equal(t, float64(150), counterValue(t, c, "cfdp_bytes_sent_total"))
	assert.Equal(t, float64(200), counterValue(t, c, "cfdp_bytes_received_total"))
	assert.Equal(t, float64(2), counterValue(t, c, "cfdp_nak_retries_total"))
}
