package mib

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ccsds-cfdp/gocfdp/pdu"
)

const sampleMIB = `
[entity]
entity_id = 1
entity_id_length = 2
sequence_number_length = 2
max_file_segment_length = 512
filestore_root = /tmp/cfdp
use_crc = true
default_transmission_mode = acknowledged
default_checksum_type = crc32
inactivity_timeout = 30s
ack_timeout = 5s
nak_timeout = 5s
max_ack_retries = 3
max_nak_retries = 3

[remote 0x02]
address = 10.0.0.2:4556
max_file_segment_length = 256
default_transmission_mode = unacknowledged
`

func TestLoadEntitySection(t *testing.T) {
	cfg, err := Load([]byte(sampleMIB))
	assert.NoError(t, err)
	assert.EqualValues(t, 1, cfg.EntityID)
	assert.Equal(t, 2, cfg.EntityIDLength)
	assert.Equal(t, 512, cfg.MaxFileSegmentLength)
	assert.True(t, cfg.UseCRC)
	assert.Equal(t, pdu.Acknowledged, cfg.DefaultTransmissionMode)
	assert.Equal(t, pdu.ChecksumCRC32, cfg.DefaultChecksumType)
}

func TestLoadRemoteOverride(t *testing.T) {
	cfg, err := Load([]byte(sampleMIB))
	assert.NoError(t, err)
	assert.Equal(t, 256, cfg.MaxFileSegmentLengthFor(2))
	assert.Equal(t, pdu.Unacknowledged, cfg.TransmissionModeFor(2))
	// unconfigured peer falls back to entity defaults
	assert.Equal(t, 512, cfg.MaxFileSegmentLengthFor(99))
	assert.Equal(t, pdu.Acknowledged, cfg.TransmissionModeFor(99))
}

func TestPeerAddresses(t *testing.T) {
	cfg, err := Load([]byte(sampleMIB))
	assert.NoError(t, err)
	assert.Equal(t, map[pdu.EntityID]string{2: "10.0.0.2:4556"}, cfg.PeerAddresses())
}

func TestLoadMissingEntityIDFails(t *testing.T) {
	_, err := Load([]byte("[entity]\nfilestore_root = /tmp\n"))
	assert.Error(t, err)
}
