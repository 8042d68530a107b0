package http

// PutRequest is the JSON body for POST /put, spec.md §6's Put-request
// parameters. go-playground/validator struct tags enforce the fields
// a Put cannot proceed without, the same convention
// pkg/config.Config's `validate:"..."` tags use for process
// configuration.
type PutRequest struct {
	DestinationEntityID uint64  `json:"destination_entity_id" validate:"required"`
	SourceFilename      string  `json:"source_filename" validate:"required"`
	DestinationFilename string  `json:"destination_filename" validate:"required"`
	TransmissionMode    *string `json:"transmission_mode,omitempty" validate:"omitempty,oneof=acknowledged unacknowledged"`
	ChecksumType        *string `json:"checksum_type,omitempty" validate:"omitempty,oneof=modular crc32 crc32c null"`
	ClosureRequested    bool    `json:"closure_requested"`
}

// PutResponse echoes the transaction id the engine registered.
type PutResponse struct {
	TransactionID string `json:"transaction_id"`
}

// StatusResponse reports one transaction's coarse status.
type StatusResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// ListResponse enumerates currently registered transactions.
type ListResponse struct {
	TransactionIDs []string `json:"transaction_ids"`
}

// ActionResponse reports whether a Cancel/Suspend/Resume took effect.
type ActionResponse struct {
	TransactionID string `json:"transaction_id"`
	Applied       bool   `json:"applied"`
}

// ErrorResponse is the JSON body returned alongside a non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}
