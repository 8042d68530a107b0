package http

import (
	"encoding/json"
	"net/http"

	"github.com/ccsds-cfdp/gocfdp/entity"
	"github.com/ccsds-cfdp/gocfdp/pdu"
)

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, ErrGwRequestNotSupported)
		return
	}
	var req PutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrGwSyntaxError)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.logger.Debugf("put request failed validation: %v", err)
		writeError(w, http.StatusBadRequest, ErrGwSyntaxError)
		return
	}

	putReq := entity.PutRequest{
		DestinationEntityID: pdu.EntityID(req.DestinationEntityID),
		SourceFilename:      req.SourceFilename,
		DestinationFilename: req.DestinationFilename,
		ClosureRequested:    req.ClosureRequested,
	}
	if req.TransmissionMode != nil {
		mode, ok := parseTransmissionMode(*req.TransmissionMode)
		if !ok {
			writeError(w, http.StatusBadRequest, ErrGwSyntaxError)
			return
		}
		putReq.TransmissionMode = &mode
	}
	if req.ChecksumType != nil {
		typ, ok := parseChecksumType(*req.ChecksumType)
		if !ok {
			writeError(w, http.StatusBadRequest, ErrGwSyntaxError)
			return
		}
		putReq.ChecksumType = &typ
	}

	id, err := s.engine.Put(putReq)
	if err != nil {
		s.logger.Warnf("put failed: %v", err)
		writeError(w, http.StatusInternalServerError, ErrGwRequestNotProcessed)
		return
	}
	writeJSON(w, http.StatusAccepted, PutResponse{TransactionID: id.String()})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, ErrGwRequestNotSupported)
		return
	}
	ids := s.engine.GetActiveTransactions()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	writeJSON(w, http.StatusOK, ListResponse{TransactionIDs: out})
}

// handleTransactionResource dispatches GET/POST on
// /transactions/<source>:<seq>[/cancel|suspend|resume], mirroring the
// teacher's handleRequest: parse the path, look the matching action up,
// and fall back to a syntax error if nothing matches.
func (s *Server) handleTransactionResource(w http.ResponseWriter, r *http.Request) {
	m := transactionPathPattern.FindStringSubmatch(r.URL.Path)
	if m == nil {
		writeError(w, http.StatusNotFound, ErrGwSyntaxError)
		return
	}
	id, err := parseTransactionID(m[1], m[2])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	action := m[3]

	if action == "" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, ErrGwRequestNotSupported)
			return
		}
		status := s.engine.GetTransactionStatus(id)
		writeJSON(w, http.StatusOK, StatusResponse{TransactionID: id.String(), Status: statusString(status)})
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, ErrGwRequestNotSupported)
		return
	}
	var applied bool
	switch action {
	case "cancel":
		applied = s.engine.Cancel(id)
	case "suspend":
		applied = s.engine.Suspend(id)
	case "resume":
		applied = s.engine.Resume(id)
	}
	writeJSON(w, http.StatusOK, ActionResponse{TransactionID: id.String(), Applied: applied})
}
