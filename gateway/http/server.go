// Package http is the CFDP entity's REST gateway: a JSON surface for
// Put/Cancel/Suspend/Resume/Status, generalizing the teacher's CiA
// 309-5 HTTP gateway (pkg/gateway/http) from SDO read/write/NMT
// commands dispatched through a routes map to CFDP transaction
// operations dispatched the same way.
package http

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/ccsds-cfdp/gocfdp/entity"
	"github.com/ccsds-cfdp/gocfdp/pdu"
)

// transactionPathPattern matches /transactions/<source>:<seq>[/<action>],
// the same "base resource plus variable trailing command" shape the
// teacher's URI_PATTERN decomposes a CiA 309-5 request into.
var transactionPathPattern = regexp.MustCompile(`^/transactions/(\d+):(\d+)(?:/(cancel|suspend|resume))?$`)

// Server is the gateway's HTTP surface over one entity.Engine.
type Server struct {
	engine   *entity.Engine
	logger   *logrus.Entry
	validate *validator.Validate
	mux      *http.ServeMux
}

// New constructs a Server wired to engine. Call ListenAndServe to run
// it, or use Handler() to mount it under another mux.
func New(engine *entity.Engine) *Server {
	s := &Server{
		engine:   engine,
		logger:   logrus.WithField("service", "http-gateway"),
		validate: validator.New(),
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("/put", s.handlePut)
	s.mux.HandleFunc("/transactions", s.handleListTransactions)
	s.mux.HandleFunc("/transactions/", s.handleTransactionResource)
	return s
}

// Handler returns the gateway's http.Handler for embedding in another
// server (cmd/cfdpd serves it on its own http.Server, separate from
// the /metrics server).
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe runs the gateway standalone, blocking.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Infof("http gateway listening on %s", addr)
	return http.ListenAndServe(addr, s.mux)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func parseTransactionID(source, seq string) (pdu.TransactionID, error) {
	src, err := strconv.ParseUint(source, 10, 64)
	if err != nil {
		return pdu.TransactionID{}, ErrGwSyntaxError
	}
	s, err := strconv.ParseUint(seq, 10, 64)
	if err != nil {
		return pdu.TransactionID{}, ErrGwSyntaxError
	}
	return pdu.TransactionID{Source: pdu.EntityID(src), Seq: s}, nil
}

func statusString(s entity.TransactionStatus) string {
	switch s {
	case entity.StatusActive:
		return "active"
	case entity.StatusTerminated:
		return "terminated"
	default:
		return "unrecognized"
	}
}

func parseTransmissionMode(s string) (pdu.TransmissionMode, bool) {
	switch strings.ToLower(s) {
	case "acknowledged":
		return pdu.Acknowledged, true
	case "unacknowledged":
		return pdu.Unacknowledged, true
	default:
		return 0, false
	}
}

func parseChecksumType(s string) (pdu.ChecksumType, bool) {
	switch strings.ToLower(s) {
	case "modular":
		return pdu.ChecksumModular, true
	case "crc32":
		return pdu.ChecksumCRC32, true
	case "crc32c":
		return pdu.ChecksumCRC32C, true
	case "null":
		return pdu.ChecksumNull, true
	default:
		return 0, false
	}
}
