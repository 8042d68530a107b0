package http

import "fmt"

// GatewayError is a small closed taxonomy of request-processing
// failures, carried as a typed error the same way the teacher's
// GatewayError wraps a CiA 309 numeric error code — generalized here
// to the handful of ways a CFDP gateway request can fail.
type GatewayError struct {
	Code    int
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("ERROR:%d:%s", e.Code, e.Message)
}

var (
	ErrGwSyntaxError         = &GatewayError{Code: 1, Message: "request body or parameters are malformed"}
	ErrGwRequestNotSupported = &GatewayError{Code: 2, Message: "unknown route"}
	ErrGwUnknownTransaction  = &GatewayError{Code: 3, Message: "no such transaction"}
	ErrGwRequestNotProcessed = &GatewayError{Code: 4, Message: "request could not be processed"}
)
