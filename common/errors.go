package common

import (
	"errors"
	"fmt"
)

//
// Base Types
//

type BaseError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"cause"`
	Details map[string]interface{} `json:"details"`
}

func (e *BaseError) Unwrap() error {
	return e.Cause
}

func (e *BaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BaseError) CodeChain() string {
	if e.Cause != nil {
		if se, ok := e.Cause.(StandardError); ok {
			return fmt.Sprintf("%s <- %s", e.Code, se.Base().CodeChain())
		}
	}

	return e.Code
}

// Base lets every typed error expose its embedded BaseError.
func (e *BaseError) Base() *BaseError {
	return e
}

type StandardError interface {
	error
	Base() *BaseError
}

type ErrorWithStatusCode interface {
	ErrorStatusCode() int
}

// HasErrorCode reports whether err or any error in its chain carries one
// of the given codes.
func HasErrorCode(err error, codes ...string) bool {
	for err != nil {
		if se, ok := err.(StandardError); ok {
			base := se.Base()
			for _, code := range codes {
				if base.Code == code {
					return true
				}
			}
		}
		err = errors.Unwrap(err)
	}
	return false
}

//
// Request / Job Errors
//

type ErrInvalidRequest struct{ BaseError }

var NewErrInvalidRequest = func(cause error) error {
	return &ErrInvalidRequest{
		BaseError{
			Code:    "ErrInvalidRequest",
			Message: "invalid consensus request",
			Cause:   cause,
		},
	}
}

func (e *ErrInvalidRequest) ErrorStatusCode() int { return 400 }

type ErrJobNotFound struct{ BaseError }

var NewErrJobNotFound = func(jobId string) error {
	return &ErrJobNotFound{
		BaseError{
			Code:    "ErrJobNotFound",
			Message: "job not found",
			Details: map[string]interface{}{
				"jobId": jobId,
			},
		},
	}
}

func (e *ErrJobNotFound) ErrorStatusCode() int { return 404 }

type ErrPipelineFailure struct{ BaseError }

var NewErrPipelineFailure = func(jobId string, cause error) error {
	return &ErrPipelineFailure{
		BaseError{
			Code:    "ErrPipelineFailure",
			Message: "consensus pipeline failed",
			Cause:   cause,
			Details: map[string]interface{}{
				"jobId": jobId,
			},
		},
	}
}

func (e *ErrPipelineFailure) ErrorStatusCode() int { return 500 }

//
// Provider Errors
//

type ErrProviderNotFound struct{ BaseError }

var NewErrProviderNotFound = func(providerId string) error {
	return &ErrProviderNotFound{
		BaseError{
			Code:    "ErrProviderNotFound",
			Message: "provider not found in registry",
			Details: map[string]interface{}{
				"providerId": providerId,
			},
		},
	}
}

type ErrNoPrimaryProvider struct{ BaseError }

var NewErrNoPrimaryProvider = func() error {
	return &ErrNoPrimaryProvider{
		BaseError{
			Code:    "ErrNoPrimaryProvider",
			Message: "exactly one primary provider must be configured",
		},
	}
}

type ErrProviderInvocation struct{ BaseError }

var NewErrProviderInvocation = func(providerId string, cause error) error {
	return &ErrProviderInvocation{
		BaseError{
			Code:    "ErrProviderInvocation",
			Message: "provider invocation failed",
			Cause:   cause,
			Details: map[string]interface{}{
				"providerId": providerId,
			},
		},
	}
}

//
// Storage / Audit Errors
//

type ErrInvalidConnectorDriver struct{ BaseError }

var NewErrInvalidConnectorDriver = func(driver string) error {
	return &ErrInvalidConnectorDriver{
		BaseError{
			Code:    "ErrInvalidConnectorDriver",
			Message: "invalid audit connector driver",
			Details: map[string]interface{}{
				"driver": driver,
			},
		},
	}
}

type ErrAuditWriteFailed struct{ BaseError }

var NewErrAuditWriteFailed = func(jobId string, cause error) error {
	return &ErrAuditWriteFailed{
		BaseError{
			Code:    "ErrAuditWriteFailed",
			Message: "failed to persist audit record",
			Cause:   cause,
			Details: map[string]interface{}{
				"jobId": jobId,
			},
		},
	}
}

type ErrRecordNotFound struct{ BaseError }

var NewErrRecordNotFound = func(key string) error {
	return &ErrRecordNotFound{
		BaseError{
			Code:    "ErrRecordNotFound",
			Message: "record not found",
			Details: map[string]interface{}{
				"key": key,
			},
		},
	}
}

func (e *ErrRecordNotFound) ErrorStatusCode() int { return 404 }
