package billplz

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a required secret that is not configured.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("billplz: %s not configured", e.Setting)
}

// IntegrationError reports a non-success response from the gateway.
// Body carries the upstream error payload as received.
type IntegrationError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *IntegrationError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("billplz: %s failed: %s", e.Op, e.Body)
	}
	return fmt.Sprintf("billplz: %s failed (status %d): %s", e.Op, e.StatusCode, e.Body)
}

// Temporary reports whether retrying the call may succeed.
func (e *IntegrationError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// SignatureError reports a failed authenticity check. The message is fixed
// per reason and never includes signature material.
type SignatureError struct {
	Reason string
}

func (e *SignatureError) Error() string {
	return "billplz: signature verification failed: " + e.Reason
}

var (
	errMissingSignature  = &SignatureError{Reason: "missing x_signature"}
	errSignatureMismatch = &SignatureError{Reason: "signature mismatch"}
)

// IsConfigurationError reports whether err wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsIntegrationError reports whether err wraps an *IntegrationError.
func IsIntegrationError(err error) bool {
	var target *IntegrationError
	return errors.As(err, &target)
}

// IsSignatureError reports whether err wraps a *SignatureError.
func IsSignatureError(err error) bool {
	var target *SignatureError
	return errors.As(err, &target)
}
