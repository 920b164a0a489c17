package response

import (
	"fmt"
	"time"
)

// Option customizes a response at creation time.
type Option func(*Response)

// WithContext copies the caller's context bag verbatim into the response's
// working context for enhancers to read (session snapshot, operation name,
// start time, and the like).
func WithContext(ctx map[string]any) Option {
	return func(r *Response) {
		for k, v := range ctx {
			r.contextBag[k] = v
		}
	}
}

// WithMetadata seeds an initial metadata key at creation.
func WithMetadata(key string, value any) Option {
	return func(r *Response) {
		r.metadata[key] = value
	}
}

func newResponse(status Status, message string, data any, opts []Option) *Response {
	r := &Response{
		status:     status,
		message:    message,
		data:       data,
		metadata:   make(map[string]any),
		contextBag: make(map[string]any),
		created:    time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Success creates a SUCCESS response with the given payload.
func Success(message string, data any, opts ...Option) *Response {
	return newResponse(StatusSuccess, message, data, opts)
}

// Error creates an ERROR response. The error detail is stored as the payload
// so downstream consumers (and the legacy projection) can recover it.
func Error(message string, errDetail any, opts ...Option) *Response {
	if err, ok := errDetail.(error); ok {
		errDetail = err.Error()
	}
	return newResponse(StatusError, message, errDetail, opts)
}

// Warning creates a WARNING response.
func Warning(message string, data any, opts ...Option) *Response {
	return newResponse(StatusWarning, message, data, opts)
}

// Info creates an INFO response.
func Info(message string, data any, opts ...Option) *Response {
	return newResponse(StatusInfo, message, data, opts)
}

// FromError is a convenience for wrapping a Go error into an ERROR response.
func FromError(err error, opts ...Option) *Response {
	if err == nil {
		return Success("", nil, opts...)
	}
	return Error(fmt.Sprintf("operation failed: %s", err), err, opts...)
}
