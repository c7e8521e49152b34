package handler

import (
	"github.com/Guliveer/vitalis/spy/internal/result"
)

// Response codes.
const (
	CodeOK   = 0
	CodeFail = 1
)

// Envelope is the uniform {code, data} shape returned to the host for every
// operation. On failure Data is a human-readable diagnostic string.
type Envelope struct {
	Code int         `json:"code"`
	Data interface{} `json:"data"`
}

// OK reports whether the envelope carries a value.
func (e Envelope) OK() bool { return e.Code == CodeOK }

func okEnvelope(v interface{}) Envelope {
	return Envelope{Code: CodeOK, Data: v}
}

func failEnvelope(diagnostic string) Envelope {
	return Envelope{Code: CodeFail, Data: diagnostic}
}

// FromResult converts an internal result at the host boundary.
func FromResult[T any](r result.Result[T]) Envelope {
	if !r.IsOk() {
		return failEnvelope(r.Diagnostic())
	}
	return okEnvelope(r.Value())
}
