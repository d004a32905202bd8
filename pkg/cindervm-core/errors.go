package cindervm

import "github.com/cindervm/cindervm-core/internal/cindervm-core/vmerr"

// ErrorKind classifies why an Invoke or InvokeMethod call failed.
type ErrorKind = vmerr.Kind

const (
	ErrUnknown          = vmerr.KindUnknown
	ErrArithmetic       = vmerr.KindArithmetic
	ErrNullReference    = vmerr.KindNullReference
	ErrIndexOutOfRange  = vmerr.KindIndexOutOfRange
	ErrStackOverflow    = vmerr.KindStackOverflow
	ErrStackUnderflow   = vmerr.KindStackUnderflow
	ErrTypeMismatch     = vmerr.KindTypeMismatch
	ErrUnresolvedSymbol = vmerr.KindUnresolvedSymbol
	ErrNativeBridge     = vmerr.KindNativeBridge
	ErrConcurrentAccess = vmerr.KindConcurrentAccess
	ErrInternal         = vmerr.KindInternal
)

// Error is the concrete error type every failed Invoke/InvokeMethod call
// returns: a Kind, a message, the call-stack trace accumulated while
// unwinding (innermost frame first), an optional wrapped Cause, and the
// CorrelationID of the top-level call that produced it.
type Error = vmerr.Error
