package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/bessleague/bessleague/pkg/revenue"
	"github.com/bessleague/bessleague/pkg/source"
)

// Stream identifies one of the independently fetched revenue inputs.
type Stream string

const (
	StreamWholesale   Stream = "wholesale"
	StreamSystemPrice Stream = "system-price"
	StreamBalancing   Stream = "balancing"
	StreamAuction     Stream = "auction"
)

func (s Stream) label() string {
	switch s {
	case StreamWholesale:
		return "Wholesale"
	case StreamSystemPrice:
		return "System price"
	case StreamBalancing:
		return "Balancing mechanism"
	case StreamAuction:
		return "Frequency response auction"
	default:
		return string(s)
	}
}

// ErrorKind classifies why a stream failed.
type ErrorKind string

const (
	KindNoData    ErrorKind = "no-data"
	KindStatus    ErrorKind = "upstream-status"
	KindTimeout   ErrorKind = "timeout"
	KindNetwork   ErrorKind = "network"
	KindCanceled  ErrorKind = "canceled"
	KindMalformed ErrorKind = "malformed"
)

// StreamError is the failure of one stream for one date. Err holds the raw
// cause and is only ever logged; Message is what users see.
type StreamError struct {
	Stream Stream
	Date   string
	Kind   ErrorKind
	Err    error
}

func newStreamError(stream Stream, date string, err error) *StreamError {
	return &StreamError{Stream: stream, Date: date, Kind: classify(err), Err: err}
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("%s stream failed for %s: %v", e.Stream, e.Date, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// Message is a single human readable sentence naming the stream and the
// reason it failed.
func (e *StreamError) Message() string {
	label := e.Stream.label()
	switch e.Kind {
	case KindNoData:
		return fmt.Sprintf("%s data is not available for %s, please choose a valid date.", label, e.Date)
	case KindStatus:
		var se *source.StatusError
		if errors.As(e.Err, &se) {
			return fmt.Sprintf("%s data is unavailable for %s: the %s service responded with status %d.", label, e.Date, se.Provider, se.StatusCode)
		}
		return fmt.Sprintf("%s data is unavailable for %s: the upstream service returned an error.", label, e.Date)
	case KindTimeout:
		return fmt.Sprintf("%s data is unavailable for %s: the upstream service timed out.", label, e.Date)
	case KindCanceled:
		return fmt.Sprintf("%s request for %s was cancelled.", label, e.Date)
	case KindMalformed:
		return fmt.Sprintf("%s data for %s could not be read.", label, e.Date)
	default:
		return fmt.Sprintf("%s data is unavailable for %s: the upstream service could not be reached.", label, e.Date)
	}
}

func classify(err error) ErrorKind {
	var se *source.StatusError
	var ne net.Error
	switch {
	case errors.Is(err, revenue.ErrNoData):
		return KindNoData
	case errors.As(err, &se):
		return KindStatus
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.As(err, &ne) && ne.Timeout():
		return KindTimeout
	case errors.As(err, &ne):
		return KindNetwork
	case isDecodeError(err):
		return KindMalformed
	default:
		return KindNetwork
	}
}

func isDecodeError(err error) bool {
	var syntax *json.SyntaxError
	var typ *json.UnmarshalTypeError
	return errors.As(err, &syntax) || errors.As(err, &typ)
}
