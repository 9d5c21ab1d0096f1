package events

import "errors"

// Failure kinds raised along the report pipeline. Call sites wrap these with
// context so errors.Is can classify a failure after it has propagated.
var (
	// ErrPublish means the broker did not acknowledge a write or the payload
	// could not be serialized.
	ErrPublish = errors.New("publish failed")
	// ErrConsume is a transient broker read failure.
	ErrConsume = errors.New("consume failed")
	// ErrUpstreamFetch means the contact endpoint was unreachable or answered
	// with a non-success status.
	ErrUpstreamFetch = errors.New("upstream fetch failed")
	// ErrDeserialization marks a malformed payload, from the broker or the
	// contact endpoint.
	ErrDeserialization = errors.New("deserialization failed")
	// ErrPersistence is a report store write failure.
	ErrPersistence = errors.New("persistence failed")
)

// Transient reports whether err is worth retrying in-process.
func Transient(err error) bool {
	return errors.Is(err, ErrUpstreamFetch) || errors.Is(err, ErrPersistence)
}

// Kind returns a short label for metrics and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDeserialization):
		return "deserialization"
	case errors.Is(err, ErrUpstreamFetch):
		return "upstream"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, ErrPublish):
		return "publish"
	case errors.Is(err, ErrConsume):
		return "consume"
	default:
		return "unknown"
	}
}
