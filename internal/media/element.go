// Package media defines the playback element contract the session controller
// binds to, and a clock-driven implementation of it.
//
// The contract mirrors a native audio element: a settable source URL, a
// readable/settable position, a duration that becomes known once metadata
// loads, an asynchronous play request that may reject, a synchronous pause,
// rate and volume properties, and events for metadata-ready, time-advanced,
// and playback-ended. Any engine providing this surface can drive the
// controller.
package media

import "context"

// ErrAborted is returned by Play when the request was superseded before it
// could start playback (source changed or pause requested mid-flight).
// Callers treat it as expected, not as a failure.
var ErrAborted = &abortError{}

type abortError struct{}

func (*abortError) Error() string { return "media: play request aborted" }

// ErrNoSource is returned by Play when no source URL is set. This is how a
// chapter-lookup miss ultimately surfaces: an empty source fails at play time,
// not before.
var ErrNoSource = &noSourceError{}

type noSourceError struct{}

func (*noSourceError) Error() string { return "media: no source set" }

// Handlers are the event callbacks an element owner registers.
// All callbacks are invoked without internal element locks held, so handlers
// may call back into the element.
type Handlers struct {
	// MetadataReady fires once per source load, when the duration is known.
	MetadataReady func()
	// TimeUpdate fires as the position advances during playback.
	TimeUpdate func(position float64)
	// Ended fires when playback reaches the end of the source.
	Ended func()
}

// Element is a single playback resource.
//
// Implementations must be safe for concurrent use: the controller calls in
// from HTTP handlers while the engine's clock fires events.
type Element interface {
	// SetSource replaces the source URL. Setting a new URL resets position and
	// invalidates metadata; setting the current URL is a no-op (the resource
	// is reused without a reload and metadata stays available).
	SetSource(url string)
	Source() string

	// Position returns the playback position in seconds.
	Position() float64
	// SetPosition seeks to the given position. No clamping is performed here;
	// the engine clamps naturally at the ends of the source.
	SetPosition(seconds float64)

	// Duration returns the source duration in seconds, or 0 until metadata
	// has loaded.
	Duration() float64
	// MetadataReady reports whether the duration is known for the current
	// source without waiting for the event.
	MetadataReady() bool

	// Play requests playback start. It resolves when playback begins, or
	// rejects with ErrAborted when superseded, ErrNoSource when the source is
	// empty, or another error for engine failures. Callers typically invoke
	// it from a goroutine and reconcile state on rejection.
	Play(ctx context.Context) error
	// Pause stops playback synchronously and aborts any pending play request.
	Pause()
	Playing() bool

	SetRate(rate float64)
	Rate() float64
	SetVolume(volume float64)
	Volume() float64

	// SetHandlers registers the owner's event callbacks, replacing any
	// previous registration. ClearHandlers detaches them; after it returns no
	// further callbacks fire.
	SetHandlers(h Handlers)
	ClearHandlers()
}
