package binds

import "errors"

var (
	// ErrCapacityExhausted means a slot range ran out of free slots. The
	// item or command that could not be bound is simply left unbound;
	// callers log and continue.
	ErrCapacityExhausted = errors.New("slot range capacity exhausted")

	// ErrSlotNotFound means a lookup asked for an item or command that
	// has no assigned slot. Surfaced to callers as "action unavailable".
	ErrSlotNotFound = errors.New("no slot assigned")

	// ErrUnsafeValue means a dynamic string value contains a delimiter
	// sequence that would corrupt the persisted comment format. The value
	// is rejected rather than escaped.
	ErrUnsafeValue = errors.New("value contains reserved delimiter")

	// ErrUnknownCommandType means a dynamic command type is not one of
	// the supported templates.
	ErrUnknownCommandType = errors.New("unknown dynamic command type")
)
