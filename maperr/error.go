package maperr

// NoRecordFound - Custom error to inform that no record was found
type NoRecordFound struct {
	msg string
}

// Error - Used to notify that no record was found
func (E NoRecordFound) Error() string {
	if E.msg == "" {
		return "no record found"
	}
	return E.msg
}

// Is - Matches any NoRecordFound regardless of message
func (E NoRecordFound) Is(target error) bool {
	_, ok := target.(NoRecordFound)
	return ok
}

// InvalidArgument - Custom error to inform that a call was made with an argument the map can't accept,
// such as a zero key length, a missing hash function or a buffer of the wrong length.
type InvalidArgument struct {
	msg string
}

// NewInvalidArgument - Returns an InvalidArgument error with the given message
func NewInvalidArgument(msg string) InvalidArgument {
	return InvalidArgument{msg: msg}
}

// Error - Used to notify that an argument was invalid
func (E InvalidArgument) Error() string {
	if E.msg == "" {
		return "invalid argument"
	}
	return "invalid argument: " + E.msg
}

// Is - Matches any InvalidArgument regardless of message
func (E InvalidArgument) Is(target error) bool {
	_, ok := target.(InvalidArgument)
	return ok
}

// AllocationFailure - Custom error to inform that memory for a bucket array or an overflow bucket could not be
// allocated. The map is left as it was before the failing call.
type AllocationFailure struct {
	msg string
	err error
}

// NewAllocationFailure - Returns an AllocationFailure wrapping the error from the allocator
func NewAllocationFailure(msg string, err error) AllocationFailure {
	return AllocationFailure{msg: msg, err: err}
}

// Error - Used to notify that an allocation failed
func (E AllocationFailure) Error() string {
	msg := E.msg
	if msg == "" {
		msg = "allocation failure"
	}
	if E.err != nil {
		return msg + ": " + E.err.Error()
	}
	return msg
}

// Unwrap - Returns the allocator error
func (E AllocationFailure) Unwrap() error {
	return E.err
}

// Is - Matches any AllocationFailure regardless of message
func (E AllocationFailure) Is(target error) bool {
	_, ok := target.(AllocationFailure)
	return ok
}

// Destroyed - Custom error to inform that the map has been destroyed and can't be used anymore
type Destroyed struct {
	msg string
}

// Error - Used to notify that the map is destroyed
func (E Destroyed) Error() string {
	if E.msg == "" {
		return "map is destroyed"
	}
	return E.msg
}

// ChainExhausted - Custom error to inform that an iterator was asked for more than it holds
type ChainExhausted struct {
	msg string
}

// Error - Used to notify that there are no more items to iterate
func (E ChainExhausted) Error() string {
	if E.msg == "" {
		return "no more items in chain"
	}
	return E.msg
}
