package cartrie

import "errors"

// ErrValueRejected is the sentinel that UserValueFailure unwraps to. No
// Trie method returns it: Insert and Erase report no errors, and nothing
// checks a value or a KeyCodec's output for rejection. Contention and
// reclamation are internal retry concerns and never surface as errors.
var ErrValueRejected = errors.New("cartrie: value rejected")

// ErrInvalidEncoding is returned by a KeyCodec's FromBytes when the input
// does not match the length FixedLen reports (for fixed-length codecs),
// or is otherwise malformed.
var ErrInvalidEncoding = errors.New("cartrie: invalid key encoding")

// UserValueFailure wraps ErrValueRejected with the offending key's
// encoded form, for callers that want to log or inspect it.
type UserValueFailure struct {
	Encoded []byte
	Reason  string
}

func (e *UserValueFailure) Error() string {
	return "cartrie: " + e.Reason
}

func (e *UserValueFailure) Unwrap() error { return ErrValueRejected }
