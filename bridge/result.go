package bridge

// Result holds either a value or the message explaining why the item
// failed. The zero Result is a failure with an empty message.
type Result[T any] struct {
	value T
	msg   string
	ok    bool
}

// Ok returns a successful Result
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Fail returns a failed Result carrying msg
func Fail[T any](msg string) Result[T] {
	return Result[T]{msg: msg}
}

// Get returns the value and whether the Result succeeded
func (r Result[T]) Get() (T, bool) {
	return r.value, r.ok
}

// IsOk reports whether the Result succeeded
func (r Result[T]) IsOk() bool {
	return r.ok
}

// Message returns the failure message, or "" for a successful Result
func (r Result[T]) Message() string {
	return r.msg
}
