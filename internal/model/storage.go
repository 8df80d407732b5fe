package model

// KV is durable local key-value storage. Absence of a key is reported as
// ErrNotFound, not a failure.
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
}
