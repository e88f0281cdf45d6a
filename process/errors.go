package process

import "errors"

// ErrStoreRequired is returned when a raw store is not provided.
var ErrStoreRequired = errors.New("raw store required")
