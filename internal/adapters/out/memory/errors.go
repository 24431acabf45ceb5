package memory

import "errors"

// ErrNoTransaction is returned by Commit and Rollback without a matching Begin.
var ErrNoTransaction = errors.New("memory: no active transaction")
