// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor runs asynchronous operations on a pool of worker goroutines
// and guarantees each one delivers exactly one completion: either the operation
// executes, or it is aborted because the reactor shut down first.
//
// Transports run blocking socket calls on their own goroutines and post only
// the completion here, so a slow peer never occupies a worker.
package reactor
