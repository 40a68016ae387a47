// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp implements api.NetStream and api.Server over TCP.
// Asynchronous operations complete on a reactor goroutine; blocking socket
// calls run on their own goroutines so a slow peer never holds a worker.
package tcp
