// Package session
// Author: momentics <momentics@gmail.com>
//
// Registry of live sessions, sharded by session id so that connection
// churn on many goroutines does not contend on one lock.

package session
