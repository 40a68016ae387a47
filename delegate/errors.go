// File: delegate/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for the delegate registry.

package delegate

import "errors"

var (
	// ErrKeyGenerationFailed indicates a callable has no address-stable identity.
	ErrKeyGenerationFailed = errors.New("delegate: key generation failed")

	// ErrKeyAlreadyExists indicates a keyed registration collided with an existing key.
	ErrKeyAlreadyExists = errors.New("delegate: key already exists")

	// ErrTargetNotFound indicates a removal matched no registered target.
	ErrTargetNotFound = errors.New("delegate: target not found")

	// ErrInvalidTarget indicates a registration supplied a nil function.
	ErrInvalidTarget = errors.New("delegate: invalid target")
)
