// Package rfc6455 implements api.NetStream and api.Server over WebSocket.
//
// A session performs the HTTP/1.1 upgrade and then exchanges binary frames.
// Frames sent by a client are masked; frames from a server are not.
// Control frames are handled inside ReadSome: ping is answered with pong
// and close is answered and reported as io.EOF.
package rfc6455
