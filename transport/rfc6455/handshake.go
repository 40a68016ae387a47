// File: transport/rfc6455/handshake.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// HTTP/1.1 Upgrade negotiation for both ends of a connection.

package rfc6455

import (
	"bufio"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/momentics/vee/api"
)

const (
	websocketGUID    = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"
	websocketVersion = "13"
	maxHeaderBytes   = 8192
)

func acceptKey(key string) string {
	h := sha1.New()
	h.Write([]byte(key + websocketGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// serverHandshake reads the upgrade request from br and answers on w.
// Rejected requests get a 400 before the error is returned.
func serverHandshake(br *bufio.Reader, w io.Writer) error {
	req, err := http.ReadRequest(br)
	if err != nil {
		return fmt.Errorf("%w: read request: %w", api.ErrHandshakeFailed, err)
	}
	if err := validateRequest(req); err != nil {
		fmt.Fprint(w, "HTTP/1.1 400 Bad Request\r\nConnection: close\r\n\r\n")
		return fmt.Errorf("%w: %w", api.ErrHandshakeFailed, err)
	}
	resp := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + acceptKey(req.Header.Get("Sec-WebSocket-Key")) + "\r\n\r\n"
	if _, err := io.WriteString(w, resp); err != nil {
		return fmt.Errorf("%w: write response: %w", api.ErrHandshakeFailed, err)
	}
	return nil
}

func validateRequest(req *http.Request) error {
	total := 0
	for k, vs := range req.Header {
		total += len(k)
		for _, v := range vs {
			total += len(v)
		}
	}
	switch {
	case total > maxHeaderBytes:
		return fmt.Errorf("headers too large")
	case req.Method != http.MethodGet:
		return fmt.Errorf("method %s", req.Method)
	case !hasToken(req.Header, "Connection", "upgrade"), !hasToken(req.Header, "Upgrade", "websocket"):
		return fmt.Errorf("missing upgrade headers")
	case req.Header.Get("Sec-WebSocket-Version") != websocketVersion:
		return fmt.Errorf("unsupported version %q", req.Header.Get("Sec-WebSocket-Version"))
	case req.Header.Get("Sec-WebSocket-Key") == "":
		return fmt.Errorf("missing Sec-WebSocket-Key")
	}
	return nil
}

// clientHandshake sends an upgrade request for host and path on w and
// checks the answer read from br.
func clientHandshake(br *bufio.Reader, w io.Writer, host, path string) error {
	var nonce [16]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return err
	}
	key := base64.StdEncoding.EncodeToString(nonce[:])

	req, err := http.NewRequest(http.MethodGet, "http://"+host+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", api.ErrHandshakeFailed, err)
	}
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Sec-WebSocket-Key", key)
	req.Header.Set("Sec-WebSocket-Version", websocketVersion)
	if err := req.Write(w); err != nil {
		return fmt.Errorf("%w: write request: %w", api.ErrHandshakeFailed, err)
	}

	resp, err := http.ReadResponse(br, req)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", api.ErrHandshakeFailed, err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		return fmt.Errorf("%w: status %d", api.ErrHandshakeFailed, resp.StatusCode)
	}
	if resp.Header.Get("Sec-WebSocket-Accept") != acceptKey(key) {
		return fmt.Errorf("%w: bad Sec-WebSocket-Accept", api.ErrHandshakeFailed)
	}
	return nil
}

func hasToken(h http.Header, name, token string) bool {
	for _, v := range h.Values(name) {
		for _, part := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}
	return false
}
