// File: ip/endpoint.go
// Package ip defines the IP endpoint value type.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ip

import (
	"fmt"
	"net"
	"strconv"
)

// Port is a transport-layer port number.
type Port = uint16

// nullIP is the address of a cleared endpoint.
const nullIP = "null"

// Endpoint is a copyable IP address and port pair.
type Endpoint struct {
	IP   string
	Port Port
}

// New returns an endpoint for ip and port.
func New(ip string, port Port) Endpoint {
	return Endpoint{IP: ip, Port: port}
}

// FromAddr converts a TCP or UDP net.Addr. Other address kinds yield a
// cleared endpoint.
func FromAddr(addr net.Addr) Endpoint {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return Endpoint{IP: a.IP.String(), Port: Port(a.Port)}
	case *net.UDPAddr:
		return Endpoint{IP: a.IP.String(), Port: Port(a.Port)}
	}
	var e Endpoint
	e.Clear()
	return e
}

// Parse splits a "host:port" string.
func Parse(hostport string) (Endpoint, error) {
	host, p, err := net.SplitHostPort(hostport)
	if err != nil {
		return Endpoint{}, fmt.Errorf("ip: parse %q: %w", hostport, err)
	}
	port, err := strconv.ParseUint(p, 10, 16)
	if err != nil {
		return Endpoint{}, fmt.Errorf("ip: parse port %q: %w", p, err)
	}
	return Endpoint{IP: host, Port: Port(port)}, nil
}

// Set replaces both fields.
func (e *Endpoint) Set(ip string, port Port) {
	e.IP = ip
	e.Port = port
}

// Clear resets the endpoint to the "null" address and port 0.
func (e *Endpoint) Clear() {
	e.IP = nullIP
	e.Port = 0
}

// IsNull reports whether the endpoint was cleared or never set.
func (e Endpoint) IsNull() bool {
	return (e.IP == "" || e.IP == nullIP) && e.Port == 0
}

// String formats the endpoint as host:port, bracketing IPv6 hosts.
func (e Endpoint) String() string {
	return net.JoinHostPort(e.IP, strconv.Itoa(int(e.Port)))
}
