// File: delegate/callable.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Identity extraction and the comparable callable wrapper.

package delegate

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// Key is the opaque identity of a plain function: its code address.
type Key uintptr

// GenKey derives the identity of fn. It succeeds only when fn is a named
// top-level function or a method expression; nil, function literals and method
// values fail with ErrKeyGenerationFailed.
func GenKey[A any](fn func(A)) (Key, error) {
	if fn == nil {
		return 0, fmt.Errorf("%w: nil function", ErrKeyGenerationFailed)
	}
	pc := reflect.ValueOf(fn).Pointer()
	f := runtime.FuncForPC(pc)
	if f == nil {
		return 0, fmt.Errorf("%w: unknown symbol at %#x", ErrKeyGenerationFailed, pc)
	}
	if name := f.Name(); !isPlainFunc(name, reflect.TypeOf(fn).In(0)) {
		return 0, fmt.Errorf("%w: %s is not a plain function", ErrKeyGenerationFailed, name)
	}
	return Key(pc), nil
}

// isPlainFunc reports whether a runtime symbol names a top-level function or a
// method expression, as opposed to a closure ("pkg.F.func1", "pkg.glob..func1")
// or a bound method value ("pkg.T.M-fm"). recv is the parameter type of the
// callable; a symbol naming one of its methods is a method expression even when
// the method itself is called funcN.
func isPlainFunc(name string, recv reflect.Type) bool {
	if strings.HasSuffix(name, "-fm") {
		return false
	}
	name = stripTypeArgs(name)
	if prefix := methodPrefix(recv); prefix != "" && strings.HasPrefix(name, prefix) {
		if m := name[len(prefix):]; m != "" && !strings.Contains(m, ".") {
			return true
		}
	}
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return false
	}
	for i, p := range parts[1:] {
		if p == "" {
			return false
		}
		// parts[0] is the package name; a funcN segment after the function
		// name marks a literal.
		if i >= 1 && isLiteralSegment(p) {
			return false
		}
	}
	return true
}

// methodPrefix returns the symbol prefix of methods declared on t, such as
// "example.com/pkg.T." or "example.com/pkg.(*T).", or "" for unnamed types.
func methodPrefix(t reflect.Type) string {
	ptr := false
	if t.Kind() == reflect.Pointer {
		t, ptr = t.Elem(), true
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return ""
	}
	name := stripTypeArgs(t.Name())
	if ptr {
		name = "(*" + name + ")"
	}
	return t.PkgPath() + "." + name + "."
}

func isLiteralSegment(p string) bool {
	if p[0] >= '0' && p[0] <= '9' {
		return true // nested literal: "pkg.F.func1.2"
	}
	if !strings.HasPrefix(p, "func") || len(p) == len("func") {
		return false
	}
	for _, c := range p[len("func"):] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// stripTypeArgs removes instantiation brackets, which may themselves contain
// dots and slashes.
func stripTypeArgs(name string) string {
	if !strings.Contains(name, "[") {
		return name
	}
	var b strings.Builder
	depth := 0
	for _, c := range name {
		switch {
		case c == '[':
			depth++
		case c == ']':
			depth--
		case depth == 0:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// callable pairs a target with the capability needed to compare it. Only
// targets reduced to a plain function reference are comparable.
type callable[A any] struct {
	fn         func(A)
	key        Key
	comparable bool
}

func newCallable[A any](fn func(A)) (callable[A], error) {
	key, err := GenKey(fn)
	if err != nil {
		return callable[A]{}, err
	}
	return callable[A]{fn: fn, key: key, comparable: true}, nil
}

// equal is false whenever either side is opaque.
func (c callable[A]) equal(o callable[A]) bool {
	return c.comparable && o.comparable && c.key == o.key
}
