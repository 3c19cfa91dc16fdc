// Package goid exposes the identity of the calling goroutine.
//
// The runtime does not surface goroutine ids through a stable API, so the id
// is parsed from the first line of the goroutine's stack header
// ("goroutine 123 [running]:"). The header format has been stable since Go 1.
package goid

import (
	"bytes"
	"runtime"
	"strconv"
)

var prefix = []byte("goroutine ")

// ID returns the runtime id of the calling goroutine. It never returns 0 for
// a live goroutine; 0 signals a header the parser did not recognise.
func ID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	header := buf[:n]
	if !bytes.HasPrefix(header, prefix) {
		return 0
	}
	header = header[len(prefix):]
	end := bytes.IndexByte(header, ' ')
	if end < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(header[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
