package tickthread

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID parses the current goroutine id from the stack header
// ("goroutine 42 [running]:"). It returns 0 if the header is unexpected.
func goroutineID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
