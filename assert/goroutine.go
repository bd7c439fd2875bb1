// This file is part of vamos.
//
// vamos is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// vamos is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with vamos.  If not, see <https://www.gnu.org/licenses/>.

// Package assert contains helpers for checking assumptions about the running
// program in tests.
package assert

import (
	"bytes"
	"runtime"
	"strconv"
)

// GoroutineID returns a number identifying the calling goroutine. The
// number is the same for every call from the same goroutine and differs
// between goroutines that exist at the same time.
//
// Only for use in tests. Tasks are not meant to know which goroutine they
// run on.
func GoroutineID() uint64 {
	b := make([]byte, 64)
	b = b[:runtime.Stack(b, false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	n, _ := strconv.ParseUint(string(b), 10, 64)
	return n
}
