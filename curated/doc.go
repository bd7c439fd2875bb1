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

// Package curated is a helper package for the plain Go language error type.
// Curated errors implement the error interface.
//
// Curated errors are created with the Errorf() function. It takes a pattern,
// placeholder values and returns an error. The pattern is what identifies the
// error and so sentinel patterns are declared as constants in the package that
// raises them. For example, the allocator declares:
//
//	const OutOfMemory = "alloc: out of memory: %d bytes requested"
//
// and a caller tests for the condition with:
//
//	if curated.Is(err, alloc.OutOfMemory) {
//		...
//	}
//
// The Has() function is similar but checks if a pattern occurs somewhere in
// the error chain:
//
//	e := curated.Errorf(alloc.OutOfMemory, 100)
//	f := curated.Errorf("task: %v", e)
//
//	curated.Has(f, alloc.OutOfMemory) // true
//	curated.Is(f, alloc.OutOfMemory)  // false
//
// The Error() function normalises the error chain by removing duplicate
// adjacent parts. Parts are separated by the sub-string ": ". This means that
// each layer can prefix its own name without worrying about repetition:
//
//	schedule: schedule: task 'main' failed
//
// is printed as:
//
//	schedule: task 'main' failed
//
// Curated errors also implement Unwrap() so that the standard errors.Is() and
// errors.As() functions reach the first wrapped error value.
package curated
