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

package schedule

import (
	"fmt"

	"github.com/cnvogelg/vamos/alloc"
	"github.com/cnvogelg/vamos/hardware/memory"
)

// Stack is the stack of a task.
type Stack struct {
	Lower     uint32
	Upper     uint32
	InitialSP uint32
}

func (stk Stack) String() string {
	return fmt.Sprintf("stack [%06x, %06x] sp=%06x", stk.Lower, stk.Upper, stk.InitialSP)
}

// Size returns the size of the stack in bytes.
func (stk Stack) Size() uint32 {
	return stk.Upper - stk.Lower
}

// allocStack allocates a stack and stores its size in the top long word. The
// initial stack pointer leaves room for the size and one further long word.
func allocStack(a *alloc.Allocator, mem *memory.RAM, size uint32, name string) (Stack, error) {
	size = (size + 3) &^ 3
	lower, err := a.Alloc(size, fmt.Sprintf("%s stack", name))
	if err != nil {
		return Stack{}, err
	}
	upper := lower + size
	mem.Write32(upper-4, size)
	return Stack{
		Lower:     lower,
		Upper:     upper,
		InitialSP: upper - 8,
	}, nil
}
