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

package fd

import (
	"fmt"
	"strings"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/hardware/cpu"
)

// The size of one jump table entry in bytes.
const EntrySize = 6

// Biases of the functions every library has.
const (
	BiasOpenLib    = 6
	BiasCloseLib   = 12
	BiasExpungeLib = 18
	BiasEmpty      = 24
)

// DuplicateBias is returned when two functions are added with the same bias.
const DuplicateBias = "fd: %s: bias %d already used by %s"

// Arg is an argument of a function.
type Arg struct {
	Name string
	Reg  cpu.Register
}

// Func describes a function in a library.
type Func struct {
	Name    string
	Bias    int
	Private bool

	// Std is true for the functions every library has
	Std bool

	Args []Arg
}

// Index returns the position of the function in the jump table.
func (f *Func) Index() int {
	return f.Bias/EntrySize - 1
}

func (f *Func) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("%s(", f.Name))
	for i, a := range f.Args {
		if i > 0 {
			s.WriteString(",")
		}
		s.WriteString(fmt.Sprintf("%s/%s", a.Name, a.Reg))
	}
	s.WriteString(fmt.Sprintf(") -%d", f.Bias))
	return s.String()
}

// FuncTable is the set of functions in a library.
type FuncTable struct {
	BaseName string

	funcs   []*Func
	byBias  map[int]*Func
	byName  map[string]*Func
	index   []*Func
	maxBias int
}

// NewFuncTable is the preferred method of initialisation for the FuncTable
// type.
func NewFuncTable(baseName string) *FuncTable {
	return &FuncTable{
		BaseName: baseName,
		byBias:   make(map[int]*Func),
		byName:   make(map[string]*Func),
	}
}

// Add a function to the table.
func (ft *FuncTable) Add(f *Func) error {
	if o, ok := ft.byBias[f.Bias]; ok {
		return curated.Errorf(DuplicateBias, ft.BaseName, f.Bias, o.Name)
	}

	ft.funcs = append(ft.funcs, f)
	ft.byBias[f.Bias] = f
	ft.byName[f.Name] = f

	if f.Bias > ft.maxBias {
		ft.maxBias = f.Bias
	}

	idx := f.Index()
	for len(ft.index) <= idx {
		ft.index = append(ft.index, nil)
	}
	ft.index[idx] = f

	return nil
}

// AddStdFuncs adds the open, close, expunge and empty functions that every
// library has. Functions already in the table with the same bias are left as
// they are.
func (ft *FuncTable) AddStdFuncs() {
	std := []*Func{
		{Name: "_OpenLib", Bias: BiasOpenLib, Args: []Arg{{"MyLib", cpu.A6}}},
		{Name: "_CloseLib", Bias: BiasCloseLib, Args: []Arg{{"MyLib", cpu.A6}}},
		{Name: "_ExpungeLib", Bias: BiasExpungeLib, Args: []Arg{{"MyLib", cpu.A6}}},
		{Name: "_Empty", Bias: BiasEmpty},
	}
	for _, f := range std {
		if _, ok := ft.byBias[f.Bias]; ok {
			continue
		}
		f.Std = true
		_ = ft.Add(f)
	}
}

// Funcs returns the functions in the order they were added.
func (ft *FuncTable) Funcs() []*Func {
	return ft.funcs
}

// NumFuncs returns the number of functions in the table.
func (ft *FuncTable) NumFuncs() int {
	return len(ft.funcs)
}

// ByBias returns the function with the bias. Returns nil if there is no such
// function.
func (ft *FuncTable) ByBias(bias int) *Func {
	return ft.byBias[bias]
}

// ByName returns the named function. Returns nil if there is no such function.
func (ft *FuncTable) ByName(name string) *Func {
	return ft.byName[name]
}

// ByIndex returns the function at the position in the jump table. Returns
// nil for unused positions.
func (ft *FuncTable) ByIndex(idx int) *Func {
	if idx < 0 || idx >= len(ft.index) {
		return nil
	}
	return ft.index[idx]
}

// MaxBias returns the largest bias in the table.
func (ft *FuncTable) MaxBias() int {
	return ft.maxBias
}

// NumIndices returns the number of entries in the jump table.
func (ft *FuncTable) NumIndices() int {
	return ft.maxBias / EntrySize
}

// NegSize returns the size of the jump table in bytes. This is the
// negative size of the library.
func (ft *FuncTable) NegSize() int {
	return ft.maxBias + EntrySize
}
