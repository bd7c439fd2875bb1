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

package alloc

import (
	"fmt"
	"io"
	"sort"

	"github.com/bradleyjkemp/memviz"
	"github.com/davecgh/go-spew/spew"

	"github.com/cnvogelg/vamos/logger"
)

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	DisableMethods:          true,
}

// Allocations returns the live allocations in address order.
func (a *Allocator) Allocations() []Allocation {
	l := make([]Allocation, 0, len(a.allocs))
	for _, r := range a.allocs {
		l = append(l, *r)
	}
	sort.Slice(l, func(i, j int) bool { return l[i].Addr < l[j].Addr })
	return l
}

// Orphans returns the regions of memory that are neither free nor part of
// a live allocation. If the allocator is working correctly there will be
// none.
func (a *Allocator) Orphans() []Allocation {
	type region struct {
		addr uint32
		size uint32
	}

	var used []region
	for c := a.free; c != nil; c = c.next {
		used = append(used, region{addr: c.addr, size: c.size})
	}
	for _, r := range a.allocs {
		used = append(used, region{addr: r.Addr, size: r.Size})
	}
	sort.Slice(used, func(i, j int) bool { return used[i].addr < used[j].addr })

	var orphans []Allocation
	next := a.addr
	for _, r := range used {
		if r.addr > next {
			orphans = append(orphans, Allocation{Addr: next, Size: r.addr - next, Tag: "orphan"})
		}
		if end := r.addr + r.size; end > next {
			next = end
		}
	}
	if end := a.addr + a.size; next < end {
		orphans = append(orphans, Allocation{Addr: next, Size: end - next, Tag: "orphan"})
	}

	return orphans
}

// Dump writes the free list and the live allocations to the writer.
func (a *Allocator) Dump(w io.Writer) {
	fmt.Fprintf(w, "%s\n", a)
	n := 0
	for c := a.free; c != nil; c = c.next {
		fmt.Fprintf(w, "free #%02d: %s\n", n, c)
		n++
	}
	for _, r := range a.Allocations() {
		fmt.Fprintf(w, "alloc:    %s\n", r)
	}
}

// DumpOrphans writes the orphaned regions to the log. Returns the number of
// orphans found.
func (a *Allocator) DumpOrphans() int {
	orphans := a.Orphans()
	for _, o := range orphans {
		logger.Logf(logger.Allow, "alloc", "orphan: %s", o)
	}
	return len(orphans)
}

// write the allocator state to the log.
func (a *Allocator) logState() {
	logger.Logf(logger.Allow, "alloc", "live allocations: %s", dumpConfig.Sdump(a.Allocations()))
	a.DumpOrphans()
}

// Graph writes the free list and the live allocations to the writer in
// graphviz format.
func (a *Allocator) Graph(w io.Writer) {
	g := struct {
		Free        *chunk
		Allocations []Allocation
	}{
		Free:        a.free,
		Allocations: a.Allocations(),
	}
	memviz.Map(w, &g)
}
