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

package libmgr

import (
	"fmt"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/fd"
	"github.com/cnvogelg/vamos/hardware/cpu"
	"github.com/cnvogelg/vamos/hardware/runtime"
	"github.com/cnvogelg/vamos/logger"
	"github.com/pkg/errors"
)

// size of the stack used for nested runs outside of a task.
const hostStackSize = 4096

// runVector calls the library function at the bias. the returned value is
// the content of D0 after the call.
func (m *Manager) runVector(name string, base uint32, bias int, regs map[cpu.Register]uint32) (uint32, error) {
	set := map[cpu.Register]uint32{cpu.A6: base}
	for r, v := range regs {
		set[r] = v
	}

	code := runtime.Code{
		Name:    fmt.Sprintf("%s-%d", name, bias),
		PC:      base - uint32(bias),
		SetRegs: set,
		GetRegs: []cpu.Register{cpu.D0},
	}

	if m.ctx.Task() == nil {
		if m.stack == 0 {
			addr, err := m.ctx.Alloc.Alloc(hostStackSize, "libmgr stack")
			if err != nil {
				return 0, err
			}
			m.stack = addr
		}
		code.SP = m.stack + hostStackSize
	}

	rs, err := m.ctx.SubRun(code)
	if err != nil {
		return 0, errors.Wrapf(err, "libmgr: %s", code.Name)
	}
	return rs.Regs[cpu.D0], nil
}

// openNative loads the native library if necessary and calls its _OpenLib
// function.
func (m *Manager) openNative(name string, version uint16) (uint32, error) {
	nl, ok := m.alibs[name]
	if !ok {
		load, ok := m.natives[name]
		if !ok {
			return 0, curated.Errorf(LibraryNotFound, name, "no native library")
		}
		var err error
		nl, err = load(m.ctx)
		if err != nil {
			return 0, errors.Wrapf(err, "libmgr: loading %s", name)
		}
		m.alibs[name] = nl
		m.byAddr[nl.Base()] = name
		logger.Logf(logger.Allow, "libmgr", "loaded %s", nl)
	}

	addr, err := m.runVector(name, nl.Base(), fd.BiasOpenLib, map[cpu.Register]uint32{cpu.D0: uint32(version)})
	if err != nil {
		return 0, err
	}
	if addr == 0 {
		return 0, curated.Errorf(LibraryNotFound, name, "open refused")
	}
	if addr != nl.Base() {
		// libraries that create a new base for every opener are not
		// supported
		_, _ = m.runVector(name, nl.Base(), fd.BiasCloseLib, nil)
		return 0, curated.Errorf(LibraryNotFound, name, fmt.Sprintf("open returned new base %#06x", addr))
	}
	return addr, nil
}

// closeNative calls the _CloseLib function. a non-zero result means the
// library is to be removed from memory.
func (m *Manager) closeNative(name string) (bool, error) {
	nl := m.alibs[name]
	logger.Logf(logger.Allow, "libmgr", "close %s", nl)
	r, err := m.runVector(name, nl.Base(), fd.BiasCloseLib, nil)
	if err != nil {
		return false, err
	}
	if r == 0 {
		return false, nil
	}
	return true, m.unloadNative(name)
}

// expungeNative calls the _ExpungeLib function.
func (m *Manager) expungeNative(name string) (bool, error) {
	nl := m.alibs[name]
	r, err := m.runVector(name, nl.Base(), fd.BiasExpungeLib, nil)
	if err != nil {
		return false, err
	}
	if r == 0 {
		return false, nil
	}
	return true, m.unloadNative(name)
}

func (m *Manager) unloadNative(name string) error {
	nl := m.alibs[name]
	delete(m.alibs, name)
	delete(m.byAddr, nl.Base())
	logger.Logf(logger.Allow, "libmgr", "unload %s", nl)
	return nl.Free()
}
