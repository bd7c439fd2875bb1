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
	"sort"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/fd"
	"github.com/cnvogelg/vamos/libcore"
	"github.com/cnvogelg/vamos/logger"
	"github.com/pkg/errors"
)

// Sentinel errors.
const (
	LibraryNotFound = "libmgr: %s: library not found (%s)"
	VersionMismatch = "libmgr: %s: version %d requested but only %d available"
	UnknownBase     = "libmgr: no library at %#06x"
)

// Config of the Manager.
type Config struct {
	// mode for libraries without an entry in Modes. the empty string means
	// ModeAuto
	Default Mode
	Modes   Modes

	// version numbers presented in place of the versions of the host
	// implementations
	Versions map[string]uint16

	// stub variant for host libraries
	Variant libcore.Variant
}

// HostLib is a registered host implementation.
type HostLib struct {
	Info libcore.Info
	New  func() libcore.Impl
}

// NativeLoader places a native library in memory.
type NativeLoader func(ctx *libcore.Context) (*libcore.NativeLib, error)

// Manager of the libraries in emulated memory.
type Manager struct {
	ctx    *libcore.Context
	loader *fd.Loader
	cfg    Config

	hosts   map[string]HostLib
	natives map[string]NativeLoader

	vlibs  map[string]*libcore.VLib
	alibs  map[string]*libcore.NativeLib
	byAddr map[uint32]string

	// profiles of expunged libraries
	profiles libcore.Profiles

	// stack for nested runs outside of a task. allocated on demand
	stack uint32
}

// NewManager is the preferred method of initialisation for the Manager type.
func NewManager(ctx *libcore.Context, loader *fd.Loader, cfg Config) *Manager {
	if cfg.Default == "" {
		cfg.Default = ModeAuto
	}
	if cfg.Modes == nil {
		cfg.Modes = make(Modes)
	}
	logger.Logf(logger.Allow, "libmgr", "default mode %s, modes [%s], stubs %s", cfg.Default, cfg.Modes, cfg.Variant)
	return &Manager{
		ctx:      ctx,
		loader:   loader,
		cfg:      cfg,
		hosts:    make(map[string]HostLib),
		natives:  make(map[string]NativeLoader),
		vlibs:    make(map[string]*libcore.VLib),
		alibs:    make(map[string]*libcore.NativeLib),
		byAddr:   make(map[uint32]string),
		profiles: make(libcore.Profiles),
	}
}

func (m *Manager) String() string {
	return fmt.Sprintf("%d host libraries, %d native libraries", len(m.vlibs), len(m.alibs))
}

// Context returns the context the libraries are created with.
func (m *Manager) Context() *libcore.Context {
	return m.ctx
}

// AddHost registers a host implementation. The name in the Info is the name
// emulated code opens the library with.
func (m *Manager) AddHost(info libcore.Info, newImpl func() libcore.Impl) {
	m.hosts[info.Name] = HostLib{Info: info, New: newImpl}
}

// AddNative registers the loader of a native library.
func (m *Manager) AddNative(name string, load NativeLoader) {
	m.natives[name] = load
}

// Mode returns the mode for the library name.
func (m *Manager) Mode(name string) Mode {
	if md, ok := m.cfg.Modes[name]; ok {
		return md
	}
	if md, ok := m.cfg.Modes[BaseName(name)]; ok {
		return md
	}
	return m.cfg.Default
}

// VLib returns the host library with the name. Returns nil if the library is
// not in memory.
func (m *Manager) VLib(name string) *libcore.VLib {
	return m.vlibs[BaseName(name)]
}

// VLibByAddr returns the host library with the base address. Returns nil if
// there is no host library at the address.
func (m *Manager) VLibByAddr(addr uint32) *libcore.VLib {
	return m.vlibs[m.byAddr[addr]]
}

// NativeLib returns the native library with the name. Returns nil if the
// library is not in memory.
func (m *Manager) NativeLib(name string) *libcore.NativeLib {
	return m.alibs[BaseName(name)]
}

// Names returns the names of the libraries in memory in alphabetical order.
func (m *Manager) Names() []string {
	n := make([]string, 0, len(m.byAddr))
	for _, name := range m.byAddr {
		n = append(n, name)
	}
	sort.Strings(n)
	return n
}

// Preload creates a host library without opening it. A locked library is
// never expunged.
func (m *Manager) Preload(name string, lock bool) (*libcore.VLib, error) {
	name = BaseName(name)
	v, ok := m.vlibs[name]
	if !ok {
		h, ok := m.hosts[name]
		if !ok {
			return nil, curated.Errorf(LibraryNotFound, name, "no host implementation")
		}
		var err error
		v, err = m.createHost(name, &h)
		if err != nil {
			return nil, err
		}
	}
	if lock {
		v.Lock()
	}
	return v, nil
}

// Open the library and return its base address. The version is the minimum
// version acceptable to the caller.
func (m *Manager) Open(name string, version uint16) (uint32, error) {
	base := BaseName(name)
	mode := m.Mode(name)
	logger.Logf(logger.Allow, "libmgr", "open %s (%s) version %d mode %s", name, base, version, mode)

	var addr uint32
	var err error

	switch mode {
	case ModeOff:
		return 0, curated.Errorf(LibraryNotFound, base, "mode off")

	case ModeVamos:
		h, ok := m.hosts[base]
		if !ok {
			return 0, curated.Errorf(LibraryNotFound, base, "no host implementation")
		}
		addr, err = m.openHost(base, &h)

	case ModeAmiga:
		addr, err = m.openNative(base, version)

	case ModeFake:
		addr, err = m.openHost(base, nil)

	default:
		if h, ok := m.hosts[base]; ok {
			addr, err = m.openHost(base, &h)
		} else if _, ok := m.natives[base]; ok {
			addr, err = m.openNative(base, version)
		} else {
			addr, err = m.openHost(base, nil)
		}
	}

	if err != nil {
		return 0, err
	}

	lib := libcore.NewLibrary(m.ctx.Mem, addr)
	if version > lib.Version() {
		logger.Logf(logger.Allow, "libmgr", "%s: version %d too old for %d", base, lib.Version(), version)
		if _, err := m.Close(addr); err != nil {
			return 0, err
		}
		return 0, curated.Errorf(VersionMismatch, base, version, lib.Version())
	}

	return addr, nil
}

// openHost opens a host library, creating it if necessary. a nil HostLib
// creates a fake library.
func (m *Manager) openHost(name string, h *HostLib) (uint32, error) {
	v, ok := m.vlibs[name]
	if !ok {
		var err error
		v, err = m.createHost(name, h)
		if err != nil {
			return 0, err
		}
	}
	if err := v.Open(); err != nil {
		return 0, err
	}
	return v.Base(), nil
}

func (m *Manager) createHost(name string, h *HostLib) (*libcore.VLib, error) {
	ft, err := m.loader.Load(name)
	if err != nil {
		if curated.Is(errors.Cause(err), fd.NotFound) {
			return nil, curated.Errorf(LibraryNotFound, name, "no function description")
		}
		return nil, errors.Wrapf(err, "libmgr: %s", name)
	}

	info := libcore.Info{Name: name}
	var impl libcore.Impl
	if h != nil {
		info = h.Info
		impl = h.New()
	}
	if ver, ok := m.cfg.Versions[name]; ok {
		info.Version = ver
	}

	v, err := libcore.NewVLib(m.ctx, info, ft, impl, m.cfg.Variant)
	if err != nil {
		return nil, err
	}
	m.vlibs[name] = v
	m.byAddr[v.Base()] = name

	return v, nil
}

// Close the library with the base address. Returns true if the library was
// expunged.
func (m *Manager) Close(addr uint32) (bool, error) {
	name, ok := m.byAddr[addr]
	if !ok {
		return false, curated.Errorf(UnknownBase, addr)
	}

	if v, ok := m.vlibs[name]; ok {
		logger.Logf(logger.Allow, "libmgr", "close %s", v)
		if err := v.Close(); err != nil {
			return false, err
		}
		if !v.CanExpunge() {
			return false, nil
		}
		return true, m.expungeHost(v)
	}

	return m.closeNative(name)
}

// Expunge the library with the base address. Returns true if the library was
// removed from memory. Libraries that are still open are not expunged.
func (m *Manager) Expunge(addr uint32) (bool, error) {
	name, ok := m.byAddr[addr]
	if !ok {
		return false, curated.Errorf(UnknownBase, addr)
	}

	if v, ok := m.vlibs[name]; ok {
		if !v.CanExpunge() {
			return false, nil
		}
		return true, m.expungeHost(v)
	}

	return m.expungeNative(name)
}

func (m *Manager) expungeHost(v *libcore.VLib) error {
	delete(m.vlibs, v.Name())
	delete(m.byAddr, v.Base())
	if p := v.Profile(); p != nil {
		m.profiles.Merge(libcore.Profiles{v.Name(): p.Clone()})
	}
	logger.Logf(logger.Allow, "libmgr", "expunge %s", v.Name())
	return v.Free()
}

// ExpungeAll expunges every library that is not open. Returns the number of
// libraries that remain.
func (m *Manager) ExpungeAll() (int, error) {
	for _, name := range m.Names() {
		var err error
		if v, ok := m.vlibs[name]; ok {
			if v.CanExpunge() {
				err = m.expungeHost(v)
			}
		} else {
			_, err = m.expungeNative(name)
		}
		if err != nil {
			return len(m.byAddr), err
		}
	}
	return len(m.byAddr), nil
}

// Shutdown closes every library that is still open, with a warning for each
// open that was never closed, and expunges everything. Returns the number of
// libraries that could not be expunged.
func (m *Manager) Shutdown() (int, error) {
	for _, name := range m.Names() {
		if v, ok := m.vlibs[name]; ok {
			v.Unlock()
			for v.OpenCnt() > 0 {
				logger.Logf(logger.Allow, "libmgr", "shutdown: %s was not closed", name)
				if err := v.Close(); err != nil {
					return len(m.byAddr), err
				}
			}
			continue
		}

		nl := m.alibs[name]
		for n := nl.Library().OpenCnt(); n > 0; n-- {
			logger.Logf(logger.Allow, "libmgr", "shutdown: %s was not closed", name)
			gone, err := m.closeNative(name)
			if err != nil {
				return len(m.byAddr), err
			}
			if gone {
				break
			}
		}
	}

	left, err := m.ExpungeAll()
	if left > 0 {
		logger.Logf(logger.Allow, "libmgr", "shutdown: %d libraries left in memory", left)
	}

	if m.stack != 0 {
		if ferr := m.ctx.Alloc.Release(m.stack); ferr != nil && err == nil {
			err = ferr
		}
		m.stack = 0
	}

	return left, err
}

// Profiles returns the call profiles of all host libraries created with
// profiling, including those that have been expunged.
func (m *Manager) Profiles() libcore.Profiles {
	ps := make(libcore.Profiles)
	for name, p := range m.profiles {
		ps[name] = p.Clone()
	}
	for name, v := range m.vlibs {
		if p := v.Profile(); p != nil {
			ps.Merge(libcore.Profiles{name: p.Clone()})
		}
	}
	return ps
}
