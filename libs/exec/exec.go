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

package exec

import (
	"time"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/hardware"
	"github.com/cnvogelg/vamos/libcore"
	"github.com/cnvogelg/vamos/libmgr"
	"github.com/cnvogelg/vamos/logger"
	"github.com/cnvogelg/vamos/schedule"
)

// Name of the library.
const Name = "exec.library"

// NoTask is returned by methods that need the calling task when there is no
// current task.
const NoTask = "exec: %s called outside of a task"

// memory requirement flags.
const (
	MemfAny     = 0
	MemfPublic  = 1 << 0
	MemfChip    = 1 << 1
	MemfFast    = 1 << 2
	MemfClear   = 1 << 16
	MemfLargest = 1 << 17
)

// Info of the library.
var Info = libcore.Info{
	Name:     Name,
	Version:  40,
	Revision: 68,
	Date:     time.Date(1993, time.July, 16, 0, 0, 0, 0, time.UTC),
}

// Exec implements the libcore.Impl interface.
type Exec struct {
	mgr *libmgr.Manager
}

// Register the implementation with the library manager.
func Register(mgr *libmgr.Manager) {
	mgr.AddHost(Info, func() libcore.Impl {
		return &Exec{mgr: mgr}
	})
}

// Bootstrap creates the library and locks it in memory.
func Bootstrap(mgr *libmgr.Manager) (*libcore.VLib, error) {
	return mgr.Preload(Name, true)
}

// SetupLib implements the libcore.Setupper interface.
func (e *Exec) SetupLib(ctx *libcore.Context, base uint32) error {
	ctx.Mem.Write32(hardware.ExecBasePtr, base)
	return nil
}

// FinishLib implements the libcore.Finisher interface.
func (e *Exec) FinishLib(ctx *libcore.Context) error {
	ctx.Mem.Write32(hardware.ExecBasePtr, 0)
	return nil
}

// Methods implements the libcore.Impl interface.
func (e *Exec) Methods() map[string]libcore.Method {
	return map[string]libcore.Method{
		"Forbid":         e.forbid,
		"Permit":         e.permit,
		"AllocMem":       e.allocMem,
		"FreeMem":        e.freeMem,
		"AvailMem":       e.availMem,
		"FindTask":       e.findTask,
		"SetSignal":      e.setSignal,
		"Wait":           e.wait,
		"Signal":         e.signal,
		"AllocSignal":    e.allocSignal,
		"FreeSignal":     e.freeSignal,
		"OldOpenLibrary": e.oldOpenLibrary,
		"OpenLibrary":    e.openLibrary,
		"CloseLibrary":   e.closeLibrary,
	}
}

func task(ctx *libcore.Context, fn string) (*schedule.Task, error) {
	t := ctx.Task()
	if t == nil {
		return nil, curated.Errorf(NoTask, fn)
	}
	return t, nil
}

func (e *Exec) forbid(ctx *libcore.Context, _ libcore.Args) (libcore.Result, error) {
	t, err := task(ctx, "Forbid")
	if err != nil {
		return libcore.NoResult, err
	}
	t.Forbid()
	return libcore.NoResult, nil
}

func (e *Exec) permit(ctx *libcore.Context, _ libcore.Args) (libcore.Result, error) {
	t, err := task(ctx, "Permit")
	if err != nil {
		return libcore.NoResult, err
	}
	t.Permit()
	return libcore.NoResult, nil
}

func (e *Exec) allocMem(ctx *libcore.Context, args libcore.Args) (libcore.Result, error) {
	size, flags := args.Get(0), args.Get(1)
	if size == 0 {
		return libcore.Ret(0), nil
	}

	// memory is always cleared so MEMF_CLEAR needs no special treatment
	addr, ok := ctx.Alloc.AllocProbe(size, "AllocMem")
	if !ok {
		logger.Logf(logger.Allow, "exec", "AllocMem(%d, %#x) failed: %d bytes free", size, flags, ctx.Alloc.FreeBytes())
		return libcore.Ret(0), nil
	}
	return libcore.Ret(addr), nil
}

func (e *Exec) freeMem(ctx *libcore.Context, args libcore.Args) (libcore.Result, error) {
	addr, size := args.Get(0), args.Get(1)
	if addr == 0 || size == 0 {
		return libcore.NoResult, nil
	}
	return libcore.NoResult, ctx.Alloc.Free(addr, size)
}

func (e *Exec) availMem(ctx *libcore.Context, args libcore.Args) (libcore.Result, error) {
	if args.Get(0)&MemfLargest == MemfLargest {
		return libcore.Ret(ctx.Alloc.LargestChunk()), nil
	}
	return libcore.Ret(ctx.Alloc.FreeBytes()), nil
}

func (e *Exec) findTask(ctx *libcore.Context, args libcore.Args) (libcore.Result, error) {
	if args.Get(0) == 0 {
		t, err := task(ctx, "FindTask")
		if err != nil {
			return libcore.NoResult, err
		}
		return libcore.Ret(t.Addr()), nil
	}

	name := ctx.Mem.ReadCStr(args.Get(0))
	if t := ctx.Sched.FindTask(name); t != nil {
		return libcore.Ret(t.Addr()), nil
	}
	logger.Logf(logger.Allow, "exec", "FindTask(%s): not found", name)
	return libcore.Ret(0), nil
}

func (e *Exec) setSignal(ctx *libcore.Context, args libcore.Args) (libcore.Result, error) {
	t, err := task(ctx, "SetSignal")
	if err != nil {
		return libcore.NoResult, err
	}
	return libcore.Ret(t.SetSignal(args.Get(0), args.Get(1))), nil
}

func (e *Exec) wait(ctx *libcore.Context, args libcore.Args) (libcore.Result, error) {
	t, err := task(ctx, "Wait")
	if err != nil {
		return libcore.NoResult, err
	}
	got, err := t.Wait(args.Get(0))
	if err != nil {
		return libcore.NoResult, err
	}
	return libcore.Ret(got), nil
}

func (e *Exec) signal(ctx *libcore.Context, args libcore.Args) (libcore.Result, error) {
	addr, sigs := args.Get(0), args.Get(1)
	t := ctx.Sched.TaskByAddr(addr)
	if t == nil {
		logger.Logf(logger.Allow, "exec", "Signal(%#06x, %#08x): no such task", addr, sigs)
		return libcore.NoResult, nil
	}
	t.SetSignal(sigs, sigs)
	return libcore.NoResult, nil
}

func (e *Exec) allocSignal(ctx *libcore.Context, args libcore.Args) (libcore.Result, error) {
	t, err := task(ctx, "AllocSignal")
	if err != nil {
		return libcore.NoResult, err
	}
	n := t.AllocSignal(int(int8(args.Get(0))))
	return libcore.Ret(uint32(int32(n))), nil
}

func (e *Exec) freeSignal(ctx *libcore.Context, args libcore.Args) (libcore.Result, error) {
	t, err := task(ctx, "FreeSignal")
	if err != nil {
		return libcore.NoResult, err
	}
	t.FreeSignal(int(int8(args.Get(0))))
	return libcore.NoResult, nil
}

func (e *Exec) oldOpenLibrary(ctx *libcore.Context, args libcore.Args) (libcore.Result, error) {
	return e.open(ctx, args.Get(0), 0)
}

func (e *Exec) openLibrary(ctx *libcore.Context, args libcore.Args) (libcore.Result, error) {
	return e.open(ctx, args.Get(0), uint16(args.Get(1)))
}

// open the library. libraries that can't be found, or which are too old,
// are reported to the caller by a zero result.
func (e *Exec) open(ctx *libcore.Context, nameAddr uint32, version uint16) (libcore.Result, error) {
	name := ctx.Mem.ReadCStr(nameAddr)
	base, err := e.mgr.Open(name, version)
	if err != nil {
		if curated.Has(err, libmgr.LibraryNotFound) || curated.Has(err, libmgr.VersionMismatch) {
			logger.Logf(logger.Allow, "exec", "OpenLibrary(%s, %d): %v", name, version, err)
			return libcore.Ret(0), nil
		}
		return libcore.NoResult, err
	}
	return libcore.Ret(base), nil
}

func (e *Exec) closeLibrary(ctx *libcore.Context, args libcore.Args) (libcore.Result, error) {
	base := args.Get(0)
	if base == 0 {
		return libcore.NoResult, nil
	}
	if _, err := e.mgr.Close(base); err != nil {
		if curated.Is(err, libmgr.UnknownBase) {
			logger.Logf(logger.Allow, "exec", "CloseLibrary(%#06x): %v", base, err)
			return libcore.NoResult, nil
		}
		return libcore.NoResult, err
	}
	return libcore.NoResult, nil
}
