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

package environment

import (
	"io"

	"github.com/cnvogelg/vamos/alloc"
	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/fd"
	"github.com/cnvogelg/vamos/hardware"
	"github.com/cnvogelg/vamos/libcore"
	"github.com/cnvogelg/vamos/libmgr"
	"github.com/cnvogelg/vamos/libs/exec"
	"github.com/cnvogelg/vamos/libs/vamostest"
	"github.com/cnvogelg/vamos/logger"
	"github.com/cnvogelg/vamos/notifications"
	"github.com/cnvogelg/vamos/preferences"
	"github.com/cnvogelg/vamos/schedule"
)

// NotAllFree is returned by Close() when memory is still allocated after
// everything has been shut down.
const NotAllFree = "environment: %d bytes in %d allocations not freed"

// Label is used to name the environment.
type Label string

// Environment owns the state shared by everything running on one emulated
// machine. The fields are created in order by NewEnvironment() and torn down
// in reverse order by Close().
type Environment struct {
	Label Label

	// the preferences the environment was created with. changing the values
	// has no effect on an existing environment
	Prefs *preferences.Preferences

	Machine *hardware.Machine
	Alloc   *alloc.Allocator
	Sched   *schedule.Scheduler
	Loader  *fd.Loader
	Libs    *libmgr.Manager

	// base address of exec.library. also stored at hardware.ExecBasePtr
	ExecBase uint32

	ctx *libcore.Context
}

// NewEnvironment is the preferred method of initialisation for the
// Environment type.
//
// The prefs argument can be nil, in which case the preferences are loaded
// from the default preferences file. The notify argument can also be nil.
// Output of the vamostest library goes to out, or to stdout if out is nil.
func NewEnvironment(label Label, p *preferences.Preferences, notify notifications.Notify, out io.Writer) (*Environment, error) {
	env := &Environment{
		Label: label,
		Prefs: p,
	}

	var err error

	if env.Prefs == nil {
		env.Prefs, err = preferences.NewPreferences("")
		if err != nil {
			return nil, err
		}
	}

	libsCfg, err := env.libraryConfig()
	if err != nil {
		return nil, err
	}

	env.Machine, err = hardware.NewMachine(env.Prefs.Machine.RAMBytes())
	if err != nil {
		return nil, err
	}

	env.Alloc = alloc.NewAllocator(env.Machine.Mem, hardware.RAMBegin, 0)

	env.Sched = schedule.NewScheduler(env.Machine, env.Alloc, schedule.Config{
		SliceCycles: env.Prefs.Machine.SliceCycles.Get().(int),
		MaxNesting:  env.Prefs.Machine.MaxNesting.Get().(int),
		StackSize:   uint32(env.Prefs.Scheduler.StackSize.Get().(int)),
	}, notify)

	env.ctx = libcore.NewContext(env.Machine, env.Alloc, env.Sched)

	env.Loader, err = fd.NewLoader(env.Prefs.Libraries.FDDir.String(), 0)
	if err != nil {
		env.Machine.Close()
		return nil, err
	}

	env.Libs = libmgr.NewManager(env.ctx, env.Loader, libsCfg)
	exec.Register(env.Libs)
	vamostest.Register(env.Libs, out)

	v, err := exec.Bootstrap(env.Libs)
	if err != nil {
		env.Machine.Close()
		return nil, err
	}
	env.ExecBase = v.Base()

	logger.Logf(env, "environment", "%s: exec base at %#06x, %d bytes free", env, env.ExecBase, env.Alloc.FreeBytes())

	return env, nil
}

func (env *Environment) String() string {
	if env.Label == "" {
		return "main"
	}
	return string(env.Label)
}

func (env *Environment) libraryConfig() (libmgr.Config, error) {
	cfg := libmgr.Config{
		Variant: env.Variant(),
	}

	var err error

	cfg.Default, err = libmgr.ParseMode(env.Prefs.Libraries.DefaultMode.String())
	if err != nil {
		return cfg, err
	}
	cfg.Modes, err = libmgr.ParseModes(env.Prefs.Libraries.Modes.String())
	if err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Variant returns the stub variant selected by the preferences.
func (env *Environment) Variant() libcore.Variant {
	v := libcore.VariantPlain
	if env.Prefs.Libraries.StubLog.Get().(bool) {
		v |= libcore.VariantLog
	}
	if env.Prefs.Libraries.Profile.Get().(bool) {
		v |= libcore.VariantProfile
	}
	if env.Prefs.Libraries.Guard.Get().(bool) {
		v |= libcore.VariantGuard
	}
	return v
}

// Context returns the call context used by the libraries of the environment.
func (env *Environment) Context() *libcore.Context {
	return env.ctx
}

// Normalise ensures the preferences are in a known default state. Useful
// for tests where every run must start from the same state. Only affects
// environments created afterwards with the same Preferences instance.
func (env *Environment) Normalise() {
	env.Prefs.SetDefaults()
}

// IsMain returns true if the environment is the main environment in the
// process.
func (env *Environment) IsMain() bool {
	return env.Label == ""
}

// AllowLogging implements the logger.Permission interface. Only the main
// environment creates log entries.
func (env *Environment) AllowLogging() bool {
	return env.IsMain()
}

// Close shuts down the libraries and the scheduler and checks that all
// memory has been returned to the allocator. The machine is always closed,
// even when an error is returned.
//
// If profiling is enabled and a profile path has been set, the profiles are
// merged into the file.
func (env *Environment) Close() error {
	defer env.Machine.Close()

	if _, err := env.Libs.Shutdown(); err != nil {
		return err
	}

	if pth := env.Prefs.Libraries.ProfilePath.String(); pth != "" && env.Variant()&libcore.VariantProfile == libcore.VariantProfile {
		if err := libcore.SaveProfiles(pth, env.Libs.Profiles(), true); err != nil {
			return err
		}
		logger.Logf(env, "environment", "profiles saved to %s", pth)
	}

	if err := env.Sched.Close(); err != nil {
		return err
	}

	if !env.Alloc.IsAllFree() {
		env.Alloc.DumpOrphans()
		return curated.Errorf(NotAllFree, env.Alloc.TotalBytes()-env.Alloc.FreeBytes(), env.Alloc.NumAllocations())
	}

	return nil
}
