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

package environment_test

import (
	"path/filepath"
	"testing"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/environment"
	"github.com/cnvogelg/vamos/hardware"
	"github.com/cnvogelg/vamos/hardware/cpu"
	"github.com/cnvogelg/vamos/hardware/runtime"
	"github.com/cnvogelg/vamos/libcore"
	"github.com/cnvogelg/vamos/libs/vamostest"
	"github.com/cnvogelg/vamos/logger"
	"github.com/cnvogelg/vamos/preferences"
	"github.com/cnvogelg/vamos/schedule"
	"github.com/cnvogelg/vamos/test"
)

const code = uint32(0x0a00)

func newPrefs(t *testing.T) *preferences.Preferences {
	t.Helper()
	p, err := preferences.NewPreferences(filepath.Join(t.TempDir(), "vamos.toml"))
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, p.Machine.RAMSize.Set(256))
	return p
}

func TestLifecycle(t *testing.T) {
	env, err := environment.NewEnvironment("", newPrefs(t), nil, nil)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, env.IsMain())
	test.ExpectEquality(t, env.Machine.Mem.Size(), uint32(256*1024))
	test.ExpectEquality(t, env.Machine.Mem.Read32(hardware.ExecBasePtr), env.ExecBase)
	test.ExpectEquality(t, env.Variant(), libcore.VariantGuard)

	// movea.l 4.w,a6; move.l a6,d0; rts
	env.Machine.Mem.Write16(code, 0x2c78)
	env.Machine.Mem.Write16(code+2, 0x0004)
	env.Machine.Mem.Write16(code+4, 0x200e)
	env.Machine.Mem.Write16(code+6, 0x4e75)

	task, err := env.Sched.NewNativeTask("main", code, 0, nil)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, env.Sched.AddTask(task))
	test.DemandSuccess(t, env.Sched.Schedule())
	test.ExpectEquality(t, task.ExitCode(), env.ExecBase)

	test.ExpectSuccess(t, env.Close())
	test.ExpectEquality(t, env.Machine.Mem.Read32(hardware.ExecBasePtr), uint32(0))
	test.ExpectSuccess(t, env.Alloc.IsAllFree())
}

func TestNotAllFree(t *testing.T) {
	env, err := environment.NewEnvironment("leak", newPrefs(t), nil, nil)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, env.IsMain(), false)

	_, err = env.Alloc.Alloc(100, "leak")
	test.DemandSuccess(t, err)

	err = env.Close()
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, environment.NotAllFree))
}

func TestLogPermission(t *testing.T) {
	logger.Clear()
	env, err := environment.NewEnvironment("quiet", newPrefs(t), nil, nil)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, env.AllowLogging(), false)

	w := &test.CompareWriter{}
	logger.Write(w)
	test.ExpectSuccess(t, !w.Contains("exec base at"), w.String())
	test.ExpectSuccess(t, env.Close())

	logger.Clear()
	env, err = environment.NewEnvironment("", newPrefs(t), nil, nil)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, env.AllowLogging(), true)

	w.Clear()
	logger.Write(w)
	test.ExpectSuccess(t, w.Contains("exec base at"), w.String())
	test.ExpectSuccess(t, env.Close())
}

func TestBadModes(t *testing.T) {
	p := newPrefs(t)
	test.DemandSuccess(t, p.Libraries.Modes.Set("dos.library=sometimes"))
	_, err := environment.NewEnvironment("", p, nil, nil)
	test.ExpectFailure(t, err)
}

func TestProfilesSaved(t *testing.T) {
	pth := filepath.Join(t.TempDir(), "profile.cbor")

	p := newPrefs(t)
	test.DemandSuccess(t, p.Libraries.Profile.Set(true))
	test.DemandSuccess(t, p.Libraries.ProfilePath.Set(pth))

	out := &test.CompareWriter{}
	env, err := environment.NewEnvironment("", p, nil, out)
	test.DemandSuccess(t, err)

	base, err := env.Libs.Open(vamostest.Name, 0)
	test.DemandSuccess(t, err)

	// jsr -42(a6); rts
	env.Machine.Mem.Write16(code, 0x4eae)
	env.Machine.Mem.Write16(code+2, 0xffd6)
	env.Machine.Mem.Write16(code+4, 0x4e75)

	task, err := env.Sched.NewHostTask("caller", func(task *schedule.Task) (uint32, error) {
		rs, err := task.SubRun(runtime.Code{
			Name:    "add",
			PC:      code,
			SetRegs: map[cpu.Register]uint32{cpu.A6: base, cpu.D0: 3, cpu.D1: 4},
			GetRegs: []cpu.Register{cpu.D0},
		})
		if err != nil {
			return 0, err
		}
		return rs.Regs[cpu.D0], nil
	}, 0)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, env.Sched.AddTask(task))
	test.DemandSuccess(t, env.Sched.Schedule())
	test.ExpectEquality(t, task.ExitCode(), uint32(7))

	// the library is never closed. Close() takes care of it
	test.ExpectSuccess(t, env.Close())

	ps, err := libcore.LoadProfiles(pth)
	test.DemandSuccess(t, err)
	vp, ok := ps[vamostest.Name]
	test.DemandSuccess(t, ok)
	test.ExpectEquality(t, vp.Total().Calls, 1)
}
