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

package prefs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/prefs"
	"github.com/cnvogelg/vamos/test"
)

func TestTypes(t *testing.T) {
	var b prefs.Bool
	test.ExpectEquality(t, b.Get().(bool), false)
	test.ExpectSuccess(t, b.Set("TRUE"))
	test.ExpectEquality(t, b.Get().(bool), true)
	test.ExpectFailure(t, b.Set(1.0))

	var i prefs.Int
	test.ExpectSuccess(t, i.Set("0x1000"))
	test.ExpectEquality(t, i.Get().(int), 0x1000)
	test.ExpectSuccess(t, i.Set(int64(42)))
	test.ExpectEquality(t, i.String(), "42")
	test.ExpectFailure(t, i.Set("foo"))

	var f prefs.Float
	test.ExpectSuccess(t, f.Set("1.5"))
	test.ExpectEquality(t, f.String(), "1.500")

	var s prefs.String
	test.ExpectSuccess(t, s.Set("exec.library::vamos"))
	test.ExpectEquality(t, s.String(), "exec.library::vamos")
}

func TestHooks(t *testing.T) {
	var i prefs.Int
	var seen int
	i.SetHookPost(func(v prefs.Value) error {
		seen = v.(int)
		return nil
	})
	test.ExpectSuccess(t, i.Set(10))
	test.ExpectEquality(t, seen, 10)
}

func TestDisk(t *testing.T) {
	fn := filepath.Join(t.TempDir(), prefs.DefaultPrefsFile)

	dsk, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)

	var ram prefs.Int
	var stublog prefs.Bool
	var modes prefs.String
	test.ExpectSuccess(t, dsk.Add("machine.ramsize", &ram))
	test.ExpectSuccess(t, dsk.Add("libs.stublog", &stublog))
	test.ExpectSuccess(t, dsk.Add("libs.modes", &modes))
	test.ExpectFailure(t, dsk.Add("libs.modes", &modes))
	test.ExpectFailure(t, dsk.Add("bad key", &modes))

	// file does not exist yet
	err = dsk.Load(false)
	test.ExpectSuccess(t, curated.Is(err, prefs.NoPrefsFile))

	ram.Set(2048)
	stublog.Set(true)
	modes.Set("exec.library::vamos")
	test.DemandSuccess(t, dsk.Save())

	data, err := os.ReadFile(fn)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, strings.Contains(string(data), "\"machine.ramsize\" = 2048"))

	// reset and reload
	test.ExpectSuccess(t, dsk.Reset())
	test.ExpectEquality(t, ram.Get().(int), 0)
	test.DemandSuccess(t, dsk.Load(false))
	test.ExpectEquality(t, ram.Get().(int), 2048)
	test.ExpectEquality(t, stublog.Get().(bool), true)
	test.ExpectEquality(t, modes.String(), "exec.library::vamos")

	// a second disk instance sharing the file keeps the first instance's keys
	dsk2, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)
	var stack prefs.Int
	test.ExpectSuccess(t, dsk2.Add("schedule.stacksize", &stack))
	stack.Set(8192)
	test.DemandSuccess(t, dsk2.Save())

	ram.Reset()
	test.DemandSuccess(t, dsk.Load(false))
	test.ExpectEquality(t, ram.Get().(int), 2048)
}

func TestDiskCommandLine(t *testing.T) {
	fn := filepath.Join(t.TempDir(), prefs.DefaultPrefsFile)

	dsk, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)

	var ram prefs.Int
	test.ExpectSuccess(t, dsk.Add("machine.ramsize", &ram))
	ram.Set(1024)
	test.DemandSuccess(t, dsk.Save())

	prefs.PushCommandLineStack("machine.ramsize::4096")
	defer prefs.PopCommandLineStack()

	test.DemandSuccess(t, dsk.Load(false))
	test.ExpectEquality(t, ram.Get().(int), 4096)
}
