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

package preferences_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/preferences"
	"github.com/cnvogelg/vamos/prefs"
	"github.com/cnvogelg/vamos/test"
)

func TestDefaults(t *testing.T) {
	pth := filepath.Join(t.TempDir(), "vamos.toml")

	p, err := preferences.NewPreferences(pth)
	test.DemandSuccess(t, err)

	test.ExpectEquality(t, p.Machine.RAMSize.Get().(int), 1024)
	test.ExpectEquality(t, p.Machine.RAMBytes(), uint32(1024*1024))
	test.ExpectEquality(t, p.Machine.MaxNesting.Get().(int), 16)
	test.ExpectEquality(t, p.Libraries.Guard.Get().(bool), true)
	test.ExpectEquality(t, p.Libraries.DefaultMode.String(), "auto")
	test.ExpectEquality(t, p.Scheduler.StackSize.Get().(int), 4096)

	// nothing is written until the preferences are saved
	_, err = os.Stat(pth)
	test.ExpectFailure(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	pth := filepath.Join(t.TempDir(), "vamos.toml")

	p, err := preferences.NewPreferences(pth)
	test.DemandSuccess(t, err)

	test.DemandSuccess(t, p.Machine.RAMSize.Set(2048))
	test.DemandSuccess(t, p.Libraries.Modes.Set("dos.library=amiga"))
	test.DemandSuccess(t, p.Scheduler.StackSize.Set(8192))
	test.DemandSuccess(t, p.Save())

	data, err := os.ReadFile(pth)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, strings.Contains(string(data), `"machine.ramsize" = 2048`))

	q, err := preferences.NewPreferences(pth)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, q.Machine.RAMSize.Get().(int), 2048)
	test.ExpectEquality(t, q.Libraries.Modes.String(), "dos.library=amiga")
	test.ExpectEquality(t, q.Scheduler.StackSize.Get().(int), 8192)

	q.SetDefaults()
	test.ExpectEquality(t, q.Machine.RAMSize.Get().(int), 1024)
	test.DemandSuccess(t, q.Load())
	test.ExpectEquality(t, q.Machine.RAMSize.Get().(int), 2048)
}

func TestCommandLine(t *testing.T) {
	pth := filepath.Join(t.TempDir(), "vamos.toml")

	prefs.PushCommandLineStack("machine.ramsize::0x800; libs.stublog::true")
	p, err := preferences.NewPreferences(pth)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, prefs.PopCommandLineStack(), "")

	test.ExpectEquality(t, p.Machine.RAMSize.Get().(int), 2048)
	test.ExpectEquality(t, p.Libraries.StubLog.Get().(bool), true)
}

func TestInvalidRAMSize(t *testing.T) {
	pth := filepath.Join(t.TempDir(), "vamos.toml")

	p, err := preferences.NewPreferences(pth)
	test.DemandSuccess(t, err)

	err = p.Machine.RAMSize.Set(16)
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, curated.Is(err, preferences.InvalidRAMSize))
	test.ExpectEquality(t, p.Machine.RAMSize.Get().(int), 1024)

	prefs.PushCommandLineStack("machine.ramsize::99999")
	_, err = preferences.NewPreferences(pth)
	prefs.PopCommandLineStack()
	test.ExpectFailure(t, err)
}
