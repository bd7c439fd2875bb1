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

package main

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/cnvogelg/vamos/test"
)

// writeImage writes the words as a flat big-endian binary and returns the
// filename.
func writeImage(t *testing.T, words ...uint16) string {
	t.Helper()
	data := make([]byte, len(words)*2)
	for i, w := range words {
		binary.BigEndian.PutUint16(data[i*2:], w)
	}
	fn := filepath.Join(t.TempDir(), "test.bin")
	test.DemandSuccess(t, os.WriteFile(fn, data, 0644))
	return fn
}

// run vamos with a preferences file in a temporary directory
func runVamos(t *testing.T, args ...string) (int, *test.CompareWriter) {
	t.Helper()
	out := &test.CompareWriter{}
	pth := filepath.Join(t.TempDir(), "vamos.toml")
	if len(args) > 0 && (args[0] == "RUN" || args[0] == "PREFS") {
		args = append([]string{args[0], "-prefsfile", pth}, args[1:]...)
	}
	return launch(args, out), out
}

func TestRunImage(t *testing.T) {
	// moveq #5,d0; rts
	img := writeImage(t, 0x7005, 0x4e75)

	code, out := runVamos(t, "RUN", img)
	test.ExpectEquality(t, code, 5)
	test.ExpectSuccess(t, out.Contains("exit code 5"), out.String())
}

func TestRunCallsExec(t *testing.T) {
	// jsr -132(a6); jsr -138(a6); moveq #3,d0; rts
	img := writeImage(t, 0x4eae, 0xff7c, 0x4eae, 0xff76, 0x7003, 0x4e75)

	code, out := runVamos(t, "RUN", "-profile", img)
	test.ExpectEquality(t, code, 3)
	test.ExpectSuccess(t, out.Contains("Forbid"), out.String())
	test.ExpectSuccess(t, out.Contains("Permit"), out.String())
}

func TestFixedAddress(t *testing.T) {
	img := writeImage(t, 0x7001, 0x4e75)

	code, out := runVamos(t, "RUN", "-addr", "0x0a00", img)
	test.ExpectEquality(t, code, 1)
	test.ExpectSuccess(t, out.Contains("exit code 1"))

	code, out = runVamos(t, "RUN", "-addr", "0x2000", img)
	test.ExpectEquality(t, code, exitFail)
	test.ExpectSuccess(t, out.Contains("cannot load"))
}

func TestNoImage(t *testing.T) {
	code, _ := runVamos(t, "RUN")
	test.ExpectEquality(t, code, exitFail)

	code, _ = runVamos(t, "RUN", filepath.Join(t.TempDir(), "missing.bin"))
	test.ExpectEquality(t, code, exitFail)
}

func TestFuncTable(t *testing.T) {
	code, out := runVamos(t, "FD", "exec.library")
	test.ExpectEquality(t, code, exitOK)
	test.ExpectSuccess(t, out.Contains("OpenLibrary"), out.String())
	test.ExpectSuccess(t, out.Contains("-552"), out.String())

	code, _ = runVamos(t, "FD", "nonexistent.library")
	test.ExpectEquality(t, code, exitFail)
}

func TestSavePrefs(t *testing.T) {
	pth := filepath.Join(t.TempDir(), "saved.toml")

	out := &test.CompareWriter{}
	code := launch([]string{"PREFS", "-prefsfile", pth, "-save"}, out)
	test.ExpectEquality(t, code, exitOK)
	test.ExpectSuccess(t, out.Contains("machine.ramsize :: 1024"), out.String())

	_, err := os.Stat(pth)
	test.ExpectSuccess(t, err)
}

func TestHelp(t *testing.T) {
	code, out := runVamos(t, "-help")
	test.ExpectEquality(t, code, exitOK)
	test.ExpectSuccess(t, out.Contains("available sub-modes: RUN, FD, PREFS, VERSION"), out.String())
}

func TestVersion(t *testing.T) {
	code, out := runVamos(t, "version")
	test.ExpectEquality(t, code, exitOK)
	test.ExpectSuccess(t, out.Contains("vamos "), out.String())
}
