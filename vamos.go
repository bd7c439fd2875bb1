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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/environment"
	"github.com/cnvogelg/vamos/fd"
	"github.com/cnvogelg/vamos/hardware"
	"github.com/cnvogelg/vamos/hardware/cpu"
	"github.com/cnvogelg/vamos/logger"
	"github.com/cnvogelg/vamos/modalflag"
	"github.com/cnvogelg/vamos/paths"
	"github.com/cnvogelg/vamos/preferences"
	"github.com/cnvogelg/vamos/prefs"
	"github.com/cnvogelg/vamos/statsview"
	"github.com/cnvogelg/vamos/version"
)

// exit values of the vamos process. the values match the return codes used
// by programs on the emulated system
const (
	exitOK    = 0
	exitError = 10
	exitFail  = 20
)

const additionalHelp = `vamos runs a flat binary image as a task with exec.library in A6.
The exit code of the task is printed and returned as the exit value of vamos.`

func main() {
	os.Exit(launch(os.Args[1:], os.Stdout))
}

// launch parses the arguments and runs the selected mode. returns the value
// for os.Exit().
func launch(args []string, out io.Writer) int {
	md := &modalflag.Modes{Output: out}
	md.NewArgs(args)
	md.AddSubModes("RUN", "FD", "PREFS", "VERSION")
	md.AdditionalHelp(additionalHelp)

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		return exitOK
	case modalflag.ParseError:
		fmt.Fprintf(out, "* error: %v\n", err)
		return exitError
	}

	var code int

	switch md.Mode() {
	case "RUN":
		code, err = run(md, out)
	case "FD":
		err = funcTable(md, out)
	case "PREFS":
		err = showPrefs(md, out)
	case "VERSION":
		fmt.Fprintln(out, version.String())
	}

	if err != nil {
		fmt.Fprintf(out, "* error in %s mode: %v\n", md, err)
		return exitFail
	}

	return code
}

// run the image. the returned value is the exit code of the task
func run(md *modalflag.Modes, out io.Writer) (int, error) {
	md.NewMode()

	addr := md.AddAddr("addr", 0, "load address of image. zero to allocate")
	stack := md.AddInt("stack", 0, "stack size of the task. zero for the preferred size")
	cycles := md.AddInt("cycles", 0, "cycles per slice. zero for no preemption")
	log := md.AddBool("log", false, "log library calls and echo the log")
	profile := md.AddBool("profile", false, "profile library calls")
	memgraph := md.AddBool("memgraph", false, "write memory graph when the task ends")
	prefsFile := md.AddString("prefsfile", "", "preferences file to use")
	prefsVals := md.AddString("prefs", "", "preference values for this run. for example, \"machine.ramsize::2048\"")
	stats := md.AddBool("statsview", false, fmt.Sprintf("run stats server (available: %v)", statsview.Available()))

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return exitOK, err
	}

	if len(md.RemainingArgs()) != 1 {
		return exitOK, curated.Errorf("one image file required")
	}
	image := md.GetArg(0)

	if *prefsVals != "" {
		prefs.PushCommandLineStack(*prefsVals)
		defer func() {
			if unused := prefs.PopCommandLineStack(); unused != "" {
				logger.Logf(logger.Allow, "vamos", "unused preferences: %s", unused)
			}
		}()
	}

	pref, err := preferences.NewPreferences(*prefsFile)
	if err != nil {
		return exitOK, err
	}

	// flags override the preferences only when they are given
	var flagErr error
	md.Visit(func(f string) {
		var err error
		switch f {
		case "cycles":
			err = pref.Machine.SliceCycles.Set(*cycles)
		case "stack":
			err = pref.Scheduler.StackSize.Set(*stack)
		case "log":
			err = pref.Libraries.StubLog.Set(*log)
		case "profile":
			err = pref.Libraries.Profile.Set(*profile)
		}
		if err != nil && flagErr == nil {
			flagErr = err
		}
	})
	if flagErr != nil {
		return exitOK, flagErr
	}

	if *log {
		logger.SetEcho(out)
		defer logger.SetEcho(nil)
	}

	if *stats {
		stop := statsview.Launch(out)
		defer stop()
	}

	data, err := os.ReadFile(image)
	if err != nil {
		return exitOK, curated.Errorf("vamos: %v", err)
	}

	env, err := environment.NewEnvironment("", pref, nil, out)
	if err != nil {
		return exitOK, err
	}
	logger.Logf(logger.Allow, "vamos", "%s", version.String())

	exitCode, err := runImage(env, image, data, *addr)

	if err == nil && *memgraph {
		err = writeMemGraph(env, image, out)
	}

	if *profile {
		env.Libs.Profiles().Dump(out)
	}

	if cerr := env.Close(); cerr != nil {
		if err == nil {
			err = cerr
		} else {
			logger.Logf(logger.Allow, "vamos", "close: %v", cerr)
		}
	}

	if err != nil {
		return exitOK, err
	}

	fmt.Fprintf(out, "exit code %d\n", exitCode)

	return int(exitCode & 0xff), nil
}

// load the image and run it as the only task. the image memory is freed
// before returning.
func runImage(env *environment.Environment, image string, data []byte, addr uint32) (uint32, error) {
	size := uint32(len(data))
	if size == 0 {
		return 0, curated.Errorf("vamos: %s is empty", image)
	}

	if addr == 0 {
		var err error
		addr, err = env.Alloc.Alloc(size, "image")
		if err != nil {
			return 0, err
		}
		defer func() {
			_ = env.Alloc.Free(addr, size)
		}()
	} else if addr < hardware.QuickTrapEnd || addr+size > hardware.RAMBegin || addr&1 != 0 {
		// fixed addresses are only possible in the memory the allocator
		// does not manage
		return 0, curated.Errorf("vamos: cannot load %d bytes at %#06x", size, addr)
	}

	env.Machine.Mem.WriteBlock(addr, data)
	logger.Logf(logger.Allow, "vamos", "%s: %d bytes at %#06x", image, size, addr)

	name := strings.TrimSuffix(filepath.Base(image), filepath.Ext(image))
	task, err := env.Sched.NewNativeTask(name, addr, 0, map[cpu.Register]uint32{
		cpu.A6: env.ExecBase,
	})
	if err != nil {
		return 0, err
	}
	if err := env.Sched.AddTask(task); err != nil {
		return 0, err
	}
	if err := env.Sched.Schedule(); err != nil {
		return 0, err
	}

	return task.ExitCode(), nil
}

func writeMemGraph(env *environment.Environment, image string, out io.Writer) error {
	fn := paths.UniqueFilename("memgraph", image) + ".dot"
	f, err := os.Create(fn)
	if err != nil {
		return curated.Errorf("vamos: %v", err)
	}
	defer f.Close()

	env.Alloc.Graph(f)
	fmt.Fprintf(out, "memory graph written to %s\n", fn)

	return nil
}

// print the function table of a library
func funcTable(md *modalflag.Modes, out io.Writer) error {
	md.NewMode()

	dir := md.AddString("fddir", "", "directory with function descriptions")
	private := md.AddBool("private", false, "include private functions")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if len(md.RemainingArgs()) == 0 {
		return curated.Errorf("library name required")
	}

	ldr, err := fd.NewLoader(*dir, 0)
	if err != nil {
		return err
	}

	for _, name := range md.RemainingArgs() {
		ft, err := ldr.Load(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d functions, neg size %d\n", name, ft.NumFuncs(), ft.NegSize())
		for _, f := range ft.Funcs() {
			if f.Private && !*private {
				continue
			}
			fmt.Fprintf(out, "  -%-4d %s\n", f.Bias, f)
		}
	}

	return nil
}

// print the preferences and optionally save them
func showPrefs(md *modalflag.Modes, out io.Writer) error {
	md.NewMode()

	prefsFile := md.AddString("prefsfile", "", "preferences file to use")
	defaults := md.AddBool("defaults", false, "revert to default values")
	save := md.AddBool("save", false, "save preferences")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	pref, err := preferences.NewPreferences(*prefsFile)
	if err != nil {
		return err
	}

	if *defaults {
		pref.SetDefaults()
	}

	if *save {
		if err := pref.Save(); err != nil {
			return err
		}
	}

	fmt.Fprint(out, pref)

	return nil
}
