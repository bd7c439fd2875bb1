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

// Package modalflag wraps the flag package of the standard library. It
// handles program modes, each of which can have its own set of flags.
//
// Arguments are given to NewArgs() and then parsed in layers. Each call to
// Parse() consumes the flags of the current layer and, if sub-modes have been
// added, the name of the selected sub-mode. For example, the command line:
//
//	vamos RUN -stack 8192 hello.bin
//
// is handled with:
//
//	md := modalflag.Modes{Output: os.Stdout}
//	md.NewArgs(os.Args[1:])
//	md.AddSubModes("RUN", "FD")
//	if r, err := md.Parse(); r != modalflag.ParseContinue {
//		return err
//	}
//
//	switch md.Mode() {
//	case "RUN":
//		md.NewMode()
//		stack := md.AddInt("stack", 4096, "stack size")
//		...
//	}
//
// The first sub-mode is the default and is selected when the argument does
// not name a sub-mode. Sub-mode names are not case sensitive.
//
// Help for the current layer is printed to Output when the -help flag is
// given. The Parse() function then returns ParseHelp.
package modalflag
