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

// Package paths prepares paths to vamos resources: the preferences file,
// saved profiles and any other file that belongs to vamos rather than to the
// program being run.
//
//	pth, err := paths.ResourcePath("fd", "dos_lib.fd")
//
// For development builds the base directory is ".vamos" in the current
// directory. Release builds (the release build tag) use a "vamos" directory
// in the user's configuration directory, as defined by os.UserConfigDir(). On
// a Linux system that would be:
//
//	/home/user/.config/vamos/fd/dos_lib.fd
//
// The base directory and the sub-directory are created if necessary. The
// file itself is not checked.
package paths
