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

// Package fd reads function description files. A function description lists
// the functions of a library together with their offsets from the library
// base (the bias) and the registers used for each argument.
//
// The format is line based. Lines starting with an asterisk are comments.
//
//	##base _SysBase
//	##bias 30
//	##public
//	Forbid()()
//	AllocMem(byteSize,requirements)(d0/d1)
//	##private
//	##end
//
// Each function line advances the bias by six, the size of one entry in the
// jump table of a library. Argument and register lists are separated with
// either a comma or a slash.
//
// Function descriptions for the libraries bundled with vamos are embedded in
// the package. Others are loaded from a directory by the Loader, which keeps
// recently used tables in a cache.
package fd
