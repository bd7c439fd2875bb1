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

// Package libmgr decides which library is handed out when emulated code opens
// a library by name, and when a library is removed from memory.
//
// Every library name has a Mode. The host implementations, and the loaders
// for native libraries, must be registered with the Manager before they can
// be opened. Host libraries are created with the libcore package on first
// open and expunged when the last user closes them, unless they are locked in
// memory.
//
// The _OpenLib, _CloseLib and _ExpungeLib functions of native libraries are
// emulated code. The Manager calls them as nested runs with A6 set to the
// base address of the library.
package libmgr
