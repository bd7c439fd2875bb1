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

// Package environment creates and tears down everything needed to run
// programs on an emulated machine: the machine itself, the memory allocator,
// the scheduler and the library manager with exec.library in place.
//
// Creation and teardown follow a fixed order. Close() shuts down the
// libraries before the scheduler, and the scheduler before the machine.
// Memory still allocated after that is an error.
package environment
