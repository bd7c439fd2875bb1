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

// Package preferences collates the preference values used when creating an
// environment. Values are grouped by concern: the machine, the libraries and
// the scheduler. All groups share the same file on disk.
//
// Every value can be overridden for a single run with the prefs command line
// stack. For example:
//
//	prefs.PushCommandLineStack("machine.ramsize::2048; libs.stublog::true")
//
// The stack must be pushed before the Preferences instance is created.
package preferences
