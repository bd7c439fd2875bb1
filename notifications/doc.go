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

// Package notifications allow the scheduler to tell interested parties about
// changes to the set of tasks. A debugger or a tracing tool can use this to
// follow which task is active without polling the scheduler.
//
// Notifications are informational. An error returned by a Notify
// implementation is logged by the sender and does not stop the scheduler.
package notifications
