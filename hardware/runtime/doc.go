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

// Package runtime runs emulated code to completion on behalf of the host.
//
// A run starts at an entry point and finishes when the code returns through
// the exit sentinel of the hardware package. Traps decoded during the run are
// serviced immediately by the trap table.
//
// Runs can nest. A host function called through a trap can start another run
// while the outer run is suspended in the middle of the trap. The CPU
// context of the outer run is saved before the nested run starts and is
// restored when it finishes, so the outer run continues as though the trap
// had done nothing to the CPU other than what the host function itself chose
// to do.
//
// Execution is divided into slices of a fixed number of cycles. The slice
// budget is shared by all nesting levels. When the budget is exhausted the
// slice function is called, whatever the nesting depth. This is how the
// scheduler preempts tasks.
package runtime
