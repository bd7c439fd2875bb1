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

// Package schedule implements the tasks of the emulated system and the
// cooperative scheduler that switches between them.
//
// A task is either native or host. A native task runs emulated code from an
// entry point until the code returns. A host task is a Go function that can
// run emulated code of its own with SubRun(), wait for signals and give up
// the CPU like any other task.
//
// Every task runs on its own goroutine. Only one goroutine ever has control:
// either the scheduler loop in Schedule() or the goroutine of the running
// task. Control passes between them over unbuffered channels so a task can be
// suspended at any point, including in the middle of a library call made by
// emulated code, and resumed later with its Go call stack intact. This is a
// simplification of true coroutines. The cost is one parked goroutine per
// task.
//
// The CPU context of a task is saved when it gives up control and restored
// when it resumes.
//
// Tasks are selected in this order:
//
//  1. the running task if it is in a Forbid() region
//  2. tasks that have never run, in the order they were added
//  3. ready tasks. tasks woken by a signal are placed at the front of the
//     ready list and preempted tasks at the back
//  4. the running task, if it can still run
//
// If no task can be selected while tasks are waiting for signals the
// scheduler stops with the Deadlock error.
package schedule
