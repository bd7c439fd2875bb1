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

package notifications

// Notice describes events in the life of a task.
type Notice string

// List of defined notifications.
const (
	// a task has been added to the scheduler but has not yet run
	NotifyAddTask Notice = "NotifyAddTask"

	// the task has been removed from the scheduler and its resources released
	NotifyRemoveTask Notice = "NotifyRemoveTask"

	// the task has become the running task. the task is nil if no task is
	// running
	NotifyActiveTask Notice = "NotifyActiveTask"

	// a running task has been preempted and is ready to run again
	NotifyReadyTask Notice = "NotifyReadyTask"

	// a task is waiting for signals
	NotifyWaitingTask Notice = "NotifyWaitingTask"

	// a waiting task has received one of the signals it was waiting for
	NotifyWakeUpTask Notice = "NotifyWakeUpTask"
)

// Notify is used by the scheduler to communicate task events. The task
// argument is the name of the task the notice refers to.
type Notify interface {
	Notify(notice Notice, task string) error
}
