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

// Event is a notice as received by the Recorder.
type Event struct {
	Notice Notice
	Task   string
}

// Recorder is an implementation of the Notify interface that keeps a list of
// the notices it receives.
type Recorder struct {
	Events []Event
}

// Notify implements the Notify interface.
func (rec *Recorder) Notify(notice Notice, task string) error {
	rec.Events = append(rec.Events, Event{Notice: notice, Task: task})
	return nil
}

// Filter returns the names of the tasks in the notices of the given kind, in
// the order the notices were received.
func (rec *Recorder) Filter(notice Notice) []string {
	var l []string
	for _, e := range rec.Events {
		if e.Notice == notice {
			l = append(l, e.Task)
		}
	}
	return l
}
