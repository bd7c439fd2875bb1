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

package preferences

import (
	"github.com/cnvogelg/vamos/prefs"
	"github.com/cnvogelg/vamos/schedule"
)

// SchedulerPreferences for tasks.
type SchedulerPreferences struct {
	dsk *prefs.Disk

	// stack size in bytes of tasks that do not ask for a specific size
	StackSize prefs.Int
}

func (p *SchedulerPreferences) String() string {
	return p.dsk.String()
}

func newSchedulerPreferences(pth string) (*SchedulerPreferences, error) {
	p := &SchedulerPreferences{}
	p.SetDefaults()

	var err error
	p.dsk, err = newDisk(pth, []entry{
		{"scheduler.stacksize", &p.StackSize},
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

// SetDefaults reverts all settings to default values.
func (p *SchedulerPreferences) SetDefaults() {
	_ = p.StackSize.Set(schedule.DefaultStackSize)
}

// Load scheduler preferences from disk.
func (p *SchedulerPreferences) Load() error {
	return load(p.dsk)
}

// Save scheduler preferences to disk.
func (p *SchedulerPreferences) Save() error {
	return p.dsk.Save()
}
