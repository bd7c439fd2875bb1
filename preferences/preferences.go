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
	"strings"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/paths"
	"github.com/cnvogelg/vamos/prefs"
)

// Preferences defines and collates all the preference values used by an
// environment.
type Preferences struct {
	Machine   *MachinePreferences
	Libraries *LibraryPreferences
	Scheduler *SchedulerPreferences
}

func (p *Preferences) String() string {
	s := strings.Builder{}
	s.WriteString(p.Machine.String())
	s.WriteString(p.Libraries.String())
	s.WriteString(p.Scheduler.String())
	return s.String()
}

// NewPreferences is the preferred method of initialisation for the
// Preferences type. An empty path means the default preferences file in the
// vamos resource directory.
func NewPreferences(pth string) (*Preferences, error) {
	if pth == "" {
		var err error
		pth, err = paths.ResourcePath("", prefs.DefaultPrefsFile)
		if err != nil {
			return nil, curated.Errorf("preferences: %v", err)
		}
	}

	p := &Preferences{}

	var err error

	p.Machine, err = newMachinePreferences(pth)
	if err != nil {
		return nil, err
	}
	p.Libraries, err = newLibraryPreferences(pth)
	if err != nil {
		return nil, err
	}
	p.Scheduler, err = newSchedulerPreferences(pth)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// SetDefaults reverts all settings to default values.
func (p *Preferences) SetDefaults() {
	p.Machine.SetDefaults()
	p.Libraries.SetDefaults()
	p.Scheduler.SetDefaults()
}

// Load all preferences from disk.
func (p *Preferences) Load() error {
	if err := p.Machine.Load(); err != nil {
		return err
	}
	if err := p.Libraries.Load(); err != nil {
		return err
	}
	return p.Scheduler.Load()
}

// Save all preferences to disk.
func (p *Preferences) Save() error {
	if err := p.Machine.Save(); err != nil {
		return err
	}
	if err := p.Libraries.Save(); err != nil {
		return err
	}
	return p.Scheduler.Save()
}

// a missing file is not an error when loading. the defaults are used instead
func load(dsk *prefs.Disk) error {
	err := dsk.Load(false)
	if err != nil && !curated.Is(err, prefs.NoPrefsFile) {
		return err
	}
	return nil
}

type entry struct {
	key string
	p   interface {
		Set(prefs.Value) error
		Get() prefs.Value
		Reset() error
		String() string
	}
}

func newDisk(pth string, entries []entry) (*prefs.Disk, error) {
	dsk, err := prefs.NewDisk(pth)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := dsk.Add(e.key, e.p); err != nil {
			return nil, err
		}
	}
	return dsk, load(dsk)
}
