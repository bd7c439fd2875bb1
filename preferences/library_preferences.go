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
)

// LibraryPreferences control how libraries are created and called.
type LibraryPreferences struct {
	dsk *prefs.Disk

	// log every library call
	StubLog prefs.Bool

	// count calls and time spent in each library function
	Profile prefs.Bool

	// file the profiles are saved to when the environment ends. profiles in
	// an existing file are merged. no file is written if the path is empty
	ProfilePath prefs.String

	// convert panics in host library functions into errors
	Guard prefs.Bool

	// the mode of libraries not listed in Modes
	DefaultMode prefs.String

	// per library modes. for example, "dos.library=amiga, icon.library=off"
	Modes prefs.String

	// directory searched for function descriptions not bundled with vamos
	FDDir prefs.String
}

func (p *LibraryPreferences) String() string {
	return p.dsk.String()
}

func newLibraryPreferences(pth string) (*LibraryPreferences, error) {
	p := &LibraryPreferences{}
	p.SetDefaults()

	var err error
	p.dsk, err = newDisk(pth, []entry{
		{"libs.stublog", &p.StubLog},
		{"libs.profile", &p.Profile},
		{"libs.profilepath", &p.ProfilePath},
		{"libs.guard", &p.Guard},
		{"libs.defaultmode", &p.DefaultMode},
		{"libs.modes", &p.Modes},
		{"libs.fddir", &p.FDDir},
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

// SetDefaults reverts all settings to default values.
func (p *LibraryPreferences) SetDefaults() {
	_ = p.StubLog.Set(false)
	_ = p.Profile.Set(false)
	_ = p.ProfilePath.Set("")
	_ = p.Guard.Set(true)
	_ = p.DefaultMode.Set("auto")
	_ = p.Modes.Set("")
	_ = p.FDDir.Set("")
}

// Load library preferences from disk.
func (p *LibraryPreferences) Load() error {
	return load(p.dsk)
}

// Save library preferences to disk.
func (p *LibraryPreferences) Save() error {
	return p.dsk.Save()
}
