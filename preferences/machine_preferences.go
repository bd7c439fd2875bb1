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
	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/hardware"
	"github.com/cnvogelg/vamos/hardware/runtime"
	"github.com/cnvogelg/vamos/prefs"
)

// the addressable range of the CPU is 24 bits
const (
	minRAMSize = 64
	maxRAMSize = 16 * 1024
)

// InvalidRAMSize is returned when the RAM size preference is set to a value
// outside of the supported range.
const InvalidRAMSize = "preferences: invalid ram size (%d KiB)"

// MachinePreferences for the emulated machine.
type MachinePreferences struct {
	dsk *prefs.Disk

	// size of emulated memory in KiB
	RAMSize prefs.Int

	// number of cycles executed by a task before it is preempted. zero means
	// that a task runs until it waits or ends
	SliceCycles prefs.Int

	// maximum depth of nested runs
	MaxNesting prefs.Int
}

func (p *MachinePreferences) String() string {
	return p.dsk.String()
}

func newMachinePreferences(pth string) (*MachinePreferences, error) {
	p := &MachinePreferences{}
	p.RAMSize.SetHookPre(func(v prefs.Value) error {
		if n := v.(int); n < minRAMSize || n > maxRAMSize {
			return curated.Errorf(InvalidRAMSize, n)
		}
		return nil
	})
	p.SetDefaults()

	var err error
	p.dsk, err = newDisk(pth, []entry{
		{"machine.ramsize", &p.RAMSize},
		{"machine.slicecycles", &p.SliceCycles},
		{"machine.maxnesting", &p.MaxNesting},
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

// SetDefaults reverts all settings to default values.
func (p *MachinePreferences) SetDefaults() {
	_ = p.RAMSize.Set(1024)
	_ = p.SliceCycles.Set(0)
	_ = p.MaxNesting.Set(runtime.DefaultMaxNesting)
}

// Load machine preferences from disk.
func (p *MachinePreferences) Load() error {
	return load(p.dsk)
}

// Save machine preferences to disk.
func (p *MachinePreferences) Save() error {
	return p.dsk.Save()
}

// RAMBytes returns the size of memory in bytes.
func (p *MachinePreferences) RAMBytes() uint32 {
	n := uint32(p.RAMSize.Get().(int)) * 1024
	if n <= hardware.RAMBegin {
		return hardware.RAMBegin * 2
	}
	return n
}
