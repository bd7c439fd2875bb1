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

package libmgr

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/cnvogelg/vamos/curated"
)

// Mode determines how a library is provided.
type Mode string

// List of valid Mode values.
const (
	// a host implementation if one is registered, otherwise a native
	// library if one is registered, otherwise a fake library
	ModeAuto Mode = "auto"

	// host implementation only
	ModeVamos Mode = "vamos"

	// native library only
	ModeAmiga Mode = "amiga"

	// a library built from the function description alone. every function
	// is missing
	ModeFake Mode = "fake"

	// opening the library always fails
	ModeOff Mode = "off"
)

// InvalidMode is returned by ParseMode() and ParseModes().
const InvalidMode = "libmgr: invalid mode: %s"

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeAuto, ModeVamos, ModeAmiga, ModeFake, ModeOff:
		return m, nil
	}
	return "", curated.Errorf(InvalidMode, s)
}

// Modes maps library names to modes.
type Modes map[string]Mode

// ParseModes parses a list of the form "name=mode, name=mode".
func ParseModes(s string) (Modes, error) {
	modes := make(Modes)
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			return nil, curated.Errorf(InvalidMode, p)
		}
		m, err := ParseMode(kv[1])
		if err != nil {
			return nil, err
		}
		modes[strings.TrimSpace(kv[0])] = m
	}
	return modes, nil
}

func (modes Modes) String() string {
	n := make([]string, 0, len(modes))
	for k, m := range modes {
		n = append(n, fmt.Sprintf("%s=%s", k, m))
	}
	sort.Strings(n)
	return strings.Join(n, ", ")
}

// BaseName strips the volume and directory parts from a library name.
//
//	"LIBS:foo/bar.library" -> "bar.library"
func BaseName(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	return path.Base(name)
}
