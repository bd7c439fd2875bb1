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

package libcore

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/fd"
	"github.com/fxamacker/cbor/v2"
)

// FuncProfile is the number of calls to a function and the time spent in
// them.
type FuncProfile struct {
	Name  string        `cbor:"name"`
	Calls int           `cbor:"calls"`
	Time  time.Duration `cbor:"time"`
}

func (fp *FuncProfile) count(d time.Duration) {
	fp.Calls++
	fp.Time += d
}

func (fp FuncProfile) String() string {
	return fmt.Sprintf("%-20s: %6d calls %10.3f ms", fp.Name, fp.Calls, float64(fp.Time)/float64(time.Millisecond))
}

// Profile of every function in a library. Functions are indexed by their
// position in the jump table. Positions with no function are nil.
type Profile struct {
	Name  string         `cbor:"name"`
	Funcs []*FuncProfile `cbor:"funcs"`
}

// NewProfile is the preferred method of initialisation for the Profile type.
func NewProfile(name string, ft *fd.FuncTable) *Profile {
	p := &Profile{
		Name:  name,
		Funcs: make([]*FuncProfile, ft.NumIndices()),
	}
	for i := range p.Funcs {
		if f := ft.ByIndex(i); f != nil {
			p.Funcs[i] = &FuncProfile{Name: f.Name}
		}
	}
	return p
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	c := &Profile{
		Name:  p.Name,
		Funcs: make([]*FuncProfile, len(p.Funcs)),
	}
	for i, fp := range p.Funcs {
		if fp != nil {
			nfp := *fp
			c.Funcs[i] = &nfp
		}
	}
	return c
}

// Func returns the profile for the function at the jump table index. Returns
// nil for holes in the jump table.
func (p *Profile) Func(idx int) *FuncProfile {
	if idx < 0 || idx >= len(p.Funcs) {
		return nil
	}
	return p.Funcs[idx]
}

// Called returns the profiles of the functions that have been called at
// least once, sorted by name.
func (p *Profile) Called() []FuncProfile {
	var l []FuncProfile
	for _, fp := range p.Funcs {
		if fp != nil && fp.Calls > 0 {
			l = append(l, *fp)
		}
	}
	sort.Slice(l, func(i, j int) bool { return l[i].Name < l[j].Name })
	return l
}

// Total returns the sum of all function profiles.
func (p *Profile) Total() FuncProfile {
	t := FuncProfile{Name: "LIB TOTAL"}
	for _, fp := range p.Funcs {
		if fp != nil {
			t.Calls += fp.Calls
			t.Time += fp.Time
		}
	}
	return t
}

// Merge adds the counts of another profile for the same library. Functions
// are matched by name.
func (p *Profile) Merge(o *Profile) {
	byName := make(map[string]*FuncProfile)
	for _, fp := range p.Funcs {
		if fp != nil {
			byName[fp.Name] = fp
		}
	}
	for _, ofp := range o.Funcs {
		if ofp == nil {
			continue
		}
		if fp, ok := byName[ofp.Name]; ok {
			fp.Calls += ofp.Calls
			fp.Time += ofp.Time
		} else {
			nfp := *ofp
			p.Funcs = append(p.Funcs, &nfp)
			byName[nfp.Name] = &nfp
		}
	}
}

// Dump the called functions and the total as text.
func (p *Profile) Dump(w io.Writer) {
	fmt.Fprintf(w, "----- %s -----\n", p.Name)
	for _, fp := range p.Called() {
		fmt.Fprintln(w, fp.String())
	}
	fmt.Fprintln(w, p.Total().String())
}

// Profiles is a set of library profiles keyed by library name.
type Profiles map[string]*Profile

// Names returns the library names in alphabetical order.
func (ps Profiles) Names() []string {
	n := make([]string, 0, len(ps))
	for k := range ps {
		n = append(n, k)
	}
	sort.Strings(n)
	return n
}

// Merge the profiles into the set.
func (ps Profiles) Merge(o Profiles) {
	for name, op := range o {
		if p, ok := ps[name]; ok {
			p.Merge(op)
		} else {
			ps[name] = op
		}
	}
}

// Dump all profiles in order of library name.
func (ps Profiles) Dump(w io.Writer) {
	for _, n := range ps.Names() {
		ps[n].Dump(w)
	}
}

// profile file format version.
const profileVersion = 1

type profileFile struct {
	Version  int      `cbor:"version"`
	Profiles Profiles `cbor:"profiles"`
}

// Encode the profiles as CBOR.
func (ps Profiles) Encode(w io.Writer) error {
	return cbor.NewEncoder(w).Encode(profileFile{Version: profileVersion, Profiles: ps})
}

// DecodeProfiles reads profiles written by Encode().
func DecodeProfiles(r io.Reader) (Profiles, error) {
	var pf profileFile
	if err := cbor.NewDecoder(r).Decode(&pf); err != nil {
		return nil, curated.Errorf("libcore: profile: %v", err)
	}
	if pf.Version != profileVersion {
		return nil, curated.Errorf("libcore: profile: unsupported version (%d)", pf.Version)
	}
	if pf.Profiles == nil {
		pf.Profiles = make(Profiles)
	}
	return pf.Profiles, nil
}

// SaveProfiles writes the profiles to the file. If merge is true and the file
// exists then its profiles are merged with the set before writing.
func SaveProfiles(filename string, ps Profiles, merge bool) (rerr error) {
	if merge {
		f, err := os.Open(filename)
		if err == nil {
			old, err := DecodeProfiles(f)
			_ = f.Close()
			if err != nil {
				return err
			}
			old.Merge(ps)
			ps = old
		} else if !os.IsNotExist(err) {
			return curated.Errorf("libcore: profile: %v", err)
		}
	}

	f, err := os.Create(filename)
	if err != nil {
		return curated.Errorf("libcore: profile: %v", err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = curated.Errorf("libcore: profile: %v", err)
		}
	}()

	return ps.Encode(f)
}

// LoadProfiles reads the profiles from the file.
func LoadProfiles(filename string) (Profiles, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, curated.Errorf("libcore: profile: %v", err)
	}
	defer f.Close()
	return DecodeProfiles(f)
}
