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

package fd

import (
	"embed"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/logger"
)

// NotFound is returned by Loader.Load() when there is no function
// description for a library.
const NotFound = "fd: no function description for %s"

// DefaultCacheSize is the number of parsed tables kept by a Loader if no
// other size is given.
const DefaultCacheSize = 32

//go:embed files/*.fd
var embedded embed.FS

// FileName returns the name of the function description file for the
// library. For example, "exec_lib.fd" for "exec.library".
func FileName(libName string) string {
	switch {
	case strings.HasSuffix(libName, ".library"):
		return strings.TrimSuffix(libName, ".library") + "_lib.fd"
	case strings.HasSuffix(libName, ".device"):
		return strings.TrimSuffix(libName, ".device") + "_dev.fd"
	}
	return libName + ".fd"
}

// Loader finds and parses function descriptions. The embedded descriptions
// are searched first and then the directory, if there is one.
type Loader struct {
	dir   string
	cache *lru.ARCCache
}

// NewLoader is the preferred method of initialisation for the Loader type.
// The directory can be empty.
func NewLoader(dir string, cacheSize int) (*Loader, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.NewARC(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "fd: creating cache")
	}
	return &Loader{
		dir:   dir,
		cache: cache,
	}, nil
}

// Load the function table for the library.
func (ldr *Loader) Load(libName string) (*FuncTable, error) {
	if ft, ok := ldr.cache.Get(libName); ok {
		return ft.(*FuncTable), nil
	}

	fn := FileName(libName)

	f, err := embedded.Open("files/" + fn)
	if err != nil {
		if ldr.dir == "" {
			return nil, curated.Errorf(NotFound, libName)
		}
		f, err = os.Open(filepath.Join(ldr.dir, fn))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, curated.Errorf(NotFound, libName)
			}
			return nil, errors.Wrapf(err, "fd: %s", libName)
		}
	}
	defer f.Close()

	ft, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "fd: %s", fn)
	}

	logger.Logf(logger.Allow, "fd", "%s: %d functions, neg size %d", libName, ft.NumFuncs(), ft.NegSize())
	ldr.cache.Add(libName, ft)

	return ft, nil
}

// Cached returns true if the function table for the library is in the cache.
func (ldr *Loader) Cached(libName string) bool {
	return ldr.cache.Contains(libName)
}
