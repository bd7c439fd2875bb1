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

package paths

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// UniqueFilename creates a filename that (assuming a functioning clock) should
// not collide with any existing file. The file is not checked.
//
// Used to generate filenames for memory graphs when no name is given. The
// format is:
//
//	prepend_image_YYYYMMDD_HHMMSS
//
// Where image is the base name of the image file without its extension. If
// there is no image name the format is:
//
//	prepend_YYYYMMDD_HHMMSS
func UniqueFilename(prepend string, image string) string {
	n := time.Now()
	timestamp := fmt.Sprintf("%04d%02d%02d_%02d%02d%02d", n.Year(), n.Month(), n.Day(), n.Hour(), n.Minute(), n.Second())

	img := strings.TrimSpace(image)
	if img != "" {
		img = path.Base(img)
		img = strings.TrimSuffix(img, path.Ext(img))
	}

	if img != "" {
		return fmt.Sprintf("%s_%s_%s", prepend, img, timestamp)
	}
	return fmt.Sprintf("%s_%s", prepend, timestamp)
}
