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
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/cnvogelg/vamos/curated"
	"github.com/cnvogelg/vamos/hardware/cpu"
)

// ParseError is returned by Parse() for malformed function descriptions.
const ParseError = "fd: line %d: %s"

var funcLine = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\((.*)\)\((.*)\)$`)

func splitList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	l := strings.Split(strings.ReplaceAll(s, ",", "/"), "/")
	for i := range l {
		l[i] = strings.TrimSpace(l[i])
	}
	return l
}

// Parse reads a function description. The standard functions are added to
// the table after parsing.
func Parse(r io.Reader) (*FuncTable, error) {
	var ft *FuncTable
	bias := 0
	private := true

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++

		l := strings.TrimSpace(scanner.Text())
		if len(l) == 0 || l[0] == '*' {
			continue
		}

		if strings.HasPrefix(l, "##") {
			cmd := strings.Fields(l[2:])
			if len(cmd) == 0 {
				return nil, curated.Errorf(ParseError, line, "empty command")
			}

			switch cmd[0] {
			case "base":
				if len(cmd) != 2 {
					return nil, curated.Errorf(ParseError, line, "base needs a name")
				}
				ft = NewFuncTable(cmd[1])
			case "bias":
				if len(cmd) != 2 {
					return nil, curated.Errorf(ParseError, line, "bias needs a value")
				}
				v, err := strconv.Atoi(cmd[1])
				if err != nil || v < 0 || v%EntrySize != 0 {
					return nil, curated.Errorf(ParseError, line, "invalid bias: "+cmd[1])
				}
				bias = v
			case "private":
				private = true
			case "public":
				private = false
			case "end":
				if ft == nil {
					return nil, curated.Errorf(ParseError, line, "no base")
				}
				ft.AddStdFuncs()
				return ft, nil
			default:
				return nil, curated.Errorf(ParseError, line, "unknown command: "+cmd[0])
			}
			continue
		}

		if ft == nil {
			return nil, curated.Errorf(ParseError, line, "function before base")
		}

		m := funcLine.FindStringSubmatch(l)
		if m == nil {
			return nil, curated.Errorf(ParseError, line, "invalid function: "+l)
		}

		args := splitList(m[2])
		regs := splitList(m[3])
		if len(args) != len(regs) {
			return nil, curated.Errorf(ParseError, line, "argument and register mismatch")
		}

		f := &Func{
			Name:    m[1],
			Bias:    bias,
			Private: private,
		}
		for i := range args {
			r, err := cpu.ParseRegister(regs[i])
			if err != nil {
				return nil, curated.Errorf(ParseError, line, err)
			}
			f.Args = append(f.Args, Arg{Name: args[i], Reg: r})
		}

		if err := ft.Add(f); err != nil {
			return nil, curated.Errorf(ParseError, line, err)
		}

		bias += EntrySize
	}

	if err := scanner.Err(); err != nil {
		return nil, curated.Errorf(ParseError, line, err)
	}
	if ft == nil {
		return nil, curated.Errorf(ParseError, line, "no base")
	}

	ft.AddStdFuncs()
	return ft, nil
}
