// Package structure reads molecular structures from MDL molfiles and serves
// the built-in template library.
package structure

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/tomz197/reactyl/internal/chem"
)

var (
	ErrMalformed       = errors.New("malformed structure")
	ErrUnknownTemplate = errors.New("unknown template")
)

// Structure is a parsed molecule: atoms with local positions, bonds with
// zero-based indices and formal charges by atom index.
type Structure struct {
	Name    string
	Atoms   []chem.Atom
	Bonds   []chem.Bond
	Charges map[int]int
}

// Charge is the sum of formal charges.
func (s Structure) Charge() int {
	total := 0
	for _, c := range s.Charges {
		total += c
	}
	return total
}

// Parser converts structure text to atoms and bonds.
type Parser interface {
	Parse(text string) (Structure, error)
}

// V2000 reads the connection table of an MDL V2000 molfile: header block,
// counts line, atom block, bond block and the M  CHG property. Other
// properties are ignored.
type V2000 struct{}

var _ Parser = V2000{}

func (V2000) Parse(text string) (Structure, error) {
	sc := bufio.NewScanner(strings.NewReader(text))
	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return Structure{}, err
	}
	if len(lines) < 4 {
		return Structure{}, fmt.Errorf("%w: missing header or counts line", ErrMalformed)
	}

	s := Structure{Name: strings.TrimSpace(lines[0]), Charges: map[int]int{}}
	counts := lines[3]
	if !strings.Contains(counts, "V2000") {
		return Structure{}, fmt.Errorf("%w: counts line is not V2000", ErrMalformed)
	}
	nAtoms, err := column(counts, 0, 3)
	if err != nil {
		return Structure{}, fmt.Errorf("%w: atom count: %v", ErrMalformed, err)
	}
	nBonds, err := column(counts, 3, 6)
	if err != nil {
		return Structure{}, fmt.Errorf("%w: bond count: %v", ErrMalformed, err)
	}
	if len(lines) < 4+nAtoms+nBonds {
		return Structure{}, fmt.Errorf("%w: expected %d atoms and %d bonds", ErrMalformed, nAtoms, nBonds)
	}

	for i := 0; i < nAtoms; i++ {
		line := lines[4+i]
		f := strings.Fields(line)
		if len(f) < 4 {
			return Structure{}, fmt.Errorf("%w: atom line %d: %q", ErrMalformed, i+1, line)
		}
		var p mgl64.Vec3
		for k := 0; k < 3; k++ {
			if p[k], err = strconv.ParseFloat(f[k], 64); err != nil {
				return Structure{}, fmt.Errorf("%w: atom line %d: %v", ErrMalformed, i+1, err)
			}
		}
		s.Atoms = append(s.Atoms, chem.Atom{Element: f[3], Position: p})
	}

	for i := 0; i < nBonds; i++ {
		line := lines[4+nAtoms+i]
		a, errA := column(line, 0, 3)
		b, errB := column(line, 3, 6)
		order, errO := column(line, 6, 9)
		if err := errors.Join(errA, errB, errO); err != nil {
			return Structure{}, fmt.Errorf("%w: bond line %d: %v", ErrMalformed, i+1, err)
		}
		if a < 1 || a > nAtoms || b < 1 || b > nAtoms || a == b {
			return Structure{}, fmt.Errorf("%w: bond line %d: atoms %d-%d", ErrMalformed, i+1, a, b)
		}
		// Aromatic (4) and query orders collapse to single bonds.
		if order < 1 || order > 3 {
			order = 1
		}
		s.Bonds = append(s.Bonds, chem.Bond{I: a - 1, J: b - 1, Order: order})
	}

	for _, line := range lines[4+nAtoms+nBonds:] {
		if strings.HasPrefix(line, "M  END") {
			break
		}
		if strings.HasPrefix(line, "M  CHG") {
			f := strings.Fields(line[6:])
			if len(f) == 0 {
				continue
			}
			n, err := strconv.Atoi(f[0])
			if err != nil || len(f) < 1+2*n {
				return Structure{}, fmt.Errorf("%w: charge line %q", ErrMalformed, line)
			}
			for k := 0; k < n; k++ {
				idx, errI := strconv.Atoi(f[1+2*k])
				c, errC := strconv.Atoi(f[2+2*k])
				if errI != nil || errC != nil || idx < 1 || idx > nAtoms {
					return Structure{}, fmt.Errorf("%w: charge line %q", ErrMalformed, line)
				}
				s.Charges[idx-1] = c
			}
		}
	}
	return s, nil
}

// column parses the fixed-width integer field line[from:to].
func column(line string, from, to int) (int, error) {
	if len(line) < to {
		if len(line) <= from {
			return 0, fmt.Errorf("line too short: %q", line)
		}
		to = len(line)
	}
	return strconv.Atoi(strings.TrimSpace(line[from:to]))
}

// Molecule builds an unregistered molecule from the structure.
func (s Structure) Molecule(name string) (*chem.Molecule, error) {
	if name == "" {
		name = s.Name
	}
	return chem.NewMolecule(name, s.Atoms, s.Bonds)
}

//go:embed templates/*.mol
var templateFS embed.FS

// Template parses one of the embedded templates by name.
func Template(name string) (Structure, error) {
	data, err := templateFS.ReadFile(path.Join("templates", name+".mol"))
	if err != nil {
		return Structure{}, fmt.Errorf("template %q: %w", name, ErrUnknownTemplate)
	}
	s, err := V2000{}.Parse(string(data))
	if err != nil {
		return Structure{}, fmt.Errorf("template %q: %w", name, err)
	}
	s.Name = name
	return s, nil
}

// Templates lists the embedded template names in alphabetical order.
func Templates() []string {
	entries, _ := templateFS.ReadDir("templates")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".mol"))
	}
	sort.Strings(names)
	return names
}
