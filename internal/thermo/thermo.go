// Package thermo holds gas-phase enthalpies of formation and derives
// reaction enthalpies from them.
package thermo

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/tomz197/reactyl/internal/chem"
)

var ErrFormula = errors.New("invalid formula")

// Number is a JSON number that may also arrive as null, "" or a quoted
// number, as produced by the table converters.
type Number struct {
	Value float64
	Valid bool
}

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = Number{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = Number{}
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("thermo: number %q: %w", s, err)
	}
	*n = Number{Value: v, Valid: true}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Record is one species of the table.
type Record struct {
	CommonName               string `json:"common_name"`
	Structure                string `json:"structure"`
	Enthalpy0K               Number `json:"enthalpy_of_formation_0K"`
	Enthalpy298K             Number `json:"enthalpy_of_formation_298K"` // kJ/mol
	Uncertainty              Number `json:"uncertainty_value"`
	MolecularMass            Number `json:"molecular_mass"`
	MolecularMassUncertainty Number `json:"molecular_mass_uncertainty"`
	CASRN                    string `json:"cas_rn"`
	RelativeRank             Number `json:"relative_rank"`
}

// Table indexes records by Hill formula. When several species share a
// formula the one with the best (lowest) relative rank wins.
type Table struct {
	records []Record
	byHill  map[string]int
}

// Load decodes a JSON array of records.
func Load(r io.Reader) (*Table, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("thermo: decode: %w", err)
	}
	t := &Table{byHill: make(map[string]int, len(records))}
	for _, rec := range records {
		if rec.Structure == "" {
			continue
		}
		key, _, err := Hill(rec.Structure)
		if err != nil {
			return nil, fmt.Errorf("thermo: %s: %w", rec.CommonName, err)
		}
		t.records = append(t.records, rec)
		idx := len(t.records) - 1
		if cur, ok := t.byHill[key]; !ok || rank(rec) < rank(t.records[cur]) {
			t.byHill[key] = idx
		}
	}
	return t, nil
}

func rank(r Record) float64 {
	if !r.RelativeRank.Valid {
		return math.Inf(1)
	}
	return r.RelativeRank.Value
}

//go:embed enthalpies.json
var defaultTable string

// Default returns the embedded table.
func Default() *Table {
	t, err := Load(strings.NewReader(defaultTable))
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Len() int { return len(t.records) }

// Lookup returns the preferred record for a Hill formula.
func (t *Table) Lookup(formula string) (Record, bool) {
	i, ok := t.byHill[formula]
	if !ok {
		return Record{}, false
	}
	return t.records[i], true
}

// Name returns the lower-case common name for a Hill formula, or "".
func (t *Table) Name(formula string) string {
	rec, ok := t.Lookup(formula)
	if !ok {
		return ""
	}
	return strings.ToLower(rec.CommonName)
}

// ReactionEnthalpy returns ΣΔfH(products) − ΣΔfH(reactants) at 298 K in
// kJ/mol. It is unknown when any species is missing from the table.
func (t *Table) ReactionEnthalpy(reactants, products []string) (float64, bool) {
	sum := func(formulas []string) (float64, bool) {
		total := 0.0
		for _, f := range formulas {
			rec, ok := t.Lookup(f)
			if !ok || !rec.Enthalpy298K.Valid {
				return 0, false
			}
			total += rec.Enthalpy298K.Value
		}
		return total, true
	}
	r, okR := sum(reactants)
	p, okP := sum(products)
	if !okR || !okP {
		return 0, false
	}
	return p - r, true
}

// Hill converts a structural formula such as "CH3CH2OH", "(CH3)2O" or
// "OH-" to its Hill formula and formal charge.
func Hill(structure string) (string, int, error) {
	s := strings.TrimSpace(structure)
	charge := 0
	for strings.HasSuffix(s, "+") || strings.HasSuffix(s, "-") {
		if s[len(s)-1] == '+' {
			charge++
		} else {
			charge--
		}
		s = s[:len(s)-1]
	}
	p := formulaParser{src: s}
	counts, err := p.group()
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q: %v", ErrFormula, structure, err)
	}
	if p.pos != len(p.src) {
		return "", 0, fmt.Errorf("%w: %q: unexpected %q", ErrFormula, structure, p.src[p.pos])
	}
	if len(counts) == 0 {
		return "", 0, fmt.Errorf("%w: %q: no elements", ErrFormula, structure)
	}
	return chem.FormulaOf(counts), charge, nil
}

type formulaParser struct {
	src string
	pos int
}

func (p *formulaParser) group() (map[string]int, error) {
	counts := make(map[string]int)
	for p.pos < len(p.src) {
		c := rune(p.src[p.pos])
		switch {
		case c == '(':
			p.pos++
			inner, err := p.group()
			if err != nil {
				return nil, err
			}
			if p.pos >= len(p.src) || p.src[p.pos] != ')' {
				return nil, errors.New("unbalanced parenthesis")
			}
			p.pos++
			n := p.count()
			for el, k := range inner {
				counts[el] += k * n
			}
		case c == ')':
			return counts, nil
		case unicode.IsUpper(c):
			start := p.pos
			p.pos++
			for p.pos < len(p.src) && unicode.IsLower(rune(p.src[p.pos])) {
				p.pos++
			}
			counts[p.src[start:p.pos]] += p.count()
		default:
			return nil, fmt.Errorf("unexpected %q", c)
		}
	}
	return counts, nil
}

func (p *formulaParser) count() int {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 1
	}
	n, _ := strconv.Atoi(p.src[start:p.pos])
	return n
}
