package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/reactyl/internal/chem"
)

const ethanol = `ethanol
  hand written

  3  2  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.5400    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    2.0500    1.3500    0.0000 O   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  1  0  0  0  0
  2  3  1  0  0  0  0
M  END
`

func TestParseV2000(t *testing.T) {
	s, err := V2000{}.Parse(ethanol)
	require.NoError(t, err)

	assert.Equal(t, "ethanol", s.Name)
	require.Len(t, s.Atoms, 3)
	assert.Equal(t, chem.Oxygen, s.Atoms[2].Element)
	assert.InDelta(t, 1.35, s.Atoms[2].Position.Y(), 1e-9)
	assert.Equal(t, []chem.Bond{{I: 0, J: 1, Order: 1}, {I: 1, J: 2, Order: 1}}, s.Bonds)
	assert.Zero(t, s.Charge())
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"not v2000":   "x\n\n\n  1  0  0  0  0  0  0  0  0  0999 V3000\n",
		"short atoms": "x\n\n\n  2  0  0  0  0  0  0  0  0  0999 V2000\n    0.0000    0.0000    0.0000 C\n",
		"bad coord":   "x\n\n\n  1  0  0  0  0  0  0  0  0  0999 V2000\n    zero    0.0000    0.0000 C\nM  END\n",
		"bond range":  "x\n\n\n  1  1  0  0  0  0  0  0  0  0999 V2000\n    0.0000    0.0000    0.0000 C\n  1  2  1\nM  END\n",
		"self bond":   "x\n\n\n  1  1  0  0  0  0  0  0  0  0999 V2000\n    0.0000    0.0000    0.0000 C\n  1  1  1\nM  END\n",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := V2000{}.Parse(text)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestTemplates(t *testing.T) {
	names := Templates()
	for _, want := range []string{"chloromethane", "bromoethane", "iodomethane", "hydroxide", "water", "ammonia", "methane", "hydrosulfide"} {
		assert.Contains(t, names, want)
	}

	formulas := map[string]string{
		"chloromethane": "CH3Cl",
		"bromomethane":  "CH3Br",
		"bromoethane":   "C2H5Br",
		"iodomethane":   "CH3I",
		"hydroxide":     "HO",
		"water":         "H2O",
		"ammonia":       "H3N",
		"methane":       "CH4",
		"hydrosulfide":  "HS",
		"chloride":      "Cl",
	}
	for name, formula := range formulas {
		s, err := Template(name)
		require.NoError(t, err, name)
		m, err := s.Molecule("")
		require.NoError(t, err, name)
		assert.Equal(t, name, m.Name)
		assert.Equal(t, formula, m.Formula(), name)
	}

	oh, err := Template("hydroxide")
	require.NoError(t, err)
	assert.Equal(t, -1, oh.Charge())
	assert.Equal(t, map[int]int{0: -1}, oh.Charges)

	_, err = Template("unobtainium")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestTemplateFeatures(t *testing.T) {
	s, err := Template("bromoethane")
	require.NoError(t, err)
	m, err := s.Molecule("b")
	require.NoError(t, err)
	assert.True(t, chem.CanEliminate(m, []string{chem.Bromine}))

	s, err = Template("hydrosulfide")
	require.NoError(t, err)
	m, err = s.Molecule("")
	require.NoError(t, err)
	nu, ok := m.StrongestFeature(chem.Nucleophile)
	require.True(t, ok)
	assert.Equal(t, 7.0, nu.Strength)
}
