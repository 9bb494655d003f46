package chem

import (
	"sort"
	"strconv"
	"strings"
)

// HillFormula renders atoms as a Hill-order molecular formula: carbon first,
// hydrogen second, everything else alphabetically. Without carbon all
// elements are alphabetical.
func HillFormula(atoms []Atom) string {
	counts := make(map[string]int)
	for _, a := range atoms {
		counts[a.Element]++
	}
	return FormulaOf(counts)
}

// FormulaOf renders element counts in Hill order. Zero counts are skipped.
func FormulaOf(counts map[string]int) string {
	symbols := make([]string, 0, len(counts))
	for s, n := range counts {
		if n > 0 {
			symbols = append(symbols, s)
		}
	}
	hasCarbon := counts[Carbon] > 0
	sort.Slice(symbols, func(i, j int) bool {
		if hasCarbon {
			if rank(symbols[i]) != rank(symbols[j]) {
				return rank(symbols[i]) < rank(symbols[j])
			}
		}
		return symbols[i] < symbols[j]
	})

	var sb strings.Builder
	for _, s := range symbols {
		sb.WriteString(s)
		if n := counts[s]; n > 1 {
			sb.WriteString(strconv.Itoa(n))
		}
	}
	return sb.String()
}

func rank(symbol string) int {
	switch symbol {
	case Carbon:
		return 0
	case Hydrogen:
		return 1
	}
	return 2
}
