package rates

import (
	"math"
	"sort"
)

// DiffCell compares the row venue's top rate against one other venue.
type DiffCell struct {
	Venue string
	Value float64
}

// DiffRow holds one venue's comparisons, best first.
type DiffRow struct {
	Venue string
	Cells []DiffCell
}

// DiffMatrix is an ordered pairwise comparison of top-of-book rates.
type DiffMatrix []DiffRow

// Cell returns the comparison of v1 against v2.
func (m DiffMatrix) Cell(v1, v2 string) (float64, bool) {
	for _, row := range m {
		if row.Venue != v1 {
			continue
		}
		for _, cell := range row.Cells {
			if cell.Venue == v2 {
				return cell.Value, true
			}
		}
	}
	return 0, false
}

// PairwiseDiffs compares the top-of-book rate for one conversion direction
// across every pair of venues. A cell (v1, v2) is the gain from buying on
// the row venue v1 and selling on the column venue v2: top(v2) - top(v1)
// absolute, and that difference over top(v1) as a fraction.
//
// Venues without the edge are skipped entirely. A self-pair compares to
// zero and is retained. Within a row, cells sort by value descending; rows
// sort descending by their second cell's value, rows with fewer than two
// cells last.
func (s Snapshot) PairwiseDiffs(from, to string) (abs, pct DiffMatrix) {
	venues := s.Venues()

	tops := make(map[string]float64, len(venues))
	withEdge := make([]string, 0, len(venues))
	for _, venue := range venues {
		book, ok := s.Rate(venue, from, to)
		if !ok || len(book) == 0 {
			continue
		}
		tops[venue] = book[0].Rate
		withEdge = append(withEdge, venue)
	}

	for _, v1 := range withEdge {
		top1 := tops[v1]
		absRow := DiffRow{Venue: v1}
		pctRow := DiffRow{Venue: v1}
		for _, v2 := range withEdge {
			diff := tops[v2] - top1
			absRow.Cells = append(absRow.Cells, DiffCell{Venue: v2, Value: diff})
			if top1 != 0 {
				pctRow.Cells = append(pctRow.Cells, DiffCell{Venue: v2, Value: diff / top1})
			}
		}
		sortCells(absRow.Cells)
		sortCells(pctRow.Cells)
		abs = append(abs, absRow)
		if len(pctRow.Cells) > 0 {
			pct = append(pct, pctRow)
		}
	}

	sortRows(abs)
	sortRows(pct)
	return abs, pct
}

func sortCells(cells []DiffCell) {
	sort.SliceStable(cells, func(i, j int) bool {
		return cells[i].Value > cells[j].Value
	})
}

// sortRows orders rows descending by their second cell, computed after the
// per-row sort so it is each venue's second-best comparison.
func sortRows(m DiffMatrix) {
	key := func(row DiffRow) float64 {
		if len(row.Cells) < 2 {
			return math.Inf(-1)
		}
		return row.Cells[1].Value
	}
	sort.SliceStable(m, func(i, j int) bool {
		return key(m[i]) > key(m[j])
	})
}
