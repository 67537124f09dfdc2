package table

import (
	"strings"

	"github.com/aqlanhadi/txnrecon/extractor/common"
)

// Rows containing any of these are headers, footers or carried balances.
var skipKeywords = []string{
	"date", "description", "particular", "debit", "credit", "narration",
	"opening", "closing", "balance b/f", "total", "page",
}

// Provisional is a transaction still being assembled from rows.
type Provisional struct {
	Date      string
	Fragments []string
	Amount    float64
	HasAmount bool
	Type      common.Direction
}

// Accumulator is the reconstructor state: at most one open transaction
// plus everything already emitted. Steps take and return it by value and
// never write through to an earlier Accumulator.
type Accumulator struct {
	open    *Provisional
	emitted []Provisional
}

// Open returns the transaction currently collecting continuation rows.
func (a Accumulator) Open() *Provisional {
	return a.open
}

// Emitted lists the finished transactions in input order.
func (a Accumulator) Emitted() []Provisional {
	return a.emitted
}

// close emits the open transaction if it has an amount and clears it.
func (a Accumulator) close() Accumulator {
	if a.open != nil && a.open.HasAmount {
		n := len(a.emitted)
		a.emitted = append(a.emitted[:n:n], *a.open)
	}
	a.open = nil
	return a
}

type cellAmount struct {
	column int
	value  float64
}

// Reconstructor walks the rows of one table with a fixed role map.
type Reconstructor struct {
	roles   ColumnRoleMap
	ceiling float64
}

// NewReconstructor creates a reconstructor. A ceiling of zero disables the
// upper bound on amounts taken from unlabelled columns.
func NewReconstructor(roles ColumnRoleMap, ceiling float64) *Reconstructor {
	return &Reconstructor{roles: roles, ceiling: ceiling}
}

// Reconstruct infers column roles and walks the rows in order.
func Reconstruct(rows []common.RawRow, ceiling float64) []Provisional {
	return NewReconstructor(InferColumnRoles(rows), ceiling).Run(rows)
}

// Run feeds every row through Step and then Finish.
func (r *Reconstructor) Run(rows []common.RawRow) []Provisional {
	var acc Accumulator
	for _, row := range rows {
		acc = r.Step(acc, row)
	}
	return r.Finish(acc)
}

// Finish flushes the last open transaction.
func (r *Reconstructor) Finish(acc Accumulator) []Provisional {
	return acc.close().emitted
}

// Step consumes one row. A dated row opens a new transaction; an undated
// row continues the open one.
func (r *Reconstructor) Step(acc Accumulator, row common.RawRow) Accumulator {
	cells := trimCells(row)
	if isBlank(cells) || containsAny(joinLower(cells), skipKeywords) {
		return acc
	}

	date, dateColumn, dated := common.FindDateInRow(cells)
	amounts := rowAmounts(cells)
	fragments := textFragments(cells, dateColumn)

	if dated {
		acc = acc.close()
		tx := &Provisional{Date: date, Fragments: fragments, Type: common.Expense}
		r.assignAmount(tx, amounts)
		acc.open = tx
		return acc
	}

	if acc.open == nil {
		return acc
	}
	tx := *acc.open
	n := len(tx.Fragments)
	tx.Fragments = append(tx.Fragments[:n:n], fragments...)
	if !tx.HasAmount {
		for _, a := range amounts {
			if a.column != r.roles.Balance {
				tx.Amount = a.value
				tx.HasAmount = true
				break
			}
		}
	}
	acc.open = &tx
	return acc
}

func (r *Reconstructor) assignAmount(tx *Provisional, amounts []cellAmount) {
	if r.roles.Debit != Unknown {
		for _, a := range amounts {
			if a.column == r.roles.Debit {
				tx.Amount, tx.HasAmount, tx.Type = a.value, true, common.Expense
				return
			}
		}
	}
	if r.roles.Credit != Unknown {
		for _, a := range amounts {
			if a.column == r.roles.Credit {
				tx.Amount, tx.HasAmount, tx.Type = a.value, true, common.Income
				return
			}
		}
	}
	if r.roles.HasDirectionColumns() {
		return
	}
	for _, a := range amounts {
		if a.column == r.roles.Balance {
			continue
		}
		if r.ceiling > 0 && a.value >= r.ceiling {
			continue
		}
		tx.Amount, tx.HasAmount = a.value, true
		return
	}
}

func rowAmounts(cells common.RawRow) []cellAmount {
	var amounts []cellAmount
	for i, cell := range cells {
		if value, ok := common.ParseAmount(cell); ok {
			amounts = append(amounts, cellAmount{column: i, value: value.InexactFloat64()})
		}
	}
	return amounts
}

func textFragments(cells common.RawRow, dateColumn int) []string {
	var fragments []string
	for i, cell := range cells {
		if i == dateColumn {
			continue
		}
		if common.IsTextCell(cell) {
			fragments = append(fragments, cell)
		}
	}
	return fragments
}

func trimCells(row common.RawRow) common.RawRow {
	cells := make(common.RawRow, len(row))
	for i, cell := range row {
		cells[i] = strings.TrimSpace(cell)
	}
	return cells
}

func isBlank(cells common.RawRow) bool {
	for _, cell := range cells {
		if cell != "" {
			return false
		}
	}
	return true
}
