package table

import (
	"strings"

	"github.com/aqlanhadi/txnrecon/extractor/common"
)

// Unknown marks a role that has no column.
const Unknown = -1

var headerSignature = []string{"date", "description", "debit"}

// ColumnRoleMap locates amount columns. It is built once per table.
type ColumnRoleMap struct {
	Debit   int
	Credit  int
	Balance int
}

// EmptyRoles is the map used when no header row is found.
func EmptyRoles() ColumnRoleMap {
	return ColumnRoleMap{Debit: Unknown, Credit: Unknown, Balance: Unknown}
}

// HasDirectionColumns is true when both debit and credit columns are known.
func (m ColumnRoleMap) HasDirectionColumns() bool {
	return m.Debit != Unknown && m.Credit != Unknown
}

// InferColumnRoles maps columns from the first header-like row.
func InferColumnRoles(rows []common.RawRow) ColumnRoleMap {
	roles := EmptyRoles()

	for _, row := range rows {
		if len(row) == 0 || !containsAny(joinLower(row), headerSignature) {
			continue
		}
		for i, cell := range row {
			cellLower := strings.ToLower(cell)
			switch {
			case strings.Contains(cellLower, "debit") || strings.Contains(cellLower, "withdrawal"):
				roles.Debit = i
			case strings.Contains(cellLower, "credit") || strings.Contains(cellLower, "deposit"):
				roles.Credit = i
			case strings.Contains(cellLower, "balance"):
				roles.Balance = i
			}
		}
		break
	}

	return roles
}

func joinLower(row common.RawRow) string {
	return strings.ToLower(strings.Join(row, " "))
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
