package database

// Image sort orders accepted by profile listings
const (
	SortDateDesc    = "date_desc"
	SortDateAsc     = "date_asc"
	SortFilenameAsc = "filename_asc"
	SortFilenameNat = "filename_nat"
)

const DefaultSortOrder = SortDateDesc

// IsValidSortOrder checks if a string is a valid sort order constant
func IsValidSortOrder(order string) bool {
	switch order {
	case SortDateDesc, SortDateAsc, SortFilenameAsc, SortFilenameNat:
		return true
	default:
		return false
	}
}

// OrderClauses returns the ORDER BY terms for an image sort order. Natural
// filename order cannot be expressed in SQL and is applied by the caller
// on top of filename_asc.
func OrderClauses(order string) []string {
	switch order {
	case SortDateAsc:
		return []string{"date_added ASC", "id ASC"}
	case SortFilenameAsc, SortFilenameNat:
		return []string{"filename ASC", "id ASC"}
	default:
		return []string{"date_added DESC", "id DESC"}
	}
}
