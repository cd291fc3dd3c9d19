// server/internal/models/common.go
package models

// Role là vai trò của một tài khoản trên sàn.
type Role string

const (
	RoleFarmer Role = "farmer"
	RoleBuyer  Role = "buyer"
)

// Valid reports whether r is one of the marketplace roles.
func (r Role) Valid() bool {
	return r == RoleFarmer || r == RoleBuyer
}

// SizeCategory is the fish size class a listing is sold in.
type SizeCategory string

const (
	Size300To500g SizeCategory = "300g-500g"
	Size500gTo1kg SizeCategory = "500g-1kg"
	Size1kgPlus   SizeCategory = "1kg+"
)

// SizeCategories is the fixed set offered in the listing form.
var SizeCategories = []SizeCategory{Size300To500g, Size500gTo1kg, Size1kgPlus}

func (s SizeCategory) Valid() bool {
	for _, c := range SizeCategories {
		if c == s {
			return true
		}
	}
	return false
}

// LocationAll is the wildcard accepted by the marketplace location filter.
const LocationAll = "All"
