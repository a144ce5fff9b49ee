package core

// BuildMaterial assembles the record to persist from a validated row and
// the resolved entity IDs. Fields absent from the row stay nil.
func BuildMaterial(row ValidatedRow, categoryID, supplierID int64) Material {
	return Material{
		Name:        row.Name,
		CategoryID:  categoryID,
		SupplierID:  supplierID,
		Description: row.Description,
		FilePath:    row.FilePath,
		Metadata:    row.Metadata,
	}
}
