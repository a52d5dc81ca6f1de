package shared

const (
	// Default pagination
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100

	// LivePredicate filters soft-deleted rows. Every read path on a
	// tombstoned table goes through Where so the filter cannot be forgotten.
	LivePredicate = "deleted_at IS NULL"
)
