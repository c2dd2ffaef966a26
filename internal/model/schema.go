package model

const (
	// SchemaName identifies the persisted layout of the videos table.
	SchemaName = "videos"
	// SchemaVersion must match the stored version on reopen. There are no
	// migrations between versions.
	SchemaVersion = 1
)

// SchemaInfo is the single row stamping the schema identity of a store file.
type SchemaInfo struct {
	Name    string `gorm:"primaryKey;size:64"`
	Version int    `gorm:"not null"`
}

// TableName returns the table name for SchemaInfo
func (SchemaInfo) TableName() string {
	return "schema_info"
}
