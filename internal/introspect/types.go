// Package introspect extracts table/column/key metadata from a live
// database, dialect by dialect, with a TTL cache pinned to the owning
// gateway.
package introspect

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Type      string `json:"type"`
	Nullable  bool   `json:"nullable"`
	Default   string `json:"default,omitempty"`
	MaxLength *int   `json:"max_length,omitempty"`
	Precision *int   `json:"precision,omitempty"`
	Scale     *int   `json:"scale,omitempty"`
}

// ForeignKey describes one outgoing foreign key from a column.
type ForeignKey struct {
	Column     string `json:"column"`
	References struct {
		Table  string `json:"table"`
		Column string `json:"column"`
	} `json:"references"`
}

// TableSchema is one entry of SchemaInfo, keyed by the table's fully
// qualified name (schema.table; SQLite/CSV tables use the schema "main").
type TableSchema struct {
	Schema      string                `json:"schema"`
	Name        string                `json:"name"`
	Kind        string                `json:"kind"` // "table" | "view"
	Columns     map[string]ColumnInfo `json:"columns"`
	PrimaryKeys []string              `json:"primary_keys"`
	ForeignKeys []ForeignKey          `json:"foreign_keys"`
}

// SchemaInfo maps a fully-qualified table name to its schema.
type SchemaInfo map[string]*TableSchema

// TableRef is one row of a TableListing.
type TableRef struct {
	Schema   string `json:"schema"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Kind     string `json:"kind"`
}

// TableListing is the result of list_tables.
type TableListing struct {
	Tables []TableRef `json:"tables"`
	Total  int        `json:"total"`
}

// systemSchemas are excluded from list_tables/get_schema across dialects.
var systemSchemas = map[string]bool{
	"pg_catalog":         true,
	"information_schema": true,
	"mysql":              true,
	"sys":                true,
	"performance_schema": true,
}
