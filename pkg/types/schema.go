package types

// Field names a column of the consolidated table.
type Field string

const (
	FieldFR    Field = "FR"
	FieldASH   Field = "ASH"
	FieldAWA   Field = "AWA"
	FieldN     Field = "N"
	FieldNOut  Field = "N_OUT"
	FieldExit  Field = "EXIT"
	FieldMulti Field = "MULTI"
	FieldDate  Field = "DATE"
	FieldPath  Field = "PATH"
)

// Columns is the canonical column order of the table file.
var Columns = []Field{
	FieldFR, FieldASH, FieldAWA, FieldN, FieldNOut, FieldExit, FieldMulti, FieldDate, FieldPath,
}

// ColumnKind describes how a column's text is interpreted.
type ColumnKind string

const (
	KindInteger ColumnKind = "INTEGER"
	KindReal    ColumnKind = "REAL"
	KindText    ColumnKind = "TEXT"
)

// ColumnDef defines a single column in the schema.
type ColumnDef struct {
	// Name is the column name
	Name Field `json:"name"`

	// Kind is the semantic type of the column's text
	Kind ColumnKind `json:"kind"`

	// Source tells which extraction step produces the column: "path" or "content"
	Source string `json:"source"`
}

// Schema lists every column of the table with its semantic type.
var Schema = []ColumnDef{
	{Name: FieldFR, Kind: KindInteger, Source: "path"},
	{Name: FieldASH, Kind: KindReal, Source: "path"},
	{Name: FieldAWA, Kind: KindReal, Source: "path"},
	{Name: FieldN, Kind: KindInteger, Source: "content"},
	{Name: FieldNOut, Kind: KindInteger, Source: "content"},
	{Name: FieldExit, Kind: KindReal, Source: "content"},
	{Name: FieldMulti, Kind: KindInteger, Source: "path"},
	{Name: FieldDate, Kind: KindText, Source: "path"},
	{Name: FieldPath, Kind: KindText, Source: "path"},
}

// ParseField maps a column name to a Field.
func ParseField(name string) (Field, bool) {
	f := Field(name)
	return f, f.Valid()
}

// Valid reports whether f is one of the table's columns.
func (f Field) Valid() bool {
	for _, c := range Columns {
		if c == f {
			return true
		}
	}
	return false
}

// Numeric reports whether the column holds numbers.
func (f Field) Numeric() bool {
	for _, c := range Schema {
		if c.Name == f {
			return c.Kind != KindText
		}
	}
	return false
}
