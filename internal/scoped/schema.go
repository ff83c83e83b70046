package scoped

// DefaultOwnerField is the logical attribute name recording which user
// created a row, used as the tenancy boundary unless overridden.
const DefaultOwnerField = "createdBy"

// Column maps a logical attribute name to its physical storage name.
type Column struct {
	Attribute string
	Name      string
}

// Relation describes one association step usable in a relation path. Exactly
// one of LocalColumn (row holds the foreign key, many-to-one) or
// ForeignColumn (target rows hold the foreign key, one-to-many) is set.
type Relation struct {
	Target        *Schema
	LocalColumn   string
	ForeignColumn string
}

// Schema is the static metadata for one entity type. It stands in for ORM
// metadata introspection: declared once next to the model, shared read-only
// by every repository and store for that entity.
type Schema struct {
	Table      string
	Alias      string
	PrimaryKey Column
	Columns    []Column
	Relations  map[string]Relation
	// SoftDelete is the timestamp column marking logical deletion, empty when
	// the entity only supports hard deletes.
	SoftDelete string
}

// ColumnFor resolves a logical attribute to its storage name.
func (s *Schema) ColumnFor(attribute string) (string, bool) {
	if attribute == s.PrimaryKey.Attribute {
		return s.PrimaryKey.Name, true
	}
	for _, c := range s.Columns {
		if c.Attribute == attribute {
			return c.Name, true
		}
	}
	return "", false
}

// Ownership describes whether and how an entity records its creator. The
// descriptor is computed once per repository construction; schema metadata is
// static for the process lifetime so it is never re-queried per call.
type Ownership struct {
	Attribute string
	Column    string
	Exists    bool
}

// DescribeOwnership resolves the owner attribute for a schema. Resolution
// order: a column whose logical attribute matches the configured field, then
// a column whose physical name matches, then a non-existent descriptor that
// keeps both names equal to the configured field (documents intent without
// enabling scoping).
func DescribeOwnership(s *Schema, field string) Ownership {
	for _, c := range s.Columns {
		if c.Attribute == field {
			return Ownership{Attribute: c.Attribute, Column: c.Name, Exists: true}
		}
	}
	for _, c := range s.Columns {
		if c.Name == field {
			return Ownership{Attribute: c.Attribute, Column: c.Name, Exists: true}
		}
	}
	return Ownership{Attribute: field, Column: field, Exists: false}
}
