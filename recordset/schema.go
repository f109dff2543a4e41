package recordset

// ============================================================================
// SCHEMA — Describes the inferred shape of a RecordSet
// ============================================================================
// Computed once at load. Used by `reportcube describe` and by callers that
// need to offer only numeric fields as pivot values.
// ============================================================================

// Schema describes every observed field of a RecordSet, in field order.
type Schema struct {
	Records int         `json:"records" yaml:"records"`
	Fields  []FieldMeta `json:"fields" yaml:"fields"`
}

// FieldMeta describes one field.
type FieldMeta struct {
	Name         string    `json:"name" yaml:"name"`
	DisplayName  string    `json:"displayName" yaml:"displayName"`
	Kind         FieldKind `json:"kind" yaml:"kind"`
	SampleValues []string  `json:"sampleValues" yaml:"sampleValues"`
	Distinct     int       `json:"distinct" yaml:"distinct"`
	Empty        int       `json:"empty" yaml:"empty"`
}

// Schema returns the inferred field metadata.
func (rs *RecordSet) Schema() Schema {
	s := Schema{Records: rs.Len()}
	if rs == nil {
		return s
	}
	s.Fields = make([]FieldMeta, 0, len(rs.fields))
	for _, f := range rs.fields {
		s.Fields = append(s.Fields, rs.meta[f])
	}
	return s
}

// NumericFields returns the names of numeric fields.
func (s Schema) NumericFields() []string {
	return s.fieldsOfKind(Numeric)
}

// CategoricalFields returns the names of categorical fields.
func (s Schema) CategoricalFields() []string {
	return s.fieldsOfKind(Categorical)
}

func (s Schema) fieldsOfKind(kind FieldKind) []string {
	var out []string
	for _, f := range s.Fields {
		if f.Kind == kind {
			out = append(out, f.Name)
		}
	}
	return out
}
