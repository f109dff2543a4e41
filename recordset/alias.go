package recordset

// ============================================================================
// FIELD ALIASES — one table instead of per-call fallback chains
// ============================================================================
// Report sources name the same measure differently ("Amount", "Total Sales",
// "Net Amount"). An AliasTable maps a canonical field to its alternatives so
// resolution happens in exactly one place.
// ============================================================================

// AliasTable maps canonical field names to ordered alternative names.
type AliasTable map[string][]string

// ResolveNumericField returns the first numeric value among the canonical
// field and its aliases, in that order. Missing or non-numeric candidates are
// skipped; 0 when nothing resolves.
func ResolveNumericField(rec Record, canonical string, aliases []string) float64 {
	if v, ok := ParseNumber(rec[canonical]); ok {
		return v
	}
	for _, alt := range aliases {
		if v, ok := ParseNumber(rec[alt]); ok {
			return v
		}
	}
	return 0
}

// Resolve looks up canonical in the table and resolves it against rec.
func (t AliasTable) Resolve(rec Record, canonical string) float64 {
	return ResolveNumericField(rec, canonical, t[canonical])
}

// apply fills canonical fields that are absent or empty from the first
// non-empty alias. Numeric aliases win over non-numeric ones.
func (t AliasTable) apply(row Record) {
	for canonical, alts := range t {
		if v, ok := row[canonical]; ok && !IsEmpty(v) {
			continue
		}
		var fallback any
		for _, alt := range alts {
			v, ok := row[alt]
			if !ok || IsEmpty(v) {
				continue
			}
			if _, numeric := ParseNumber(v); numeric {
				fallback = v
				break
			}
			if fallback == nil {
				fallback = v
			}
		}
		if fallback != nil {
			row[canonical] = fallback
		}
	}
}

// canonicalFor returns the canonical name an alias belongs to.
func (t AliasTable) canonicalFor(name string) (string, bool) {
	for canonical, alts := range t {
		for _, alt := range alts {
			if alt == name {
				return canonical, true
			}
		}
	}
	return "", false
}
