package core

// UnknownCategory is the fallback label for unresolved category references.
const UnknownCategory = "Unknown"

// Resolver maps category ids to display names. Build a fresh one whenever
// the category set changes; it never caches across reloads.
type Resolver struct {
	names map[int64]string
}

func NewResolver(cats []Category) *Resolver {
	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return &Resolver{names: names}
}

// Resolve returns the category name for id, or UnknownCategory when the id
// is missing from the set.
func (r *Resolver) Resolve(id int64) string {
	if name, ok := r.names[id]; ok {
		return name
	}
	return UnknownCategory
}

// DisplayName resolves a transaction's category for presentation: the
// category_id wins when present, otherwise a literal category carried on the
// row (legacy manually entered data), otherwise UnknownCategory.
func (r *Resolver) DisplayName(t Transaction) string {
	if t.CategoryID != 0 {
		return r.Resolve(t.CategoryID)
	}
	if t.Category != "" {
		return t.Category
	}
	return UnknownCategory
}
