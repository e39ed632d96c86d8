package core

import "testing"

func TestResolverRoundTrip(t *testing.T) {
	cats := []Category{
		{ID: 1, Name: "Groceries"},
		{ID: 2, Name: "Dining"},
		{ID: 3, Name: "Transport"},
	}
	r := NewResolver(cats)

	for _, c := range cats {
		if got := r.Resolve(c.ID); got != c.Name {
			t.Errorf("Resolve(%d) = %q, want %q", c.ID, got, c.Name)
		}
	}
	if got := r.Resolve(99); got != UnknownCategory {
		t.Errorf("Resolve(99) = %q, want %q", got, UnknownCategory)
	}
}

func TestResolverDisplayName(t *testing.T) {
	r := NewResolver([]Category{{ID: 7, Name: "Utilities"}})

	tests := []struct {
		name string
		tx   Transaction
		want string
	}{
		{"id wins", Transaction{CategoryID: 7, Category: "stale literal"}, "Utilities"},
		{"unknown id", Transaction{CategoryID: 42}, UnknownCategory},
		{"literal fallback", Transaction{Category: "groceries"}, "groceries"},
		{"nothing", Transaction{}, UnknownCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.DisplayName(tt.tx); got != tt.want {
				t.Fatalf("DisplayName = %q, want %q", got, tt.want)
			}
		})
	}
}
