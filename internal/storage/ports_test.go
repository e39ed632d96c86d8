package storage

import "testing"

func TestClampPage(t *testing.T) {
	tests := []struct {
		name string
		in   PageParams
		max  int
		want PageParams
	}{
		{"defaults", PageParams{}, 100, PageParams{Page: 1, PerPage: 15}},
		{"negative page", PageParams{Page: -3, PerPage: 20}, 100, PageParams{Page: 1, PerPage: 20}},
		{"over max", PageParams{Page: 2, PerPage: 5000}, 1000, PageParams{Page: 2, PerPage: 1000}},
		{"in range", PageParams{Page: 4, PerPage: 25}, 100, PageParams{Page: 4, PerPage: 25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampPage(tt.in, tt.max); got != tt.want {
				t.Errorf("ClampPage(%+v, %d) = %+v, want %+v", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		total, perPage, want int
	}{
		{0, 15, 0},
		{1, 15, 1},
		{15, 15, 1},
		{16, 15, 2},
		{37, 15, 3},
		{10, 0, 0},
	}
	for _, tt := range tests {
		if got := PageCount(tt.total, tt.perPage); got != tt.want {
			t.Errorf("PageCount(%d, %d) = %d, want %d", tt.total, tt.perPage, got, tt.want)
		}
	}
}
