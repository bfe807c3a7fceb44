package dag

import "testing"

func TestCountCrossings(t *testing.T) {
	tests := []struct {
		name  string
		rows  [][]string
		edges []Edge
		want  int
	}{
		{"empty", nil, nil, 0},
		{
			name:  "parallel",
			rows:  [][]string{{"a", "b"}, {"c", "d"}},
			edges: []Edge{{"a", "c"}, {"b", "d"}},
			want:  0,
		},
		{
			name:  "single cross",
			rows:  [][]string{{"a", "b"}, {"c", "d"}},
			edges: []Edge{{"a", "d"}, {"b", "c"}},
			want:  1,
		},
		{
			name:  "shared endpoint",
			rows:  [][]string{{"a", "b"}, {"c"}},
			edges: []Edge{{"a", "c"}, {"b", "c"}},
			want:  0,
		},
		{
			name: "two layers",
			rows: [][]string{{"a", "b"}, {"c", "d"}, {"e", "f"}},
			edges: []Edge{
				{"a", "d"}, {"b", "c"},
				{"c", "f"}, {"d", "e"},
			},
			want: 2,
		},
		{
			name:  "long edges ignored",
			rows:  [][]string{{"a", "b"}, {"c"}, {"d", "e"}},
			edges: []Edge{{"a", "e"}, {"b", "c"}, {"c", "d"}},
			want:  0,
		},
		{
			name:  "unknown nodes ignored",
			rows:  [][]string{{"a"}, {"b"}},
			edges: []Edge{{"a", "b"}, {"x", "b"}},
			want:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountCrossings(tt.rows, tt.edges); got != tt.want {
				t.Errorf("CountCrossings() = %d, want %d", got, tt.want)
			}
		})
	}
}
