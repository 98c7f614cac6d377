package gemini

import (
	"reflect"
	"testing"
)

func TestParseStringList(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{
			name: "plain json",
			raw:  `["one", "two"]`,
			want: []string{"one", "two"},
		},
		{
			name: "fenced json",
			raw:  "```json\n[\"one\", \"two\", \"three\"]\n```",
			want: []string{"one", "two", "three"},
		},
		{
			name: "line fallback",
			raw:  "first bio\n\nsecond bio",
			want: []string{"first bio", "second bio"},
		},
		{
			name:    "nothing usable",
			raw:     "[",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStringList(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseStringList() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseStringList() = %v, want %v", got, tt.want)
			}
		})
	}
}
