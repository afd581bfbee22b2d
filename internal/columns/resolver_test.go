package columns

import (
	"errors"
	"reflect"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		fields    []string
		overrides Overrides
		want      Resolution
	}{
		{
			name:   "korean headers",
			fields: []string{"숙소명", "위치", "숙소후기"},
			want:   Resolution{Review: "숙소후기", Entity: "숙소명", Location: "위치"},
		},
		{
			name:   "case-insensitive english headers",
			fields: []string{"Hotel", "Region", "Guest Review"},
			want:   Resolution{Review: "Guest Review", Entity: "Hotel", Location: "Region"},
		},
		{
			name:   "exact match beats earlier substring match",
			fields: []string{"previous_review", "review"},
			want:   Resolution{Review: "review"},
		},
		{
			name:   "first substring match in declaration order",
			fields: []string{"review_text", "review_summary"},
			want:   Resolution{Review: "review_text"},
		},
		{
			name:   "optional columns missing",
			fields: []string{"id", "후기"},
			want:   Resolution{Review: "후기"},
		},
		{
			name:      "explicit override",
			fields:    []string{"review", "comment", "place"},
			overrides: Overrides{Review: "comment", Entity: "place"},
			want:      Resolution{Review: "comment", Entity: "place"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewResolver(tt.overrides).Resolve(tt.fields)
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveExcludesOutputColumns(t *testing.T) {
	r := NewResolver(Overrides{})
	r.Exclude = func(f string) bool { return f == "AI키워드_상태" }
	got, err := r.Resolve([]string{"AI키워드_상태", "venue", "후기"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got.Review != "후기" || got.Entity != "venue" {
		t.Errorf("Resolve() = %+v", got)
	}
}

func TestResolveSchemaError(t *testing.T) {
	tests := []struct {
		name      string
		fields    []string
		overrides Overrides
	}{
		{name: "no review column", fields: []string{"숙소명", "위치"}},
		{name: "override names a missing column", fields: []string{"review"}, overrides: Overrides{Entity: "hotel_name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResolver(tt.overrides).Resolve(tt.fields)
			var schemaErr *SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("Resolve() error = %v, want *SchemaError", err)
			}
			if !reflect.DeepEqual(schemaErr.Available, tt.fields) {
				t.Errorf("Available = %v, want %v", schemaErr.Available, tt.fields)
			}
		})
	}
}
