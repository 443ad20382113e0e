package autosave

import (
	"reflect"
	"testing"
)

func TestDocument_CloneIsDeep(t *testing.T) {
	original := Document{
		"title": "draft",
		"meta":  map[string]any{"tags": []any{"a", "b"}},
	}

	clone := original.Clone()
	clone["title"] = "changed"
	clone["meta"].(map[string]any)["tags"].([]any)[0] = "z"

	if original["title"] != "draft" {
		t.Fatal("clone shares top-level state with the original")
	}
	if got := original["meta"].(map[string]any)["tags"].([]any)[0]; got != "a" {
		t.Fatalf("clone shares nested state with the original, got %v", got)
	}
}

func TestDocument_CloneNil(t *testing.T) {
	var d Document
	if d.Clone() != nil {
		t.Fatal("expected nil clone of nil document")
	}
}

func TestDocument_MergeReplacesTopLevelFields(t *testing.T) {
	doc := Document{"title": "old", "body": "keep"}
	doc.Merge(Document{"title": "new", "extra": 1})

	want := Document{"title": "new", "body": "keep", "extra": 1}
	if !doc.Equal(want) {
		t.Fatalf("unexpected merge result: %v", doc)
	}
}

func TestDocument_MergeCopiesValues(t *testing.T) {
	nested := map[string]any{"k": "v"}
	doc := Document{}
	doc.Merge(Document{"meta": nested})

	nested["k"] = "mutated"
	if got := doc["meta"].(map[string]any)["k"]; got != "v" {
		t.Fatalf("merge aliased the caller's map, got %v", got)
	}
}

func TestDocument_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b Document
		want bool
	}{
		{"identical", Document{"a": 1}, Document{"a": 1}, true},
		{"different value", Document{"a": 1}, Document{"a": 2}, false},
		{"different keys", Document{"a": 1}, Document{"b": 1}, false},
		{"extra key", Document{"a": 1}, Document{"a": 1, "b": 2}, false},
		{"both empty", Document{}, Document{}, true},
		{"nested equal", Document{"m": map[string]any{"x": 1}}, Document{"m": map[string]any{"x": 1}}, true},
		{"nested differ", Document{"m": map[string]any{"x": 1}}, Document{"m": map[string]any{"x": 2}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Fatalf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiffFields(t *testing.T) {
	tests := []struct {
		name          string
		local, server Document
		want          []string
	}{
		{
			name:   "value changed",
			local:  Document{"title": "mine", "body": "same"},
			server: Document{"title": "theirs", "body": "same"},
			want:   []string{"title"},
		},
		{
			name:   "field only local",
			local:  Document{"title": "x", "draft_note": "wip"},
			server: Document{"title": "x"},
			want:   []string{"draft_note"},
		},
		{
			name:   "field only server",
			local:  Document{"title": "x"},
			server: Document{"title": "x", "reviewed_by": "admin"},
			want:   []string{"reviewed_by"},
		},
		{
			name:   "sorted output",
			local:  Document{"z": 1, "a": 1, "m": 1},
			server: Document{"z": 2, "a": 2, "m": 2},
			want:   []string{"a", "m", "z"},
		},
		{
			name:   "no differences",
			local:  Document{"title": "x"},
			server: Document{"title": "x"},
			want:   nil,
		},
		{
			// Printed-form comparison: the int 1 and the string "1"
			// render identically and are not flagged.
			name:   "printed form equality",
			local:  Document{"count": 1},
			server: Document{"count": "1"},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiffFields(tt.local, tt.server)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("DiffFields() = %v, want %v", got, tt.want)
			}
		})
	}
}
