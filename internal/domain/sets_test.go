package domain

import (
	"reflect"
	"testing"
)

func TestJoinLower(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		want  string
	}{
		{"nil", nil, ""},
		{"empty", []string{}, ""},
		{"single", []string{"Go"}, "go"},
		{"multiple", []string{"Go", "Distributed Systems", "SQL"}, "go distributed systems sql"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JoinLower(tt.items); got != tt.want {
				t.Errorf("JoinLower(%v) = %q, want %q", tt.items, got, tt.want)
			}
		})
	}
}

func TestIntersectCountFold(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want int
	}{
		{"both empty", nil, nil, 0},
		{"disjoint", []string{"go"}, []string{"rust"}, 0},
		{"case insensitive", []string{"Go", "SQL"}, []string{"go", "sql"}, 2},
		{"duplicates counted once", []string{"go", "Go", "sql"}, []string{"go"}, 1},
		{"partial", []string{"go", "rust", "sql"}, []string{"sql", "python"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IntersectCountFold(tt.a, tt.b); got != tt.want {
				t.Errorf("IntersectCountFold(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestIntersectIDs(t *testing.T) {
	if IntersectIDs([]string{"u1"}, []string{"U1"}) {
		t.Error("identifier comparison must be exact, not case-folded")
	}
	if !IntersectIDs([]string{"u1", "u2"}, []string{"u3", "u2"}) {
		t.Error("expected overlap on u2")
	}
	if IntersectIDs(nil, []string{"u1"}) {
		t.Error("empty set never intersects")
	}
}

func TestIntersectIDCount(t *testing.T) {
	got := IntersectIDCount([]string{"a", "b", "c", "b"}, []string{"b", "c", "d"})
	if got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}

func TestUnionFold(t *testing.T) {
	got := UnionFold([]string{"Go", "SQL"}, []string{"go", "Rust"})
	want := []string{"Go", "SQL", "Rust"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UnionFold = %v, want %v", got, want)
	}
}

func TestRemoveID(t *testing.T) {
	got := RemoveID([]string{"a", "b", "a"}, "a")
	if !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("RemoveID = %v, want [b]", got)
	}
}

func TestGroupHelpers(t *testing.T) {
	members := make([]MemberRef, 12)
	for i := range members {
		members[i] = MemberRef{ID: string(rune('a' + i))}
	}
	g := Group{Members: members, Invites: []string{"x"}}

	if !g.IsPopular() {
		t.Error("12 members should be popular")
	}
	if got := len(g.MemberPreview()); got != MemberPreviewLimit {
		t.Errorf("preview length = %d, want %d", got, MemberPreviewLimit)
	}
	if !g.HasMember("a") || g.HasMember("zz") {
		t.Error("HasMember mismatch")
	}
	if !g.HasInvite("x") || g.HasInvite("y") {
		t.Error("HasInvite mismatch")
	}

	small := Group{Members: members[:9]}
	if small.IsPopular() {
		t.Error("9 members should not be popular")
	}
	if len(small.MemberPreview()) != 9 {
		t.Error("preview must not pad short member lists")
	}
}
