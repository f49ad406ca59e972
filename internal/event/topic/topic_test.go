package topic

import "testing"

func TestTopic_Matches(t *testing.T) {
	tests := []struct {
		topic   Topic
		pattern Topic
		want    bool
	}{
		{SelectionAttribute, SelectionAttribute, true},
		{SelectionAttribute, SelectionRange, false},
		{SelectionAttribute, "selection.change.*", true},
		{SelectionRange, "selection.*", false},
		{SelectionRange, "selection.**", true},
		{DocumentChange, "**", true},
		{"command.change.value", "*.change.*", true},
		{"command.change", "command.change.**", true},
		{"document", "document.*", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.topic)+"~"+string(tt.pattern), func(t *testing.T) {
			if got := tt.topic.Matches(tt.pattern); got != tt.want {
				t.Errorf("%q.Matches(%q) = %v, want %v", tt.topic, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestTopic_ChildAndBase(t *testing.T) {
	child := CommandChange.Child("isEnabled")
	if child != "command.change.isEnabled" {
		t.Fatalf("Child() = %q", child)
	}
	if child.Base() != "isEnabled" {
		t.Errorf("Base() = %q, want isEnabled", child.Base())
	}
	if Topic("").Child("x") != "x" {
		t.Error("empty topic child should be the segment itself")
	}
}

func TestTopic_IsValid(t *testing.T) {
	tests := []struct {
		topic Topic
		want  bool
	}{
		{"", false},
		{"a..b", false},
		{".a", false},
		{"a.b", true},
		{DocumentChangesDone, true},
	}
	for _, tt := range tests {
		if got := tt.topic.IsValid(); got != tt.want {
			t.Errorf("%q.IsValid() = %v, want %v", tt.topic, got, tt.want)
		}
	}
}

func TestJoin(t *testing.T) {
	if got := Join("selection", "change", "range"); got != SelectionRange {
		t.Errorf("Join() = %q, want %q", got, SelectionRange)
	}
	if len(Topic("").Segments()) != 0 {
		t.Error("empty topic should have no segments")
	}
}
