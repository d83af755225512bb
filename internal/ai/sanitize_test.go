package ai

import "testing"

func TestSanitizeAssistantText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain answer", "plain answer"},
		{"  padded \n", "padded"},
		{"a\r\nb", "a\nb"},
		{"<think>secret plan</think>the answer", "the answer"},
		{"before<think>one</think>mid<think>two</think>after", "beforemidafter"},
		{"<think>unterminated", ""},
		{"dangling</think> tail", "dangling tail"},
	}
	for _, tc := range cases {
		if got := SanitizeAssistantText(tc.in); got != tc.want {
			t.Fatalf("SanitizeAssistantText(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestCleanTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`"Budget Review"`, "Budget Review"},
		{"Plan: March", "Plan March"},
		{"  spaced   out  ", "spaced out"},
	}
	for _, tc := range cases {
		if got := CleanTitle(tc.in); got != tc.want {
			t.Fatalf("CleanTitle(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}

	long := make([]rune, 0, 120)
	for i := 0; i < 120; i++ {
		long = append(long, 'x')
	}
	if got := CleanTitle(string(long)); len([]rune(got)) > 80 {
		t.Fatalf("expected clipped title, got %d runes", len([]rune(got)))
	}
}
