package priority

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mailtriage/pkg/apperr"
)

func TestScore(t *testing.T) {
	cases := []struct {
		name    string
		subject string
		body    string
		want    int
	}{
		{"empty", "", "", 0},
		{"no keywords", "Lunch on Friday?", "Let me know if pizza works.", 0},
		{"urgent", "urgent", "", 10},
		{"immediately in body", "Hi", "please reply immediately", 10},
		{"important", "Important notice", "", 8},
		{"meeting", "", "meeting notes attached", 6},
		{"schedule", "Schedule", "", 6},
		{"max not sum", "urgent meeting", "", 10},
		{"important beats meeting", "meeting", "this is important", 8},
		{"case insensitive", "URGENT", "", 10},
		{"mixed case body", "", "ImPoRtAnT", 8},
		{"substring inside longer word", "Importantly, lunch", "", 8},
		{"rescheduled", "", "rescheduled for tomorrow", 6},
		{"keyword split across subject and body", "urg", "ent", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Score(tc.subject, tc.body)
			if err != nil {
				t.Fatalf("Score: unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Score(%q, %q) = %d, want %d", tc.subject, tc.body, got, tc.want)
			}
		})
	}
}

var keywordWeights = map[string]int{"urgent": 10, "immediately": 10, "important": 8, "meeting": 6, "schedule": 6}

func TestScore_CaseInsensitiveForEveryKeyword(t *testing.T) {
	for word, weight := range keywordWeights {
		lower, err := Score(word, "")
		if err != nil {
			t.Fatal(err)
		}
		upper, err := Score("", strings.ToUpper(word))
		if err != nil {
			t.Fatal(err)
		}
		if lower != weight || upper != weight {
			t.Errorf("%q: lower=%d upper=%d, want %d", word, lower, upper, weight)
		}
	}
}

func TestScore_InvalidText(t *testing.T) {
	_, err := Score("\xff\xfe", "body")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
	_, err = Score("subject", string([]byte{0xc3}))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestIsImportant_Boundary(t *testing.T) {
	if IsImportant(5) {
		t.Error("IsImportant(5) = true, want false")
	}
	if !IsImportant(6) {
		t.Error("IsImportant(6) = false, want true")
	}
}

func TestKeywordTable(t *testing.T) {
	got := make(map[string]int, len(keywords))
	for _, k := range keywords {
		got[k.word] = k.weight
	}
	if diff := cmp.Diff(keywordWeights, got); diff != "" {
		t.Errorf("keyword table mismatch (-want +got):\n%s", diff)
	}
}
