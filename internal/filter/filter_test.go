package filter

import (
	"errors"
	"testing"

	"github.com/starford/raido/internal/apperr"
)

func mustCompile(t *testing.T, criteria map[string]any) *Filter {
	t.Helper()
	f, err := Compile(criteria)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return f
}

func note(x float64) map[string]any {
	return map[string]any{
		"id":       "n",
		"type":     "note",
		"location": map[string]any{"x": x, "y": 0.0},
		"properties": map[string]any{
			"title": "quarterly report",
		},
	}
}

func TestEmptyCriteriaMatchesEverything(t *testing.T) {
	f := mustCompile(t, map[string]any{})
	if !f.Matches(map[string]any{}) || !f.Matches(note(1)) {
		t.Errorf("empty criteria must match every record")
	}
}

func TestLiteralEquality(t *testing.T) {
	f := mustCompile(t, map[string]any{"type": "note"})
	if !f.Matches(note(0)) {
		t.Errorf("literal match failed")
	}
	if f.Matches(map[string]any{"type": "image"}) {
		t.Errorf("different literal must not match")
	}
	// Numeric strings are not coerced.
	f = mustCompile(t, map[string]any{"location.x": 10.0})
	if f.Matches(map[string]any{"location": map[string]any{"x": "10"}}) {
		t.Errorf("numeric string must not equal number")
	}
	// But int criteria match float64 record values.
	f = mustCompile(t, map[string]any{"location.x": 10})
	if !f.Matches(note(10)) {
		t.Errorf("int criteria should match float64 record value")
	}
}

func TestWildcardPatterns(t *testing.T) {
	cases := []struct {
		pattern string
		value   any
		want    bool
	}{
		{"abc*", "abcdef", true},
		{"abc*", "xabc", false},
		{"*mid*", "xxmidyy", true},
		{"*mid*", "md", false},
		{"*fix", "suffix", true},
		{"*fix", "fixed", false},
		{"*", "", true},
		{"*", 42.0, true}, // bare star matches any present value
		{"a*b", "a*b", true}, // interior star is literal, not a marker
		{"a*b", "aXb", false},
	}
	for _, tc := range cases {
		f := mustCompile(t, map[string]any{"name": tc.pattern})
		got := f.Matches(map[string]any{"name": tc.value})
		if got != tc.want {
			t.Errorf("pattern %q against %v = %v, want %v", tc.pattern, tc.value, got, tc.want)
		}
	}
}

func TestWildcardAbsentFieldNeverMatches(t *testing.T) {
	f := mustCompile(t, map[string]any{"name": "*"})
	if f.Matches(map[string]any{"other": "x"}) {
		t.Errorf("bare star must not match an absent field")
	}
}

func TestPathResolution(t *testing.T) {
	f := mustCompile(t, map[string]any{"properties.title": "quarterly report"})
	if !f.Matches(note(0)) {
		t.Errorf("nested path match failed")
	}
	// Missing intermediate key is "absent", not an error.
	if f.Matches(map[string]any{"properties": "not-a-map"}) {
		t.Errorf("non-map intermediate must be treated as absent")
	}

	f = mustCompile(t, map[string]any{"properties[app.version]": "1.2"})
	rec := map[string]any{"properties": map[string]any{"app.version": "1.2"}}
	if !f.Matches(rec) {
		t.Errorf("bracket segment with dots failed to resolve")
	}
}

func TestComparisons(t *testing.T) {
	f := mustCompile(t, map[string]any{"location.x": map[string]any{"$gt": 50.0, "$lt": 100.0}})
	if !f.Matches(note(60)) {
		t.Errorf("60 should satisfy 50 < x < 100")
	}
	if f.Matches(note(10)) || f.Matches(note(200)) {
		t.Errorf("out-of-range values must not match")
	}
	// $gt against a string value: non-match, never an error.
	if f.Matches(map[string]any{"location": map[string]any{"x": "60"}}) {
		t.Errorf("type-incompatible comparison must be a non-match")
	}
}

func TestNotEqual(t *testing.T) {
	f := mustCompile(t, map[string]any{"type": map[string]any{"$ne": "note"}})
	if f.Matches(note(0)) {
		t.Errorf("$ne must reject equal value")
	}
	if !f.Matches(map[string]any{"type": "image"}) {
		t.Errorf("$ne must accept different value")
	}
	// Comparisons apply only to resolved values.
	if f.Matches(map[string]any{}) {
		t.Errorf("$ne must not match an absent field")
	}
}

func TestRegex(t *testing.T) {
	f := mustCompile(t, map[string]any{"properties.title": map[string]any{"$regex": "^quarter"}})
	if !f.Matches(note(0)) {
		t.Errorf("regex should match")
	}
	if f.Matches(map[string]any{"properties": map[string]any{"title": "annual"}}) {
		t.Errorf("regex should not match")
	}
}

func TestCombinators(t *testing.T) {
	f := mustCompile(t, map[string]any{
		"$and": []any{
			map[string]any{"type": "note"},
			map[string]any{"location.x": map[string]any{"$gt": 50.0}},
		},
	})

	xs := []float64{10, 10, 10, 60, 200}
	matched := 0
	for _, x := range xs {
		if f.Matches(note(x)) {
			matched++
		}
	}
	if matched != 2 {
		t.Errorf("matched %d of %v, want 2", matched, xs)
	}

	f = mustCompile(t, map[string]any{
		"$or": []any{
			map[string]any{"type": "image"},
			map[string]any{"location.x": 10.0},
		},
	})
	if !f.Matches(note(10)) {
		t.Errorf("$or should match on second branch")
	}
	if f.Matches(note(60)) {
		t.Errorf("$or with no matching branch must not match")
	}
}

func TestCompileErrors(t *testing.T) {
	cases := []map[string]any{
		{"$nor": []any{}},                                    // unknown combinator
		{"$and": "not-a-list"},                               // wrong combinator shape
		{"$and": []any{"not-an-object"}},                     // wrong list item
		{"x": map[string]any{"$near": 1.0}},                  // unknown comparison op
		{"x": map[string]any{"$gt": "high"}},                 // non-numeric operand
		{"x": map[string]any{"$regex": "("}},                 // bad regex
		{"x": map[string]any{"$gt": 1.0, "plain": 2.0}},      // mixed shape
		{"a..b": 1.0},                                        // empty path segment
		{"a[": 1.0},                                          // unterminated bracket
	}
	for _, criteria := range cases {
		_, err := Compile(criteria)
		var verr *apperr.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("Compile(%v) err = %v, want ValidationError", criteria, err)
		}
	}
}
