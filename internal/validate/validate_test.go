package validate

import "testing"

func TestValue_Name(t *testing.T) {
	r := Value("  John O'Brien ", KindName)
	if !r.Valid {
		t.Fatalf("name should be valid, got err %q", r.Err)
	}
	if r.Sanitized != "John O'Brien" {
		t.Errorf("sanitized = %q, want %q", r.Sanitized, "John O'Brien")
	}

	for _, bad := range []string{"", "   ", "Jane123", "x; DROP TABLE"} {
		if got := Value(bad, KindName); got.Valid {
			t.Errorf("Value(%q, name) should be invalid", bad)
		}
	}

	if got := Value("Anne-Marie du Pré", KindName); !got.Valid {
		t.Errorf("accented hyphenated name should be valid, got err %q", got.Err)
	}
}

func TestValue_Email(t *testing.T) {
	r := Value("  Staff@Example.ORG ", KindEmail)
	if !r.Valid {
		t.Fatalf("email should be valid, got err %q", r.Err)
	}
	if r.Sanitized != "staff@example.org" {
		t.Errorf("sanitized = %q, want lower-cased trimmed email", r.Sanitized)
	}

	for _, bad := range []string{"", "@example.org", "staff@nodot", "two@@example.org", "a b@example.org"} {
		if got := Value(bad, KindEmail); got.Valid {
			t.Errorf("Value(%q, email) should be invalid", bad)
		}
	}
}

func TestValue_Phone(t *testing.T) {
	r := Value(" +1 (555) 123-4567 ", KindPhone)
	if !r.Valid {
		t.Fatalf("phone should be valid, got err %q", r.Err)
	}

	if got := Value("555-1234", KindPhone); got.Valid {
		t.Error("phone with fewer than 10 digits should be invalid")
	}
	if got := Value("555-123-4567x", KindPhone); got.Valid {
		t.Error("phone with letters should be invalid")
	}
}

func TestValue_Amount(t *testing.T) {
	for _, good := range []string{"1", "0.01", "125.50", "1000"} {
		if got := Value(good, KindAmount); !got.Valid {
			t.Errorf("Value(%q, amount) should be valid, got err %q", good, got.Err)
		}
	}
	for _, bad := range []string{"abc", "5.999", "0", "0.00", "-5", "1,000", ""} {
		if got := Value(bad, KindAmount); got.Valid {
			t.Errorf("Value(%q, amount) should be invalid", bad)
		}
	}
}

func TestValue_TextStripsMarkup(t *testing.T) {
	r := Value(`hello <script>alert("x")</script>world`, KindText)
	if !r.Valid {
		t.Fatal("text kind is always valid")
	}
	if r.Sanitized != "hello world" {
		t.Errorf("sanitized = %q, want %q", r.Sanitized, "hello world")
	}

	r = Value(`<img src=x onerror=alert(1)>note`, KindText)
	if r.Sanitized != "note" {
		t.Errorf("sanitized = %q, want %q", r.Sanitized, "note")
	}
}

func TestValue_MarkupKeepsAllowedTags(t *testing.T) {
	r := Value(`<p>case <b>note</b> <script>alert(1)</script><a href="http://x">link</a></p>`, KindMarkup)
	if !r.Valid {
		t.Fatal("markup kind is always valid")
	}
	want := "<p>case <b>note</b> link</p>"
	if r.Sanitized != want {
		t.Errorf("sanitized = %q, want %q", r.Sanitized, want)
	}
}

func TestValue_UnknownKind(t *testing.T) {
	r := Value("anything", Kind("bogus"))
	if r.Valid {
		t.Error("unknown kind should be invalid")
	}
	if r.Err == "" {
		t.Error("unknown kind should carry an error message")
	}
}

func TestValue_Idempotent(t *testing.T) {
	cases := []struct {
		raw  string
		kind Kind
	}{
		{"  John O'Brien ", KindName},
		{"  Staff@Example.ORG ", KindEmail},
		{" +1 (555) 123-4567 ", KindPhone},
		{"125.50", KindAmount},
		{`x <script>bad()</script> y`, KindText},
		{`<p>ok <b>bold</b></p>`, KindMarkup},
	}
	for _, tc := range cases {
		first := Value(tc.raw, tc.kind)
		second := Value(first.Sanitized, tc.kind)
		if second.Sanitized != first.Sanitized {
			t.Errorf("Value(%q, %s) not idempotent: %q then %q", tc.raw, tc.kind, first.Sanitized, second.Sanitized)
		}
		if second.Valid != first.Valid {
			t.Errorf("Value(%q, %s) validity changed on re-validation", tc.raw, tc.kind)
		}
	}
}
