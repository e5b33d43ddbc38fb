package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finance/internal/core"
)

func newParser(t *testing.T, method, target, contentType, body string) *RequestBodyParser {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return NewRequestBodyParser(req)
}

func TestRequestBodyParser_Sources(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		contentType string
		body        string
		key         string
		want        string
		wantJSON    bool
	}{
		{"form body", "/add_transaction", "application/x-www-form-urlencoded", "title=Coffee&amount=3.50", "title", "Coffee", false},
		{"json string", "/add_transaction", "application/json", `{"title":"Rent"}`, "title", "Rent", true},
		{"json number keeps precision", "/add_transaction", "application/json", `{"amount":12.345}`, "amount", "12.345", true},
		{"json integer", "/deleteGoal", "application/json", `{"goal_id":42}`, "goal_id", "42", true},
		{"json bool", "/add_transaction", "application/json", `{"isExpense":true}`, "isExpense", "true", true},
		{"json sniffed without header", "/add_transaction", "text/plain", `{"title":"Sniffed"}`, "title", "Sniffed", true},
		{"query fallback", "/add_transaction?title=Legacy", "", "", "title", "Legacy", false},
		{"body wins over query", "/add_transaction?title=Query", "application/x-www-form-urlencoded", "title=Body", "title", "Body", false},
		{"sanitized", "/add_transaction", "application/x-www-form-urlencoded", "title=+Lunch%00+", "title", "Lunch", false},
		{"missing key", "/add_transaction", "application/json", `{"title":"x"}`, "category", "", true},
		{"json null", "/add_transaction", "application/json", `{"category":null}`, "category", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser(t, http.MethodPost, tt.target, tt.contentType, tt.body)
			if err := p.Parse(); err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got := p.Get(tt.key); got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
			if isJSON := p.jsonData != nil; isJSON != tt.wantJSON {
				t.Errorf("decoded as JSON = %v, want %v", isJSON, tt.wantJSON)
			}
		})
	}
}

func TestRequestBodyParser_Lookup(t *testing.T) {
	p := newParser(t, http.MethodPost, "/add_goals", "application/x-www-form-urlencoded", "saving=")
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v, ok := p.Lookup("saving"); !ok || v != "" {
		t.Errorf("Lookup(saving) = %q, %v; want empty and present", v, ok)
	}
	if _, ok := p.Lookup("title"); ok {
		t.Error("Lookup(title) reported a missing key as present")
	}
}

func TestRequestBodyParser_Errors(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		p := newParser(t, http.MethodPost, "/", "application/json", `{"title":`)
		if err := p.Parse(); err == nil {
			t.Fatal("expected decode error")
		}
		if p.jsonData != nil {
			t.Error("jsonData should be nil after a failed decode")
		}
	})

	t.Run("body too large", func(t *testing.T) {
		body := "title=" + strings.Repeat("a", maxBodyBytes)
		p := newParser(t, http.MethodPost, "/", "application/x-www-form-urlencoded", body)
		if err := p.Parse(); err != errBodyTooLarge {
			t.Fatalf("Parse error = %v, want errBodyTooLarge", err)
		}
	})

	t.Run("parse is memoized", func(t *testing.T) {
		p := newParser(t, http.MethodPost, "/", "application/x-www-form-urlencoded", "a=1")
		if err := p.Parse(); err != nil {
			t.Fatalf("first Parse: %v", err)
		}
		if err := p.Parse(); err != nil {
			t.Fatalf("second Parse: %v", err)
		}
		if p.Get("a") != "1" {
			t.Errorf("Get(a) = %q after re-parse", p.Get("a"))
		}
	})
}

func TestParseIsExpense(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"1", true, false},
		{"0", false, false},
		{"2", true, false},
		{"true", true, false},
		{"false", false, false},
		{" 1 ", true, false},
		{"", false, true},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		got, err := parseIsExpense(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseIsExpense(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !core.IsValidation(err) {
			t.Errorf("parseIsExpense(%q) returned non-validation error %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("parseIsExpense(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDateOrZero(t *testing.T) {
	if d := parseDateOrZero("2025-01-31"); d.ISO() != "2025-01-31" {
		t.Errorf("ISO date = %s", d.ISO())
	}
	if d := parseDateOrZero("2025-01-31T23:30:00Z"); d.ISO() != "2025-01-31" {
		t.Errorf("RFC 3339 date = %s", d.ISO())
	}
	for _, in := range []string{"", "  ", "31/01/2025", "not a date"} {
		if d := parseDateOrZero(in); !d.IsZero() {
			t.Errorf("parseDateOrZero(%q) = %s, want zero", in, d.ISO())
		}
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID(" 7 "); err != nil || id != 7 {
		t.Errorf("parseID(\" 7 \") = %d, %v", id, err)
	}
	for _, in := range []string{"", "0", "-3", "abc", "1.5"} {
		if _, err := parseID(in); err == nil {
			t.Errorf("parseID(%q) should fail", in)
		}
	}
}

func TestParseOptionalAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"10.50", 1050, false},
		{"-5", -500, false},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseOptionalAmount(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseOptionalAmount(%q) error = %v", tt.in, err)
			continue
		}
		if got.Cents != tt.want {
			t.Errorf("parseOptionalAmount(%q) = %d, want %d", tt.in, got.Cents, tt.want)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := map[string]string{
		"  hello  ":     "hello",
		"a\x00b\x07c":   "abc",
		"line1\nline2":  "line1\nline2",
		"tab\tsep":      "tab\tsep",
		"\x1b[31mred  ": "[31mred",
	}
	for in, want := range tests {
		if got := sanitizeInput(in); got != want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}
}
