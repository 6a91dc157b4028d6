package phone

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		valid bool
	}{
		{name: "bare ten digits", in: "9876543210", want: "9876543210", valid: true},
		{name: "indian plus prefix", in: "+91 98765 43210", want: "9876543210", valid: true},
		{name: "indian bare country code", in: "919876543210", want: "9876543210", valid: true},
		{name: "leading zero", in: "09876543210", want: "9876543210", valid: true},
		{name: "nanp with plus", in: "+1 415-555-0123", want: "+14155550123", valid: true},
		{name: "nanp without plus", in: "14155550123", want: "14155550123", valid: true},
		{name: "spaces and dashes", in: " 98765-43210 ", want: "9876543210", valid: true},
		{name: "too short", in: "12345", valid: false},
		{name: "empty", in: "", valid: false},
		{name: "plus91 wrong length", in: "+91 1234", valid: false},
		{name: "thirteen digits", in: "9198765432101", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if tt.valid {
				if err != nil {
					t.Fatalf("Normalize(%q) unexpected error: %v", tt.in, err)
				}
				if got != tt.want {
					t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
				}
				return
			}
			if err == nil {
				t.Fatalf("Normalize(%q) = %q, want error", tt.in, got)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	accepted := []string{"9876543210", "+91 98765 43210", "09876543210", "+1 415-555-0123", "14155550123"}
	for _, in := range accepted {
		once, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(Normalize(%q)) = Normalize(%q): %v", in, once, err)
		}
		if once != twice {
			t.Fatalf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}
