package validation

import "testing"

func TestIsValidReferralCode(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		valid bool
	}{
		{
			name:  "valid alphanumeric",
			code:  "FRIEND01",
			valid: true,
		},
		{
			name:  "minimum length",
			code:  "AB12CD",
			valid: true,
		},
		{
			name:  "too short",
			code:  "ABC12",
			valid: false,
		},
		{
			name:  "too long",
			code:  "ABCDEFGH12345",
			valid: false,
		},
		{
			name:  "lowercase rejected",
			code:  "friend01",
			valid: false,
		},
		{
			name:  "punctuation rejected",
			code:  "FRIEND-1",
			valid: false,
		},
		{
			name:  "empty string",
			code:  "",
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidReferralCode(tt.code)
			if got != tt.valid {
				t.Fatalf("IsValidReferralCode(%q) = %v, want %v", tt.code, got, tt.valid)
			}
		})
	}
}

func TestIsValidQuantity(t *testing.T) {
	if IsValidQuantity(0) || IsValidQuantity(-1) || IsValidQuantity(1001) {
		t.Fatalf("out-of-range quantities must be rejected")
	}
	if !IsValidQuantity(1) || !IsValidQuantity(1000) {
		t.Fatalf("boundary quantities must be accepted")
	}
}

func TestIsValidUnitPrice(t *testing.T) {
	if IsValidUnitPrice(-1) {
		t.Fatalf("negative price must be rejected")
	}
	if !IsValidUnitPrice(0) || !IsValidUnitPrice(100) {
		t.Fatalf("non-negative prices must be accepted")
	}
}
