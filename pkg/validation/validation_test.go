package validation

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"User.Name+tag@sub.example.co",
		"  padded@example.com  ",
	}
	for _, email := range valid {
		if !ValidateEmail(email) {
			t.Errorf("expected %q to be valid", email)
		}
	}

	invalid := []string{
		"",
		"no-at-sign",
		"@example.com",
		"user@",
		"user@host",
		"user @example.com",
	}
	for _, email := range invalid {
		if ValidateEmail(email) {
			t.Errorf("expected %q to be invalid", email)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		password string
		want     bool
	}{
		{"Abcdef1!", true},
		{"abcdef1!", false}, // no upper
		{"ABCDEF1!", false}, // no lower
		{"Abcdefg!", false}, // no digit
		{"Abcdefg1", false}, // no special
		{"Ab1!", false},     // too short
	}
	for _, tc := range cases {
		if got := ValidatePassword(tc.password); got != tc.want {
			t.Errorf("ValidatePassword(%q) = %v, want %v", tc.password, got, tc.want)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	if !ValidateUsername("marie_92") {
		t.Error("expected marie_92 to be valid")
	}
	if ValidateUsername("ab") {
		t.Error("expected too-short username to be invalid")
	}
	if ValidateUsername("has space") {
		t.Error("expected username with space to be invalid")
	}
	if ValidateUsername("name@domain") {
		t.Error("expected username with @ to be invalid")
	}
}

func TestValidateQuantity(t *testing.T) {
	if ValidateQuantity(0) || ValidateQuantity(-1) || ValidateQuantity(21) {
		t.Error("out-of-range quantities accepted")
	}
	if !ValidateQuantity(1) || !ValidateQuantity(20) {
		t.Error("boundary quantities rejected")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello\x00world  "); got != "helloworld" {
		t.Errorf("SanitizeString = %q", got)
	}
}
