package match

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"punctuation", "Fee Payment!!", "fee payment"},
		{"whitespace runs", "  When   is\tthe \n deadline?  ", "when is the deadline"},
		{"only punctuation", "?!...", ""},
		{"underscore kept", "snake_case Name", "snake_case name"},
		{"digits kept", "Room 101, Block-B", "room 101 block b"},
		{"apostrophe", "What's the fee?", "what s the fee"},
		{"unicode letters", "Ünïcode Café", "ünïcode café"},
		{"greek final sigma", "ΟΔΟΣ", "οδος"},
		{"cjk", "学费 截止日期？", "学费 截止日期"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Fee Payment!!",
		"  Mixed CASE\t\tand   spaces ",
		"ΑΣ.Β καλημέρα",
		"İstanbul — Straße (ß)",
		"a_b-c.d,e;f:g",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
