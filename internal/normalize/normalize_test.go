package normalize

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"lowercase", "CASA", "casa"},
		{"acute accent", "café", "cafe"},
		{"cedilla", "Maçã", "maca"},
		{"tilde", "pão", "pao"},
		{"circumflex", "você", "voce"},
		{"grave", "à", "a"},
		{"mixed sentence", "Pretérito Perfeito", "preterito perfeito"},
		{"already plain", "falar", "falar"},
		{"keeps punctuation", "ser vs. estar?", "ser vs. estar?"},
		{"decomposed input", "café", "cafe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"", "CASA", "Açúcar", "Pretérito imperfeito", "ÀÉÎÕÜ", "nós", "vocês", "ß", "İstanbul",
		"  spaced  out ", "ser vs estar", "😀 emoji",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalize_FoldsAccentsAndCase(t *testing.T) {
	if Normalize("á") != Normalize("a") {
		t.Error("expected á and a to normalize equally")
	}
	if Normalize("CASA") != Normalize("casa") {
		t.Error("expected CASA and casa to normalize equally")
	}
	if !Equal("Você", "voce") {
		t.Error("expected Equal(Você, voce) to be true")
	}
}

func TestFields(t *testing.T) {
	if got := Fields("  Como   se DIZ  "); got != "como se diz" {
		t.Errorf("Fields() = %q, want %q", got, "como se diz")
	}
}
