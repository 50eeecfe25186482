package normalize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "   \t ", ""},
		{"lowercase", "aluguel janeiro", "ALUGUEL JANEIRO"},
		{"mixed case with padding", "  Fornecedor X  ", "FORNECEDOR X"},
		{"already normalized", "TARIFA BANCARIA", "TARIFA BANCARIA"},
		{"internal whitespace preserved", "A  B", "A  B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"regular value", "pagamento ref 99", "PAGAMENTO REF 99"},
		{"nan sentinel", "nan", ""},
		{"NaN sentinel", "NaN", ""},
		{"n/a sentinel", " n/a ", ""},
		{"none sentinel", "None", ""},
		{"empty", "", ""},
		{"value containing nan", "BANANA", "BANANA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Field(tt.input); got != tt.want {
				t.Errorf("Field(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsAbsent(t *testing.T) {
	if !IsAbsent("") || !IsAbsent("  ") || !IsAbsent("nan") {
		t.Error("expected blank and sentinel values to be absent")
	}

	if IsAbsent("ALUGUEL") {
		t.Error("expected real value to be present")
	}
}
