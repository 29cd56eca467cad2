package llm

import "testing"

func TestProviderError(t *testing.T) {
	err := &ProviderError{Message: "boom", Provider: "anthropic"}
	if err.Error() != "anthropic: boom" {
		t.Errorf("Error() = %q", err.Error())
	}

	bare := &ProviderError{Message: "boom"}
	if bare.Error() != "boom" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestProviderNames(t *testing.T) {
	if name := NewAnthropic("", "").Name(); name != "anthropic" {
		t.Errorf("NewAnthropic Name() = %q, want anthropic", name)
	}
	if name := NewCompat("gateway", "https://gw.example/v1", "", "").Name(); name != "gateway" {
		t.Errorf("NewCompat Name() = %q, want gateway", name)
	}
}
