package exitcode

import "testing"

func TestExitCodeConstants(t *testing.T) {
	if Success != 0 {
		t.Errorf("Success = %v, expected 0", Success)
	}
	if GeneralError != 1 {
		t.Errorf("GeneralError = %v, expected 1", GeneralError)
	}
	if ConfigError != 2 {
		t.Errorf("ConfigError = %v, expected 2", ConfigError)
	}
	if DiscoveryError != 3 {
		t.Errorf("DiscoveryError = %v, expected 3", DiscoveryError)
	}
	if FileSystemError != 4 {
		t.Errorf("FileSystemError = %v, expected 4", FileSystemError)
	}
	if ConflictsRemain != 5 {
		t.Errorf("ConflictsRemain = %v, expected 5", ConflictsRemain)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{Success, "Success"},
		{GeneralError, "General error"},
		{ConfigError, "Configuration error"},
		{DiscoveryError, "Discovery error"},
		{FileSystemError, "File system error"},
		{ConflictsRemain, "Unresolved merge conflicts"},
		{42, "Unknown error"},
	}

	for _, test := range tests {
		if result := String(test.code); result != test.expected {
			t.Errorf("String(%d) = %q, expected %q", test.code, result, test.expected)
		}
	}
}
