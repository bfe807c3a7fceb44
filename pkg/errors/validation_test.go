package errors

import (
	"testing"
)

func TestValidateSessionID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"uuid", "1f0a4c7e-3b5d-4c1a-9e0f-7d2b8a6c5e41", false},
		{"workflow id", "run0007", false},
		{"dotted", "silva.epigenomics:2", false},
		{"run dir", "20160831T122313+0000", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 200)), true},
		{"leading dash", "-abc", true},
		{"operator", "$where", true},
		{"space", "a b", true},
		{"slash", "a/b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSessionID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidSessionID) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidSessionID)
			}
		})
	}
}

func TestValidateTaskType(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"bwa", false},
		{"pegasus::fastqSplit:4.0", false},
		{"", true},
		{"a\nb", true},
	}
	for _, tt := range tests {
		if err := ValidateTaskType(tt.input); (err != nil) != tt.wantErr {
			t.Errorf("ValidateTaskType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "out/load.svg", false},
		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "a/../../b", true},
		{"backslash", "a\\b", true},
		{"null byte", "a\x00b", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePath(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestSafeFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"bwa", "bwa"},
		{"pegasus::fastqSplit:4.0", "pegasus__fastqSplit_4.0"},
		{"../x", "_x"},
		{"", "_"},
	}
	for _, tt := range tests {
		if got := SafeFileName(tt.in); got != tt.want {
			t.Errorf("SafeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
