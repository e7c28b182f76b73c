package errors

import (
	"testing"
)

func TestValidateEntityID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"composite", "web-1/task-42", false},
		{"merge id", "pair:web-1/tx+web-1/rx", false},
		{"plain local", "task-42", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"null byte", "a\x00b", true},
		{"control char", "a\x01b", true},
		{"newline", "a\nb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntityID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEntityID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidEntityID) {
				t.Errorf("ValidateEntityID(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateFrameIndex(t *testing.T) {
	tests := []struct {
		name    string
		index   int
		count   int
		wantErr bool
	}{
		{"first", 0, 10, false},
		{"last", 9, 10, false},
		{"unknown count", 100, 0, false},

		{"negative", -1, 10, true},
		{"past end", 10, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFrameIndex(tt.index, tt.count)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFrameIndex(%d, %d) error = %v, wantErr %v", tt.index, tt.count, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDownsampleInterval(t *testing.T) {
	if err := ValidateDownsampleInterval(1); err != nil {
		t.Errorf("ValidateDownsampleInterval(1) = %v, want nil", err)
	}
	if err := ValidateDownsampleInterval(10); err != nil {
		t.Errorf("ValidateDownsampleInterval(10) = %v, want nil", err)
	}
	if err := ValidateDownsampleInterval(0); !Is(err, ErrCodeInvalidInterval) {
		t.Errorf("ValidateDownsampleInterval(0) = %v, want INVALID_INTERVAL", err)
	}
	if err := ValidateDownsampleInterval(-3); err == nil {
		t.Error("ValidateDownsampleInterval(-3) = nil, want error")
	}
}

func TestValidateRecordingName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "deadlock-repro", false},
		{"with underscore", "run_2024", false},
		{"with dots inside", "run.v2", false},

		{"empty", "", true},
		{"with path /", "a/b", true},
		{"with path \\", "a\\b", true},
		{"hidden", ".hidden", true},
		{"control char", "a\x01b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecordingName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRecordingName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://example.com/path", false},
		{"http", "http://example.com/path", false},

		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"file", "file:///etc/passwd", true},
		{"javascript", "javascript:alert(1)", true},
		{"no scheme", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidFrame,
		ErrCodeInvalidInterval,
		ErrCodeInvalidFilter,
		ErrCodeInvalidEntityID,
		ErrCodeNotFound,
		ErrCodeFrameNotFound,
		ErrCodeRecordingNotFound,
		ErrCodeEntityNotFound,
		ErrCodeNetwork,
		ErrCodeTimeout,
		ErrCodeRateLimited,
		ErrCodeFetchFailed,
		ErrCodeGeometryFailed,
		ErrCodeBuildSuperseded,
		ErrCodeNoLayout,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
