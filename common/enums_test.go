package common

import (
	"errors"
	"testing"
)

func TestParseOutputStyle(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputStyle
		wantErr bool
	}{
		{in: "pretty", want: OutputStylePretty},
		{in: "compact", want: OutputStyleCompact},
		{in: "minified", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutputStyle(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidOutputStyle) {
					t.Errorf("ParseOutputStyle(%q) error = %v, want ErrInvalidOutputStyle", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOutputStyle(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseOutputStyle(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestOutputStyle_TextRoundTrip(t *testing.T) {
	var s OutputStyle
	if err := s.UnmarshalText([]byte("compact")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	data, err := s.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	if string(data) != "compact" {
		t.Errorf("MarshalText() = %q, want %q", data, "compact")
	}
}

func TestSourceKind_Remote(t *testing.T) {
	for _, k := range []SourceKind{SourceKindFile, SourceKindDirectory, SourceKindArchive} {
		if k.Remote() {
			t.Errorf("%v.Remote() = true, want false", k)
		}
	}
	if !SourceKindUrl.Remote() {
		t.Error("SourceKindUrl.Remote() = false, want true")
	}
	if SourceKind(42).IsValid() {
		t.Error("SourceKind(42).IsValid() = true, want false")
	}
}
