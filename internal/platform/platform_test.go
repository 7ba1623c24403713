package platform

import (
	"errors"
	"regexp"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		goos, arch string
		want       string
		wantErr    error
	}{
		{"linux", "x64", "linux-x64", nil},
		{"linux", "arm64", "linux-arm64", nil},
		{"linux", " X64 ", "linux-x64", nil},
		{"windows", "x64", "win-x64", nil},
		{"windows", "x86", "win-x86", nil},
		{"windows", "arm64", "", ErrUnsupportedArch},
		{"linux", "x86", "", ErrUnsupportedArch},
		{"linux", "", "", ErrMissingArch},
		{"darwin", "x64", "", ErrUnsupportedOS},
		{"freebsd", "", "", ErrUnsupportedOS},
	}
	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.arch, func(t *testing.T) {
			p, err := Resolve(tt.goos, tt.arch)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve error = %v, want %v", err, tt.wantErr)
				}
				if p != (Platform{}) {
					t.Errorf("Resolve returned partial result %+v", p)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got := p.RID(); got != tt.want {
				t.Errorf("RID = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKnownRIDsMatchPattern(t *testing.T) {
	pattern := regexp.MustCompile(`^(linux|win)-[a-z0-9]+$`)
	rids := KnownRIDs()
	if got := strings.Join(rids, " "); got != "linux-arm64 linux-x64 win-x64 win-x86" {
		t.Errorf("KnownRIDs = %q", got)
	}
	for _, rid := range rids {
		if !pattern.MatchString(rid) {
			t.Errorf("rid %q does not match %s", rid, pattern)
		}
		p, err := ParseRID(rid)
		if err != nil {
			t.Errorf("ParseRID(%q): %v", rid, err)
			continue
		}
		if p.RID() != rid {
			t.Errorf("ParseRID(%q).RID() = %q", rid, p.RID())
		}
	}
}

func TestParseRIDInvalid(t *testing.T) {
	for _, rid := range []string{"", "linux", "osx-x64", "win-arm64", "linux-"} {
		if _, err := ParseRID(rid); err == nil {
			t.Errorf("ParseRID(%q) succeeded, want error", rid)
		}
	}
}
