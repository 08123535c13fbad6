package vercheck

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/zorak1103/pokybox/internal/runlog"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{"git style", "git version 2.34.1", "2.34.1"},
		{"tar style", "tar (GNU tar) 1.34", "1.34"},
		{"python style", "Python 3.10.12", "3.10.12"},
		{"gcc multiline", "gcc (Ubuntu 11.4.0-1ubuntu1~22.04) 11.4.0\nCopyright (C) 2021", "11.4.0"},
		{"two segments", "make 4.3", "4.3"},
		{"no digits", "command not found", "0.0"},
		{"empty", "", "0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseVersion(tt.output); got != tt.want {
				t.Errorf("ParseVersion(%q) = %q, want %q", tt.output, got, tt.want)
			}
		})
	}
}

func TestVersionGE(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"1.8.3", "1.8", true},
		{"1.8", "1.8.3", false},
		{"0.9", "1.0", false},
		{"1.0", "0.9", true},
		{"2.34.1", "1.8.3", true},
		{"1.8", "1.8", true},
		{"1.8.0", "1.8", true},
		{"3.10.12", "3.8", true},
		{"4.3", "4.0", true},
		{"11.4.0", "8.0", true},
		{"7.5.0", "8.0", false},
		{"0.0", "1.28", false},
		{"garbage", "1.0", false},
		{"1.0", "garbage", true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s>=%s", tt.a, tt.b), func(t *testing.T) {
			if got := VersionGE(tt.a, tt.b); got != tt.want {
				t.Errorf("VersionGE(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

// probeEnv satisfies the subset of execenv.Environment Check uses, answering
// version probes from a fixed table.
type probeEnv struct {
	versions map[string]string // tool -> probe output; missing means exec failure
}

func (p *probeEnv) Label() string { return "fake" }

func (p *probeEnv) Run(_ context.Context, argv []string) (string, error) {
	out, ok := p.versions[argv[0]]
	if !ok {
		return "", fmt.Errorf("exec: %q: executable file not found", argv[0])
	}
	return out, nil
}

func (p *probeEnv) RunStream(_ context.Context, _ []string, _ func(string)) (int, error) {
	return 0, nil
}
func (p *probeEnv) FileExists(_ context.Context, _ string) bool            { return false }
func (p *probeEnv) ReadFile(_ context.Context, _ string) (string, error)  { return "", nil }
func (p *probeEnv) AppendFile(_ context.Context, _ string, _ string) error { return nil }
func (p *probeEnv) MkdirAll(_ context.Context, _ string) error             { return nil }

func testLogger(t *testing.T) *runlog.Logger {
	t.Helper()
	logger, err := runlog.NewWithConsole(t.TempDir(), time.Now(), &strings.Builder{})
	if err != nil {
		t.Fatalf("creating test logger: %v", err)
	}
	t.Cleanup(func() { _ = logger.Close() })
	return logger
}

func TestCheck_AllPass(t *testing.T) {
	env := &probeEnv{versions: map[string]string{
		"git":     "git version 2.34.1",
		"tar":     "tar (GNU tar) 1.34",
		"python3": "Python 3.10.12",
		"gcc":     "gcc (Ubuntu) 11.4.0",
		"make":    "GNU Make 4.3",
	}}

	report := Check(context.Background(), env, testLogger(t), DefaultRequirements)
	if !report.AllOK() {
		t.Errorf("AllOK() = false, failures: %+v", report.Failures())
	}
	if err := report.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestCheck_AggregatesAllFailures(t *testing.T) {
	env := &probeEnv{versions: map[string]string{
		"git":     "git version 1.7.0", // below minimum
		"tar":     "tar (GNU tar) 1.34",
		"python3": "Python 3.10.12",
		// gcc missing entirely
		"make": "GNU Make 3.81", // below minimum
	}}

	report := Check(context.Background(), env, testLogger(t), DefaultRequirements)
	if report.AllOK() {
		t.Fatal("AllOK() = true, want false")
	}

	failures := report.Failures()
	if len(failures) != 3 {
		t.Fatalf("Failures() count = %d, want 3 (git, gcc, make): %+v", len(failures), failures)
	}

	err := report.Err()
	if err == nil {
		t.Fatal("Err() = nil, want aggregate error")
	}
	for _, tool := range []string{"git", "gcc", "make"} {
		if !strings.Contains(err.Error(), tool) {
			t.Errorf("aggregate error missing tool %s: %v", tool, err)
		}
	}
	if strings.Contains(err.Error(), "tar") {
		t.Errorf("aggregate error names passing tool tar: %v", err)
	}
}

func TestCheck_MissingToolReportsRequiredVersion(t *testing.T) {
	env := &probeEnv{versions: map[string]string{}}

	report := Check(context.Background(), env, testLogger(t), []Requirement{{Tool: "git", MinVersion: "1.8.3"}})
	if report.AllOK() {
		t.Fatal("AllOK() = true for missing tool")
	}
	err := report.Err()
	if err == nil || !strings.Contains(err.Error(), "1.8.3") {
		t.Errorf("Err() = %v, want message naming required version", err)
	}
}
