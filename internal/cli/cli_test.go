package cli

import (
	"os"
	"testing"

	"espionage-duopoly-lab/internal/domain"
)

func TestParseOverrides(t *testing.T) {
	got, err := ParseOverrides("alpha=90, lambda_defense=2.5")
	if err != nil {
		t.Fatalf("ParseOverrides failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d overrides, want 2", len(got))
	}
	if got["alpha"] != 90 || got["lambda_defense"] != 2.5 {
		t.Errorf("unexpected values: %v", got)
	}
}

func TestParseOverrides_Empty(t *testing.T) {
	for _, spec := range []string{"", "   ", ","} {
		got, err := ParseOverrides(spec)
		if err != nil {
			t.Errorf("spec %q: %v", spec, err)
		}
		if len(got) != 0 {
			t.Errorf("spec %q: got %v, want none", spec, got)
		}
	}
}

func TestParseOverrides_Rejects(t *testing.T) {
	for _, spec := range []string{"alpha", "alpha=ninety", "=1"} {
		if _, err := ParseOverrides(spec); err == nil {
			t.Errorf("spec %q: expected an error", spec)
		}
	}
}

func TestResolveParameters_BaselineDefault(t *testing.T) {
	p, err := ResolveParameters("", "")
	if err != nil {
		t.Fatalf("ResolveParameters failed: %v", err)
	}
	if p != domain.Baseline() {
		t.Error("empty scenario must resolve to the baseline")
	}
}

func TestResolveParameters_ScenarioWithOverrides(t *testing.T) {
	p, err := ResolveParameters(domain.ScenarioHardenedLeader, "alpha=90")
	if err != nil {
		t.Fatalf("ResolveParameters failed: %v", err)
	}
	if p.Alpha != 90 {
		t.Errorf("alpha: got %g, want 90", p.Alpha)
	}
	if p.LambdaDefense != 3.0 {
		t.Errorf("scenario field lost: lambda got %g, want 3", p.LambdaDefense)
	}
}

func TestResolveParameters_Rejects(t *testing.T) {
	if _, err := ResolveParameters("fortress", ""); err == nil {
		t.Error("expected an unknown-scenario error")
	}
	if _, err := ResolveParameters("", "beta=-1"); err == nil {
		t.Error("expected a validation error")
	}
	if _, err := ResolveParameters("", "omega=1"); err == nil {
		t.Error("expected an unknown-parameter error")
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("ESPIONAGE_TEST_KEY", "from-env")
	if got := EnvOr("ESPIONAGE_TEST_KEY", "fallback"); got != "from-env" {
		t.Errorf("got %q", got)
	}
	if got := EnvOr("ESPIONAGE_TEST_KEY_UNSET", "fallback"); got != "fallback" {
		t.Errorf("got %q", got)
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Chdir(t.TempDir())

	content := "# comment\nESPIONAGE_FILE_KEY=from-file\nESPIONAGE_KEPT_KEY=from-file\nmalformed line\n"
	if err := os.WriteFile(".env", []byte(content), 0o644); err != nil {
		t.Fatalf("writing .env: %v", err)
	}

	t.Setenv("ESPIONAGE_FILE_KEY", "")
	t.Setenv("ESPIONAGE_KEPT_KEY", "from-env")

	LoadEnvFile()

	if got := os.Getenv("ESPIONAGE_FILE_KEY"); got != "from-file" {
		t.Errorf("file value not loaded: got %q", got)
	}
	if got := os.Getenv("ESPIONAGE_KEPT_KEY"); got != "from-env" {
		t.Errorf("existing value overridden: got %q", got)
	}
}

func TestSetupLogger_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "WARN", "error"} {
		if err := SetupLogger(level); err != nil {
			t.Errorf("level %q: %v", level, err)
		}
	}
	if err := SetupLogger("loud"); err == nil {
		t.Error("expected an unknown-level error")
	}
}
