package diag

import "testing"

func TestCollectorSplitsErrorsAndWarnings(t *testing.T) {
	c := NewCollector(5)
	c.Add(Diagnostic{Level: LevelError, Message: "boom"})
	c.Add(Diagnostic{Level: LevelWarning, Message: "careful"})

	if c.ErrorCount() != 1 {
		t.Fatalf("ErrorCount() = %d, want 1", c.ErrorCount())
	}
	if c.WarningCount() != 1 {
		t.Fatalf("WarningCount() = %d, want 1", c.WarningCount())
	}
	if !c.HasErrors() {
		t.Fatal("HasErrors() = false, want true")
	}
}

func TestCollectorShouldStop(t *testing.T) {
	c := NewCollector(1)
	c.Add(Diagnostic{Level: LevelError, Message: "first"})
	if !c.ShouldStop() {
		t.Fatal("ShouldStop() = false after reaching maxErrors, want true")
	}
}

func TestCollectorSourceLineAutoPopulated(t *testing.T) {
	c := NewCollector(5)
	c.SetSourceCode("line one\nline two\nline three")
	c.Add(Diagnostic{Level: LevelError, Message: "bad", Location: Location{Line: 2}})

	report := c.Report(false)
	if !contains(report, "line two") {
		t.Fatalf("report missing source line, got:\n%s", report)
	}
}

func TestHasFatal(t *testing.T) {
	c := NewCollector(5)
	c.Add(Diagnostic{Level: LevelError, Message: "x"})
	if c.HasFatal() {
		t.Fatal("HasFatal() = true for a non-fatal error")
	}
	c.Add(Diagnostic{Level: LevelFatal, Message: "y"})
	if !c.HasFatal() {
		t.Fatal("HasFatal() = false, want true")
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
