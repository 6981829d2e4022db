package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("SOLISP_OPT_LEVEL")
	os.Unsetenv("SOLISP_VC_MODE")
	os.Unsetenv("SOLISP_STRICT_MEMORY")
	os.Unsetenv("SOLISP_MAX_ACCOUNTS")

	c := Load()
	if c.OptLevel != 1 {
		t.Errorf("OptLevel = %d, want 1", c.OptLevel)
	}
	if c.VCMode != "warn" {
		t.Errorf("VCMode = %q, want warn", c.VCMode)
	}
	if c.StrictMemory {
		t.Error("StrictMemory = true, want false by default")
	}
	if c.MaxAccounts != 0 {
		t.Errorf("MaxAccounts = %d, want 0", c.MaxAccounts)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SOLISP_OPT_LEVEL", "3")
	t.Setenv("SOLISP_VC_MODE", "strict")
	t.Setenv("SOLISP_STRICT_MEMORY", "true")
	t.Setenv("SOLISP_MAX_ACCOUNTS", "16")

	c := Load()
	if c.OptLevel != 3 {
		t.Errorf("OptLevel = %d, want 3", c.OptLevel)
	}
	if c.VCMode != "strict" {
		t.Errorf("VCMode = %q, want strict", c.VCMode)
	}
	if !c.StrictMemory {
		t.Error("StrictMemory = false, want true")
	}
	if c.MaxAccounts != 16 {
		t.Errorf("MaxAccounts = %d, want 16", c.MaxAccounts)
	}
}
