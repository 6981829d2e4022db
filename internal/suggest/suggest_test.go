package suggest

import "testing"

func TestCandidatesFindsCloseMatch(t *testing.T) {
	got := Candidates("balnce", []string{"balance", "amount", "owner"}, 3)
	if len(got) != 1 || got[0] != "balance" {
		t.Fatalf("Candidates() = %v, want [balance]", got)
	}
}

func TestCandidatesExcludesExactMatch(t *testing.T) {
	got := Candidates("balance", []string{"balance"}, 3)
	if len(got) != 0 {
		t.Fatalf("Candidates() = %v, want none for an exact match", got)
	}
}

func TestCandidatesRespectsLimit(t *testing.T) {
	got := Candidates("abc", []string{"abd", "abe", "abf", "abg"}, 2)
	if len(got) != 2 {
		t.Fatalf("len(Candidates()) = %d, want 2", len(got))
	}
}
