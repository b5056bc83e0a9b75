package goAccess

import (
	"strings"
	"testing"
)

func TestGenerateRecoveryCodes(t *testing.T) {
	codes, records, err := generateRecoveryCodes(8, 10)
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	if len(codes) != 8 || len(records) != 8 {
		t.Fatalf("expected 8 codes and records, got %d/%d", len(codes), len(records))
	}

	seen := make(map[string]struct{})
	for i, code := range codes {
		if len(code) != 10 {
			t.Fatalf("code %q has wrong length", code)
		}
		for _, r := range code {
			if !strings.ContainsRune(recoveryCodeAlphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code generated: %q", code)
		}
		seen[code] = struct{}{}

		if records[i].Hash != hashRecoveryCode(code) {
			t.Fatalf("record %d does not hash its code", i)
		}
	}
}

func TestRecoveryAlphabetExcludesAmbiguous(t *testing.T) {
	for _, r := range "IO01" {
		if strings.ContainsRune(recoveryCodeAlphabet, r) {
			t.Fatalf("alphabet must exclude %q", r)
		}
	}
}

func TestMatchRecoveryCode(t *testing.T) {
	codes, records, err := generateRecoveryCodes(4, 10)
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}

	hash, found := matchRecoveryCode(records, codes[2])
	if !found {
		t.Fatalf("expected match for a live code")
	}
	if hash != records[2].Hash {
		t.Fatalf("matched the wrong record")
	}

	if _, found := matchRecoveryCode(records, "NOTACODE42"); found {
		t.Fatalf("unexpected match for an unknown code")
	}
	if _, found := matchRecoveryCode(records, strings.ToLower(codes[2])); found {
		t.Fatalf("matching must be case-sensitive")
	}
	if _, found := matchRecoveryCode(nil, codes[0]); found {
		t.Fatalf("empty record set must never match")
	}
}
