package config

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestParseWhitelistEntry(t *testing.T) {
	tests := []struct {
		name      string
		entry     string
		wantChain uint64
		wantErr   bool
	}{
		{"valid", "8453:0x4200000000000000000000000000000000000006", 8453, false},
		{"missing_chain", "0x4200000000000000000000000000000000000006", 0, true},
		{"bad_chain", "base:0x4200000000000000000000000000000000000006", 0, true},
		{"zero_chain", "0:0x4200000000000000000000000000000000000006", 0, true},
		{"bad_address", "8453:not-an-address", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chainID, _, err := parseWhitelistEntry(tt.entry)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseWhitelistEntry(%q) expected error", tt.entry)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseWhitelistEntry(%q) error = %v", tt.entry, err)
			}
			if chainID != tt.wantChain {
				t.Errorf("chainID = %d, want %d", chainID, tt.wantChain)
			}
		})
	}
}

func TestSafetyConfig_WhitelistByChain(t *testing.T) {
	cfg := SafetyConfig{Whitelist: []string{
		"8453:0x4200000000000000000000000000000000000006",
		"8453:0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		"1:0x4200000000000000000000000000000000000006",
	}}

	byChain := cfg.WhitelistByChain()

	if len(byChain[8453]) != 2 {
		t.Errorf("chain 8453 has %d entries, want 2", len(byChain[8453]))
	}
	if len(byChain[1]) != 1 {
		t.Errorf("chain 1 has %d entries, want 1", len(byChain[1]))
	}
	want := common.HexToAddress("0x4200000000000000000000000000000000000006")
	if byChain[1][0] != want {
		t.Errorf("chain 1 entry = %s, want %s", byChain[1][0].Hex(), want.Hex())
	}
}
