package chiawallet

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	// MainnetAddressPrefix is the bech32m prefix for mainnet addresses
	MainnetAddressPrefix = "xch"

	// TestnetAddressPrefix is the bech32m prefix for testnet addresses
	TestnetAddressPrefix = "txch"

	// PuzzleHashLength is the byte length of a puzzle hash
	PuzzleHashLength = 32
)

// EncodeAddress encodes a 32-byte puzzle hash into a bech32m address with
// the given prefix
func EncodeAddress(prefix string, puzzleHash []byte) (string, error) {
	if len(puzzleHash) != PuzzleHashLength {
		return "", fmt.Errorf("puzzle hash must be %d bytes, got %d", PuzzleHashLength, len(puzzleHash))
	}

	converted, err := bech32.ConvertBits(puzzleHash, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert puzzle hash bits: %w", err)
	}

	address, err := bech32.EncodeM(prefix, converted)
	if err != nil {
		return "", fmt.Errorf("failed to encode address: %w", err)
	}

	return address, nil
}

// DecodeAddress decodes a bech32m address into its prefix and 32-byte
// puzzle hash
func DecodeAddress(address string) (string, []byte, error) {
	prefix, data, version, err := bech32.DecodeGeneric(address)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode address: %w", err)
	}

	if version != bech32.VersionM {
		return "", nil, fmt.Errorf("address %s is not bech32m encoded", address)
	}

	puzzleHash, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, fmt.Errorf("failed to convert address bits: %w", err)
	}

	if len(puzzleHash) != PuzzleHashLength {
		return "", nil, fmt.Errorf("decoded puzzle hash must be %d bytes, got %d", PuzzleHashLength, len(puzzleHash))
	}

	return prefix, puzzleHash, nil
}

// PuzzleHashFromHex parses a hex puzzle hash, accepting an optional 0x prefix
func PuzzleHashFromHex(s string) ([]byte, error) {
	if len(s) >= 2 && s[0:2] == "0x" {
		s = s[2:]
	}

	puzzleHash, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid puzzle hash hex: %w", err)
	}
	if len(puzzleHash) != PuzzleHashLength {
		return nil, fmt.Errorf("puzzle hash must be %d bytes, got %d", PuzzleHashLength, len(puzzleHash))
	}

	return puzzleHash, nil
}

// PuzzleHashToHex renders a puzzle hash as 0x-prefixed hex, the form the
// explorer and custody APIs use
func PuzzleHashToHex(puzzleHash []byte) string {
	return "0x" + hex.EncodeToString(puzzleHash)
}
