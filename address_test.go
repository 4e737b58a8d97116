package chiawallet

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/stretchr/testify/require"
)

func TestAddressRoundTrip(t *testing.T) {
	puzzleHash := bytes.Repeat([]byte{0xab}, PuzzleHashLength)

	address, err := EncodeAddress(MainnetAddressPrefix, puzzleHash)
	require.NoError(t, err)
	require.Equal(t, "xch1", address[:4])

	prefix, decoded, err := DecodeAddress(address)
	require.NoError(t, err)
	require.Equal(t, MainnetAddressPrefix, prefix)
	require.Equal(t, puzzleHash, decoded)
}

func TestAddressTestnetPrefix(t *testing.T) {
	puzzleHash := bytes.Repeat([]byte{0x01}, PuzzleHashLength)

	address, err := EncodeAddress(TestnetAddressPrefix, puzzleHash)
	require.NoError(t, err)

	prefix, decoded, err := DecodeAddress(address)
	require.NoError(t, err)
	require.Equal(t, TestnetAddressPrefix, prefix)
	require.Equal(t, puzzleHash, decoded)
}

func TestEncodeAddressRejectsBadLength(t *testing.T) {
	_, err := EncodeAddress(MainnetAddressPrefix, make([]byte, 31))
	require.Error(t, err)

	_, err = EncodeAddress(MainnetAddressPrefix, make([]byte, 33))
	require.Error(t, err)
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	_, _, err := DecodeAddress("not-an-address")
	require.Error(t, err)
}

func TestDecodeAddressRejectsBech32(t *testing.T) {
	// A valid bech32 (not bech32m) string must be rejected.
	converted, err := bech32.ConvertBits(bytes.Repeat([]byte{0x22}, PuzzleHashLength), 8, 5, true)
	require.NoError(t, err)

	legacy, err := bech32.Encode(MainnetAddressPrefix, converted)
	require.NoError(t, err)

	_, _, err = DecodeAddress(legacy)
	require.Error(t, err)
	require.Contains(t, err.Error(), "bech32m")
}

func TestPuzzleHashHex(t *testing.T) {
	puzzleHash := bytes.Repeat([]byte{0x7f}, PuzzleHashLength)
	encoded := PuzzleHashToHex(puzzleHash)
	require.Equal(t, "0x"+hex.EncodeToString(puzzleHash), encoded)

	decoded, err := PuzzleHashFromHex(encoded)
	require.NoError(t, err)
	require.Equal(t, puzzleHash, decoded)

	// The 0x prefix is optional.
	decoded, err = PuzzleHashFromHex(hex.EncodeToString(puzzleHash))
	require.NoError(t, err)
	require.Equal(t, puzzleHash, decoded)

	_, err = PuzzleHashFromHex("0x1234")
	require.Error(t, err)

	_, err = PuzzleHashFromHex("zz")
	require.Error(t, err)
}
