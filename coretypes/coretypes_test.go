package coretypes

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestU256Conversions(t *testing.T) {
	// U256 conversion is bijective between big-endian bytes, little-endian
	// limb form, and hash form (spec.md §8, round-trip laws).
	want := NewU256FromBig(big.NewInt(123456789))

	h := want.Hash()
	require.True(t, want.Eq(U256FromHash(h)), "hash round-trip mismatch")

	le := want.LittleEndianLimbs()
	require.True(t, want.Eq(U256FromLittleEndianLimbs(le[:])), "little-endian round-trip mismatch")

	be := want.Bytes32()
	require.True(t, want.Eq(U256FromBigEndian(be[:])), "big-endian round-trip mismatch")
}

func TestAddressHexRoundTrip(t *testing.T) {
	a := HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	require.Equal(t, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", a.Hex())

	var a2 Address
	require.NoError(t, a2.UnmarshalText([]byte(a.Hex())))
	require.Equal(t, a, a2)
}

func TestCodeHashIdempotent(t *testing.T) {
	// Code store idempotence: keccak256(code) == code_hash (spec.md §8.6).
	code := []byte{0x60, 0x00, 0x60, 0x00}
	h1 := CodeHash(code)
	h2 := CodeHash(code)
	require.Equal(t, h1, h2, "code hash not stable across calls")
	require.Equal(t, Keccak256(code), h1, "code hash must equal keccak256(code)")
	require.Equal(t, EmptyCodeHash, CodeHash(nil), "empty code must hash to EmptyCodeHash")
}

func TestAccessListMerge(t *testing.T) {
	a1 := HexToAddress("0x0000000000000000000000000000000000000001")
	a2 := HexToAddress("0x0000000000000000000000000000000000000002")
	k1 := HexToHash("0x0000000000000000000000000000000000000000000000000000000000000001")

	base := AccessList{{Address: a1, StorageKeys: []Hash{k1}}}
	discovered := AccessList{
		{Address: a1, StorageKeys: []Hash{k1, HexToHash("0x02")}},
		{Address: a2, StorageKeys: nil},
	}

	merged := base.Merge(discovered)
	require.Len(t, merged, 2, "expected 2 addresses after merge")
	require.Len(t, merged[0].StorageKeys, 2, "expected 2 storage keys for a1 after merge")

	// create_access_list is idempotent in its second argument: merging
	// discovered into base again must not grow the list further (spec.md
	// §8.7).
	mergedAgain := merged.Merge(discovered)
	require.Len(t, mergedAgain, len(merged), "merge not idempotent")
}

func TestBlockHeaderHashDeterministic(t *testing.T) {
	h := BlockHeader{
		Number:    1,
		GasLimit:  30_000_000,
		Timestamp: 100,
	}
	h1 := h.Hash()
	require.Equal(t, h1, h.Hash(), "header hash must be a pure function of its fields")

	h.GasUsed = 1
	require.NotEqual(t, h1, h.Hash(), "changing a header field must change its hash")
}

func TestHeaderPersistenceRoundTrip(t *testing.T) {
	// Encode/DecodeHeader back the durable-store persistence layer;
	// unlike Hash (a one-way digest) this framing must reproduce every
	// field byte-for-byte.
	h := BlockHeader{
		ParentHash:       HexToHash("0x01"),
		Coinbase:         HexToAddress("0x02"),
		Number:           7,
		GasLimit:         30_000_000,
		GasUsed:          21_000,
		Timestamp:        1000,
		ExtraData:        []byte{0xde, 0xad},
		BaseFeePerGas:    NewU256FromUint64(7),
		ParentBeaconRoot: HexToHash("0x03"),
	}
	h2, err := DecodeHeader(EncodeHeader(h))
	require.NoError(t, err)
	require.Equal(t, h.Hash(), h2.Hash())
	require.Equal(t, h.ExtraData, h2.ExtraData)
}

func TestAccountInfoPersistenceRoundTrip(t *testing.T) {
	info := AccountInfo{
		Balance:  NewU256FromUint64(42),
		Nonce:    9,
		CodeHash: HexToHash("0x01"),
	}
	info2, err := DecodeAccountInfo(EncodeAccountInfo(info))
	require.NoError(t, err)
	require.Equal(t, info, info2)
}

func TestReceiptsPersistenceRoundTrip(t *testing.T) {
	addr := &Address{0x01}
	receipts := []Receipt{
		{
			TxHash:            HexToHash("0x01"),
			Status:            true,
			GasUsed:           21_000,
			CumulativeGasUsed: 21_000,
			Logs: []Log{
				{Address: HexToAddress("0x02"), Topics: []Hash{HexToHash("0x03")}, Data: []byte{0x01}},
			},
			ContractAddress: addr,
			BlobGasUsed:     131072,
		},
	}
	got, err := DecodeReceipts(EncodeReceipts(receipts))
	require.NoError(t, err)
	require.Equal(t, receipts, got)
}

func TestExecutionPayloadV3JSONRoundTrip(t *testing.T) {
	p := ExecutionPayloadV3{
		ParentHash:    HexToHash("0x01"),
		FeeRecipient:  HexToAddress("0x02"),
		BlockNumber:   7,
		GasLimit:      30_000_000,
		Timestamp:     1000,
		BaseFeePerGas: NewU256FromUint64(7),
		BlockHash:     HexToHash("0x03"),
		Transactions:  [][]byte{{0x01, 0x02}},
	}
	data, err := p.MarshalJSON()
	require.NoError(t, err)

	var p2 ExecutionPayloadV3
	require.NoError(t, p2.UnmarshalJSON(data))
	require.Equal(t, p.BlockNumber, p2.BlockNumber)
	require.Equal(t, p.Timestamp, p2.Timestamp)
	require.True(t, p2.BaseFeePerGas.Eq(p.BaseFeePerGas))
	require.Len(t, p2.Transactions, 1)
	require.Equal(t, byte(0x01), p2.Transactions[0][0])
}
