package coretypes

import (
	"encoding/json"
	"fmt"
)

// ChainConfig carries fork-activation timestamps. Only CancunTime matters
// to the core (spec.md §4.2's get_cancun_time). ShanghaiTime and PragueTime
// are decoded as well; TerminalTTD is not read from the JSON, and there is
// no encoder back to genesis.json.
type ChainConfig struct {
	ChainID         uint64
	ShanghaiTime    *uint64
	CancunTime      *uint64
	PragueTime      *uint64
	TerminalTTD     *U256
}

// GenesisAccount is one entry of the genesis allocation map.
type GenesisAccount struct {
	Balance U256
	Nonce   uint64
	Code    []byte
	Storage map[Hash]Hash
}

// Genesis is the JSON document consumed once at startup to seed the Store
// (spec.md §6, "Genesis file" — an external collaborator of the core, but
// still part of a runnable repo per SPEC_FULL.md §6).
type Genesis struct {
	Config     ChainConfig
	Alloc      map[Address]GenesisAccount
	Header     BlockHeader
}

type chainConfigJSON struct {
	ChainID      uint64  `json:"chainId"`
	ShanghaiTime *uint64 `json:"shanghaiTime,omitempty"`
	CancunTime   *uint64 `json:"cancunTime,omitempty"`
	PragueTime   *uint64 `json:"pragueTime,omitempty"`
}

type genesisAccountJSON struct {
	Balance string            `json:"balance"`
	Nonce   string            `json:"nonce,omitempty"`
	Code    string            `json:"code,omitempty"`
	Storage map[string]string `json:"storage,omitempty"`
}

type genesisJSON struct {
	Config        chainConfigJSON                `json:"config"`
	Alloc         map[string]genesisAccountJSON   `json:"alloc"`
	Timestamp     string                          `json:"timestamp"`
	ExtraData     string                          `json:"extraData"`
	GasLimit      string                          `json:"gasLimit"`
	BaseFeePerGas string                          `json:"baseFeePerGas,omitempty"`
	Difficulty    string                          `json:"difficulty,omitempty"`
	Coinbase      string                          `json:"coinbase,omitempty"`
}

// DecodeGenesis parses a genesis.json document.
func DecodeGenesis(data []byte) (*Genesis, error) {
	var w genesisJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("coretypes: decoding genesis: %w", err)
	}
	g := &Genesis{
		Config: ChainConfig{
			ChainID:      w.Config.ChainID,
			ShanghaiTime: w.Config.ShanghaiTime,
			CancunTime:   w.Config.CancunTime,
			PragueTime:   w.Config.PragueTime,
		},
		Alloc: make(map[Address]GenesisAccount, len(w.Alloc)),
	}
	for addrHex, acc := range w.Alloc {
		var ga GenesisAccount
		if err := ga.Balance.UnmarshalText([]byte(orZero(acc.Balance))); err != nil {
			return nil, fmt.Errorf("coretypes: genesis alloc %s balance: %w", addrHex, err)
		}
		if acc.Nonce != "" {
			n, err := parseHexUint(acc.Nonce)
			if err != nil {
				return nil, fmt.Errorf("coretypes: genesis alloc %s nonce: %w", addrHex, err)
			}
			ga.Nonce = n
		}
		if acc.Code != "" {
			ga.Code = fromHex(acc.Code)
		}
		if len(acc.Storage) > 0 {
			ga.Storage = make(map[Hash]Hash, len(acc.Storage))
			for k, v := range acc.Storage {
				ga.Storage[HexToHash(k)] = HexToHash(v)
			}
		}
		g.Alloc[HexToAddress(addrHex)] = ga
	}

	ts, _ := parseHexUint(w.Timestamp)
	gasLimit, _ := parseHexUint(w.GasLimit)
	var baseFee U256
	if w.BaseFeePerGas != "" {
		_ = baseFee.UnmarshalText([]byte(w.BaseFeePerGas))
	} else {
		baseFee = NewU256FromUint64(1_000_000_000)
	}
	g.Header = BlockHeader{
		UncleHash:     EmptyUncleHash,
		Coinbase:      HexToAddress(w.Coinbase),
		Number:        0,
		GasLimit:      gasLimit,
		Timestamp:     ts,
		ExtraData:     fromHex(w.ExtraData),
		BaseFeePerGas: baseFee,
	}
	return g, nil
}

func orZero(s string) string {
	if s == "" {
		return "0x0"
	}
	return s
}
