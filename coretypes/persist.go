package coretypes

// EncodeAccountInfo/DecodeAccountInfo are the durable-store wire framing
// for AccountInfo: balance and code hash as canonical 32-byte big-endian
// values, nonce as a fixed-width uint64 (SPEC_FULL.md's durable-engine
// persistence layer). Uses the same putU64/byteReader helpers as
// EncodeTransaction but, unlike it, carries no length prefixes, since every
// AccountInfo field is already fixed-width.
func EncodeAccountInfo(info AccountInfo) []byte {
	buf := make([]byte, 0, 72)
	bal := info.Balance.Bytes32()
	buf = append(buf, bal[:]...)
	buf = putU64(buf, info.Nonce)
	buf = append(buf, info.CodeHash[:]...)
	return buf
}

// DecodeAccountInfo is the inverse of EncodeAccountInfo.
func DecodeAccountInfo(raw []byte) (AccountInfo, error) {
	r := &byteReader{buf: raw}
	bal, err := r.bytes32()
	if err != nil {
		return AccountInfo{}, err
	}
	nonce, err := r.u64()
	if err != nil {
		return AccountInfo{}, err
	}
	codeHash, err := r.hash()
	if err != nil {
		return AccountInfo{}, err
	}
	return AccountInfo{Balance: U256FromBigEndian(bal[:]), Nonce: nonce, CodeHash: codeHash}, nil
}

// EncodeHeader/DecodeHeader round-trip a BlockHeader for durable storage.
// Unlike BlockHeader.Hash (a one-way digest), this framing carries every
// field back out, in the same field order Hash uses for readability.
func EncodeHeader(h BlockHeader) []byte {
	buf := make([]byte, 0, 512)
	buf = append(buf, h.ParentHash[:]...)
	buf = append(buf, h.UncleHash[:]...)
	buf = append(buf, h.Coinbase[:]...)
	buf = append(buf, h.StateRoot[:]...)
	buf = append(buf, h.TxRoot[:]...)
	buf = append(buf, h.ReceiptRoot[:]...)
	buf = append(buf, h.LogsBloom[:]...)
	diff := h.Difficulty.Bytes32()
	buf = append(buf, diff[:]...)
	buf = putU64(buf, h.Number)
	buf = putU64(buf, h.GasLimit)
	buf = putU64(buf, h.GasUsed)
	buf = putU64(buf, h.Timestamp)
	buf = putBytes(buf, h.ExtraData)
	buf = append(buf, h.PrevRandao[:]...)
	buf = append(buf, h.Nonce[:]...)
	baseFee := h.BaseFeePerGas.Bytes32()
	buf = append(buf, baseFee[:]...)
	buf = append(buf, h.WithdrawalsRoot[:]...)
	buf = putU64(buf, h.BlobGasUsed)
	buf = putU64(buf, h.ExcessBlobGas)
	buf = append(buf, h.ParentBeaconRoot[:]...)
	return buf
}

// DecodeHeader is the inverse of EncodeHeader.
func DecodeHeader(raw []byte) (BlockHeader, error) {
	r := &byteReader{buf: raw}
	var h BlockHeader
	var err error
	if h.ParentHash, err = r.hash(); err != nil {
		return BlockHeader{}, err
	}
	if h.UncleHash, err = r.hash(); err != nil {
		return BlockHeader{}, err
	}
	if h.Coinbase, err = r.address(); err != nil {
		return BlockHeader{}, err
	}
	if h.StateRoot, err = r.hash(); err != nil {
		return BlockHeader{}, err
	}
	if h.TxRoot, err = r.hash(); err != nil {
		return BlockHeader{}, err
	}
	if h.ReceiptRoot, err = r.hash(); err != nil {
		return BlockHeader{}, err
	}
	bloom, err := r.bytesN(BloomByteLength)
	if err != nil {
		return BlockHeader{}, err
	}
	copy(h.LogsBloom[:], bloom)
	diff, err := r.bytes32()
	if err != nil {
		return BlockHeader{}, err
	}
	h.Difficulty = U256FromBigEndian(diff[:])
	if h.Number, err = r.u64(); err != nil {
		return BlockHeader{}, err
	}
	if h.GasLimit, err = r.u64(); err != nil {
		return BlockHeader{}, err
	}
	if h.GasUsed, err = r.u64(); err != nil {
		return BlockHeader{}, err
	}
	if h.Timestamp, err = r.u64(); err != nil {
		return BlockHeader{}, err
	}
	if h.ExtraData, err = r.bytes(); err != nil {
		return BlockHeader{}, err
	}
	if h.PrevRandao, err = r.hash(); err != nil {
		return BlockHeader{}, err
	}
	nonce, err := r.bytesN(8)
	if err != nil {
		return BlockHeader{}, err
	}
	copy(h.Nonce[:], nonce)
	baseFee, err := r.bytes32()
	if err != nil {
		return BlockHeader{}, err
	}
	h.BaseFeePerGas = U256FromBigEndian(baseFee[:])
	if h.WithdrawalsRoot, err = r.hash(); err != nil {
		return BlockHeader{}, err
	}
	if h.BlobGasUsed, err = r.u64(); err != nil {
		return BlockHeader{}, err
	}
	if h.ExcessBlobGas, err = r.u64(); err != nil {
		return BlockHeader{}, err
	}
	if h.ParentBeaconRoot, err = r.hash(); err != nil {
		return BlockHeader{}, err
	}
	return h, nil
}

// EncodeReceipts/DecodeReceipts round-trip a block's receipt list for
// durable storage, reusing the same length-prefixed framing style as
// EncodeTransaction.
func EncodeReceipts(receipts []Receipt) []byte {
	buf := putU64(nil, uint64(len(receipts)))
	for _, rcpt := range receipts {
		buf = append(buf, rcpt.TxHash[:]...)
		if rcpt.Status {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		buf = putU64(buf, rcpt.GasUsed)
		buf = putU64(buf, rcpt.CumulativeGasUsed)
		buf = putU64(buf, uint64(len(rcpt.Logs)))
		for _, lg := range rcpt.Logs {
			buf = append(buf, lg.Address[:]...)
			buf = putU64(buf, uint64(len(lg.Topics)))
			for _, t := range lg.Topics {
				buf = append(buf, t[:]...)
			}
			buf = putBytes(buf, lg.Data)
		}
		buf = append(buf, rcpt.Bloom[:]...)
		if rcpt.ContractAddress != nil {
			buf = append(buf, 1)
			buf = append(buf, rcpt.ContractAddress[:]...)
		} else {
			buf = append(buf, 0)
		}
		buf = putU64(buf, rcpt.BlobGasUsed)
	}
	return buf
}

// DecodeReceipts is the inverse of EncodeReceipts.
func DecodeReceipts(raw []byte) ([]Receipt, error) {
	r := &byteReader{buf: raw}
	n, err := r.u64()
	if err != nil {
		return nil, err
	}
	out := make([]Receipt, n)
	for i := range out {
		rcpt := &out[i]
		if rcpt.TxHash, err = r.hash(); err != nil {
			return nil, err
		}
		status, err := r.byte_()
		if err != nil {
			return nil, err
		}
		rcpt.Status = status != 0
		if rcpt.GasUsed, err = r.u64(); err != nil {
			return nil, err
		}
		if rcpt.CumulativeGasUsed, err = r.u64(); err != nil {
			return nil, err
		}
		ln, err := r.u64()
		if err != nil {
			return nil, err
		}
		if ln > 0 {
			rcpt.Logs = make([]Log, ln)
		}
		for j := range rcpt.Logs {
			lg := &rcpt.Logs[j]
			if lg.Address, err = r.address(); err != nil {
				return nil, err
			}
			tn, err := r.u64()
			if err != nil {
				return nil, err
			}
			if tn > 0 {
				lg.Topics = make([]Hash, tn)
			}
			for k := range lg.Topics {
				if lg.Topics[k], err = r.hash(); err != nil {
					return nil, err
				}
			}
			if lg.Data, err = r.bytes(); err != nil {
				return nil, err
			}
		}
		bloom, err := r.bytesN(BloomByteLength)
		if err != nil {
			return nil, err
		}
		copy(rcpt.Bloom[:], bloom)
		hasAddr, err := r.byte_()
		if err != nil {
			return nil, err
		}
		if hasAddr != 0 {
			addr, err := r.address()
			if err != nil {
				return nil, err
			}
			rcpt.ContractAddress = &addr
		}
		if rcpt.BlobGasUsed, err = r.u64(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *byteReader) bytesN(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	out := append([]byte(nil), r.buf[r.pos:r.pos+n]...)
	r.pos += n
	return out, nil
}
