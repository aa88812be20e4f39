package coretypes

import (
	"encoding/binary"
	"fmt"
)

// EncodeTransaction and DecodeTransaction are this module's wire framing
// for the opaque transaction bytes an ExecutionPayloadV3 carries. Real
// clients RLP- or SSZ-encode transactions; that framing is owned by the
// Engine-API transport layer and is out of this module's scope (spec.md
// §1 treats transport/framing as an external collaborator). This is a
// length-prefixed, tagged binary encoding sufficient to round-trip every
// field coretypes.Transaction defines, used by tests and by the payload
// pipeline's decode step.
func EncodeTransaction(tx *Transaction) []byte {
	buf := []byte{byte(tx.Type)}
	buf = putU64(buf, tx.Nonce)
	buf = putU64(buf, tx.GasLimit)
	buf = putU256(buf, tx.GasPrice)
	buf = putU256(buf, tx.MaxFeePerGas)
	buf = putOptU256(buf, tx.MaxPriorityFee)
	if tx.To.IsCreate() {
		buf = append(buf, 0)
	} else {
		buf = append(buf, 1)
		to := tx.To.Address()
		buf = append(buf, to[:]...)
	}
	buf = putU256(buf, tx.Value)
	buf = putBytes(buf, tx.Data)
	buf = putU64(buf, uint64(len(tx.AccessList)))
	for _, at := range tx.AccessList {
		buf = append(buf, at.Address[:]...)
		buf = putU64(buf, uint64(len(at.StorageKeys)))
		for _, k := range at.StorageKeys {
			buf = append(buf, k[:]...)
		}
	}
	buf = putU64(buf, uint64(len(tx.BlobVersionedHash)))
	for _, h := range tx.BlobVersionedHash {
		buf = append(buf, h[:]...)
	}
	buf = putOptU256(buf, tx.MaxFeePerBlobGas)
	buf = append(buf, tx.R[:]...)
	buf = append(buf, tx.S[:]...)
	buf = append(buf, tx.V)
	buf = append(buf, tx.SigningHash[:]...)
	return buf
}

// DecodeTransaction is the inverse of EncodeTransaction.
func DecodeTransaction(raw []byte) (*Transaction, error) {
	r := &byteReader{buf: raw}
	tx := &Transaction{}
	typ, err := r.byte_()
	if err != nil {
		return nil, err
	}
	tx.Type = TxType(typ)
	if tx.Nonce, err = r.u64(); err != nil {
		return nil, err
	}
	if tx.GasLimit, err = r.u64(); err != nil {
		return nil, err
	}
	if tx.GasPrice, err = r.u256(); err != nil {
		return nil, err
	}
	if tx.MaxFeePerGas, err = r.u256(); err != nil {
		return nil, err
	}
	if tx.MaxPriorityFee, err = r.optU256(); err != nil {
		return nil, err
	}
	isCall, err := r.byte_()
	if err != nil {
		return nil, err
	}
	if isCall == 0 {
		tx.To = CreateTarget()
	} else {
		addr, err := r.address()
		if err != nil {
			return nil, err
		}
		tx.To = CallTo(addr)
	}
	if tx.Value, err = r.u256(); err != nil {
		return nil, err
	}
	if tx.Data, err = r.bytes(); err != nil {
		return nil, err
	}
	n, err := r.u64()
	if err != nil {
		return nil, err
	}
	tx.AccessList = make(AccessList, n)
	for i := range tx.AccessList {
		addr, err := r.address()
		if err != nil {
			return nil, err
		}
		kn, err := r.u64()
		if err != nil {
			return nil, err
		}
		keys := make([]Hash, kn)
		for j := range keys {
			if keys[j], err = r.hash(); err != nil {
				return nil, err
			}
		}
		tx.AccessList[i] = AccessTuple{Address: addr, StorageKeys: keys}
	}
	bn, err := r.u64()
	if err != nil {
		return nil, err
	}
	tx.BlobVersionedHash = make([]Hash, bn)
	for i := range tx.BlobVersionedHash {
		if tx.BlobVersionedHash[i], err = r.hash(); err != nil {
			return nil, err
		}
	}
	if tx.MaxFeePerBlobGas, err = r.optU256(); err != nil {
		return nil, err
	}
	if tx.R, err = r.bytes32(); err != nil {
		return nil, err
	}
	if tx.S, err = r.bytes32(); err != nil {
		return nil, err
	}
	if tx.V, err = r.byte_(); err != nil {
		return nil, err
	}
	if tx.SigningHash, err = r.hash(); err != nil {
		return nil, err
	}
	return tx, nil
}

func putU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func putU256(buf []byte, v U256) []byte {
	b := v.Bytes32()
	return append(buf, b[:]...)
}

func putOptU256(buf []byte, v *U256) []byte {
	if v == nil {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	return putU256(buf, *v)
}

func putBytes(buf []byte, b []byte) []byte {
	buf = putU64(buf, uint64(len(b)))
	return append(buf, b...)
}

type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) need(n int) error {
	if r.pos+n > len(r.buf) {
		return fmt.Errorf("coretypes: truncated transaction encoding")
	}
	return nil
}

func (r *byteReader) byte_() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) u64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *byteReader) bytes32() ([32]byte, error) {
	var out [32]byte
	if err := r.need(32); err != nil {
		return out, err
	}
	copy(out[:], r.buf[r.pos:])
	r.pos += 32
	return out, nil
}

func (r *byteReader) hash() (Hash, error) {
	b, err := r.bytes32()
	return Hash(b), err
}

func (r *byteReader) address() (Address, error) {
	if err := r.need(AddressLength); err != nil {
		return Address{}, err
	}
	var a Address
	copy(a[:], r.buf[r.pos:])
	r.pos += AddressLength
	return a, nil
}

func (r *byteReader) u256() (U256, error) {
	b, err := r.bytes32()
	if err != nil {
		return U256{}, err
	}
	return U256FromBigEndian(b[:]), nil
}

func (r *byteReader) optU256() (*U256, error) {
	tag, err := r.byte_()
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		return nil, nil
	}
	v, err := r.u256()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *byteReader) bytes() ([]byte, error) {
	n, err := r.u64()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n)); err != nil {
		return nil, err
	}
	out := append([]byte(nil), r.buf[r.pos:r.pos+int(n)]...)
	r.pos += int(n)
	return out, nil
}

// DecodeTransactions decodes every opaque transaction in the payload in
// inclusion order and memoizes the result (spec.md §4.3's "decoded lazily"
// treatment of the wire list).
func (p *ExecutionPayloadV3) DecodeTransactions() ([]*Transaction, error) {
	if p.decodedTxs != nil {
		return p.decodedTxs, nil
	}
	out := make([]*Transaction, len(p.Transactions))
	for i, raw := range p.Transactions {
		tx, err := DecodeTransaction(raw)
		if err != nil {
			return nil, fmt.Errorf("coretypes: decoding transaction %d: %w", i, err)
		}
		out[i] = tx
	}
	p.decodedTxs = out
	return out, nil
}
