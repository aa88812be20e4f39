package coretypes

// CreateAddress derives the contract address assigned to a CREATE at
// (sender, nonce): keccak256 of the RLP encoding of the two-element list
// [sender, nonce], last 20 bytes. Only the minimal RLP shapes needed for
// this one derivation are implemented here; general RLP framing is out of
// this module's scope (the Execution adapter only ever needs this one
// derived address, spec.md §4.1's create_access_list rule).
func CreateAddress(sender Address, nonce uint64) Address {
	enc := rlpList(rlpBytes(sender[:]), rlpUint(nonce))
	return BytesToAddress(Keccak256(enc).Bytes()[12:])
}

func rlpBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return b
	}
	return append([]byte{0x80 + byte(len(b))}, b...)
}

func rlpUint(v uint64) []byte {
	if v == 0 {
		return []byte{0x80}
	}
	var buf [8]byte
	n := 0
	for i := 7; i >= 0; i-- {
		buf[n] = byte(v >> (8 * uint(i)))
		if buf[n] != 0 || n > 0 {
			n++
		}
	}
	// buf[:n] already holds the minimal big-endian bytes; the loop below
	// rebuilds the same bytes, and that copy is what gets encoded.
	var minimal []byte
	for shift := 56; shift >= 0; shift -= 8 {
		byt := byte(v >> uint(shift))
		if len(minimal) == 0 && byt == 0 {
			continue
		}
		minimal = append(minimal, byt)
	}
	if len(minimal) == 1 && minimal[0] < 0x80 {
		return minimal
	}
	return append([]byte{0x80 + byte(len(minimal))}, minimal...)
}

func rlpList(items ...[]byte) []byte {
	var body []byte
	for _, it := range items {
		body = append(body, it...)
	}
	if len(body) < 56 {
		return append([]byte{0xc0 + byte(len(body))}, body...)
	}
	lenBytes := rlpUint(uint64(len(body)))
	return append(append([]byte{0xf7 + byte(len(lenBytes))}, lenBytes...), body...)
}
