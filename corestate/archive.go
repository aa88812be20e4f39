package corestate

import (
	"encoding/binary"
	"sync"

	"github.com/ethexec/execlayer/coretypes"
	"github.com/holiman/billy"
)

// blockArchive persists full block bodies (transactions + withdrawals) in
// an append-only segment file via github.com/holiman/billy, mirroring
// go-ethereum's freezer/ancient-store split: headers stay in the
// fast/indexed path (headerCache + the engine's own header index), while
// large, rarely-re-read bodies go to billy's blob store. Block 0 (genesis)
// has no predecessor to diff against, so it is archived like any other
// block.
type blockArchive struct {
	mu  sync.Mutex
	db  billy.Database
	ids map[uint64]uint64 // block number -> billy slot id
}

func newBlockArchive(dir string) (*blockArchive, error) {
	db, err := billy.Open(billy.Options{Path: dir}, newBodyShelf(), nil)
	if err != nil {
		return nil, err
	}
	return &blockArchive{db: db, ids: make(map[uint64]uint64)}, nil
}

// bodyShelf defines the slot-size buckets billy uses to pack variable
// length block bodies; generous enough for the value-transfer/simple
// call workloads this module's reference backend executes.
func newBodyShelf() billy.Shelf {
	return billy.Shelf{MaxSize: 8 << 20}
}

func (a *blockArchive) put(number uint64, encoded []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, err := a.db.Put(encoded)
	if err != nil {
		return err
	}
	a.ids[number] = id
	return nil
}

func (a *blockArchive) get(number uint64) ([]byte, bool, error) {
	a.mu.Lock()
	id, ok := a.ids[number]
	a.mu.Unlock()
	if !ok {
		return nil, false, nil
	}
	data, err := a.db.Get(id)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (a *blockArchive) close() error {
	return a.db.Close()
}

// encodeBody is a minimal length-prefixed framing of a block's
// transactions and withdrawals; real wire framing (RLP) is out of this
// module's scope (coretypes.ExecutionPayloadV3 already carries opaque
// transaction bytes).
func encodeBody(block *coretypes.Block) []byte {
	buf := make([]byte, 0, 256)
	buf = appendBodyUint64(buf, uint64(len(block.Transactions)))
	for _, tx := range block.Transactions {
		h := tx.SigningHash
		buf = append(buf, h[:]...)
	}
	buf = appendBodyUint64(buf, uint64(len(block.Withdrawals)))
	for _, wd := range block.Withdrawals {
		buf = appendBodyUint64(buf, wd.Index)
		buf = appendBodyUint64(buf, wd.ValidatorIndex)
		buf = append(buf, wd.Address[:]...)
		buf = appendBodyUint64(buf, wd.AmountGwei)
	}
	return buf
}

func appendBodyUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}
