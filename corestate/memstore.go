package corestate

import (
	"sync"

	"github.com/ethexec/execlayer/coretypes"
)

// MemStore is the mandatory in-memory Store engine (spec.md §4.2,
// "mandatory for testing"): every table is a plain Go map guarded by one
// mutex. Concurrent readers observe a consistent snapshot because every
// operation holds the lock for its entire duration (spec.md §5); there is
// no MVCC here, just coarse mutual exclusion, which is sufficient since
// the in-memory engine only ever serves tests and local development.
type MemStore struct {
	mu sync.RWMutex

	accounts map[coretypes.Address]coretypes.AccountInfo
	storage  map[coretypes.Address]map[coretypes.Hash]coretypes.Hash
	code     map[coretypes.Hash][]byte

	headersByNumber map[uint64]coretypes.BlockHeader
	numberByHash    map[coretypes.Hash]uint64
	receipts        map[uint64][]coretypes.Receipt
	txLocation      map[coretypes.Hash]txLoc

	codeCache   *codeCache
	headerCache *headerCache

	cancunTime   uint64
	cancunTimeOK bool
}

type txLoc struct {
	blockNumber uint64
	txIndex     int
}

// NewMemStore constructs an empty in-memory Store.
func NewMemStore() *MemStore {
	return &MemStore{
		accounts:        make(map[coretypes.Address]coretypes.AccountInfo),
		storage:         make(map[coretypes.Address]map[coretypes.Hash]coretypes.Hash),
		code:            make(map[coretypes.Hash][]byte),
		headersByNumber: make(map[uint64]coretypes.BlockHeader),
		numberByHash:    make(map[coretypes.Hash]uint64),
		receipts:        make(map[uint64][]coretypes.Receipt),
		txLocation:      make(map[coretypes.Hash]txLoc),
		codeCache:       newCodeCache(32 << 20),
		headerCache:     newHeaderCache(),
	}
}

func (s *MemStore) GetAccountInfo(addr coretypes.Address) (coretypes.AccountInfo, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.accounts[addr]
	return info, ok, nil
}

func (s *MemStore) AddAccountInfo(addr coretypes.Address, info coretypes.AccountInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[addr] = info
	return nil
}

// RemoveAccount deletes addr's info and all of its storage, matching
// spec.md §8.4's destruction invariant.
func (s *MemStore) RemoveAccount(addr coretypes.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, addr)
	delete(s.storage, addr)
	return nil
}

func (s *MemStore) AddAccountCode(hash coretypes.Hash, code []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Idempotent by hash: writing the same bytes twice leaves the mapping
	// unchanged (spec.md §3/§8.6).
	if _, ok := s.code[hash]; !ok {
		stored := append([]byte(nil), code...)
		s.code[hash] = stored
		s.codeCache.set(hash, stored)
	}
	return nil
}

func (s *MemStore) GetAccountCode(hash coretypes.Hash) ([]byte, bool, error) {
	if code, ok := s.codeCache.get(hash); ok {
		return code, true, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.code[hash]
	if ok {
		s.codeCache.set(hash, code)
	}
	return code, ok, nil
}

func (s *MemStore) AddStorageAt(addr coretypes.Address, key, value coretypes.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slots := s.storage[addr]
	if slots == nil {
		slots = make(map[coretypes.Hash]coretypes.Hash)
		s.storage[addr] = slots
	}
	// Zero value is semantically equivalent to absence (spec.md §3);
	// writing zero deletes the slot rather than keeping an explicit entry.
	if value.IsZero() {
		delete(slots, key)
		return nil
	}
	slots[key] = value
	return nil
}

func (s *MemStore) GetStorageAt(addr coretypes.Address, key coretypes.Hash) (coretypes.Hash, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slots, ok := s.storage[addr]
	if !ok {
		return coretypes.Hash{}, false, nil
	}
	v, ok := slots[key]
	return v, ok, nil
}

func (s *MemStore) GetBlockHeader(number uint64) (coretypes.BlockHeader, bool, error) {
	if h, ok := s.headerCache.get(number); ok {
		return h, true, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.headersByNumber[number]
	if ok {
		s.headerCache.set(number, h)
	}
	return h, ok, nil
}

func (s *MemStore) AddBlock(block *coretypes.Block, receipts []coretypes.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	number := block.Header.Number
	s.headersByNumber[number] = block.Header
	s.headerCache.set(number, block.Header)
	s.receipts[number] = receipts
	for i, tx := range block.Transactions {
		s.txLocation[tx.SigningHash] = txLoc{blockNumber: number, txIndex: i}
	}
	return nil
}

func (s *MemStore) AddBlockNumber(blockHash coretypes.Hash, number uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.numberByHash[blockHash] = number
	return nil
}

func (s *MemStore) GetBlockNumber(blockHash coretypes.Hash) (uint64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.numberByHash[blockHash]
	return n, ok, nil
}

func (s *MemStore) GetReceipts(number uint64) ([]coretypes.Receipt, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.receipts[number]
	return r, ok, nil
}

func (s *MemStore) GetTransactionLocation(txHash coretypes.Hash) (uint64, int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.txLocation[txHash]
	return loc.blockNumber, loc.txIndex, ok, nil
}

func (s *MemStore) GetCancunTime() (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cancunTime, s.cancunTimeOK
}

func (s *MemStore) SetCancunTime(ts uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancunTime = ts
	s.cancunTimeOK = true
}

var _ Store = (*MemStore)(nil)
