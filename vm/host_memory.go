package vm

import "github.com/holiman/uint256"

// ---------------------------------------------------------------------------
// In-memory host

type memAccount struct {
	balance uint256.Int
	nonce   uint64
	code    []byte
	storage map[Hash]Hash
	// origin records, for slots written this transaction, their value at
	// transaction start. Slots absent here are unmodified.
	origin map[Hash]Hash
}

type slotKey struct {
	addr Address
	key  Hash
}

// MemoryHost is a self-contained Host backed by maps, with snapshot and
// revert implemented as an undo journal. It is the reference host for
// tests and the command-line runner. Self-destructed accounts are removed
// at FinaliseTx only when they were created in the same transaction;
// LegacySelfDestruct restores the pre-Cancun unconditional removal.
type MemoryHost struct {
	LegacySelfDestruct bool

	accounts    map[Address]*memAccount
	transient   map[slotKey]Hash
	warmAddrs   map[Address]bool
	warmSlots   map[slotKey]bool
	destructs   map[Address]bool
	created     map[Address]bool
	blockHashes map[uint64]Hash
	logs        []Log
	journal     []func()
}

// NewMemoryHost creates an empty in-memory host.
func NewMemoryHost() *MemoryHost {
	return &MemoryHost{
		accounts:    make(map[Address]*memAccount),
		transient:   make(map[slotKey]Hash),
		warmAddrs:   make(map[Address]bool),
		warmSlots:   make(map[slotKey]bool),
		destructs:   make(map[Address]bool),
		created:     make(map[Address]bool),
		blockHashes: make(map[uint64]Hash),
	}
}

func (h *MemoryHost) account(addr Address) *memAccount {
	return h.accounts[addr]
}

// mutAccount returns the account for addr, creating an empty one (and
// journaling the creation) if absent.
func (h *MemoryHost) mutAccount(addr Address) *memAccount {
	if acct := h.accounts[addr]; acct != nil {
		return acct
	}
	acct := &memAccount{
		storage: make(map[Hash]Hash),
		origin:  make(map[Hash]Hash),
	}
	h.accounts[addr] = acct
	h.journal = append(h.journal, func() { delete(h.accounts, addr) })
	return acct
}

// ---------------------------------------------------------------------------
// Accounts

// AccountExists reports whether addr is non-empty: nonzero balance, nonce
// or code.
func (h *MemoryHost) AccountExists(addr Address) bool {
	acct := h.account(addr)
	if acct == nil {
		return false
	}
	return !acct.balance.IsZero() || acct.nonce != 0 || len(acct.code) != 0
}

func (h *MemoryHost) GetBalance(addr Address) *uint256.Int {
	if acct := h.account(addr); acct != nil {
		return new(uint256.Int).Set(&acct.balance)
	}
	return new(uint256.Int)
}

func (h *MemoryHost) AddBalance(addr Address, amount *uint256.Int) {
	acct := h.mutAccount(addr)
	prev := acct.balance
	h.journal = append(h.journal, func() { acct.balance = prev })
	acct.balance.Add(&acct.balance, amount)
}

func (h *MemoryHost) SubBalance(addr Address, amount *uint256.Int) {
	acct := h.mutAccount(addr)
	prev := acct.balance
	h.journal = append(h.journal, func() { acct.balance = prev })
	acct.balance.Sub(&acct.balance, amount)
}

// SetBalance overwrites addr's balance. Intended for test and CLI setup.
func (h *MemoryHost) SetBalance(addr Address, balance *uint256.Int) {
	acct := h.mutAccount(addr)
	prev := acct.balance
	h.journal = append(h.journal, func() { acct.balance = prev })
	acct.balance.Set(balance)
}

func (h *MemoryHost) GetNonce(addr Address) uint64 {
	if acct := h.account(addr); acct != nil {
		return acct.nonce
	}
	return 0
}

func (h *MemoryHost) SetNonce(addr Address, nonce uint64) {
	acct := h.mutAccount(addr)
	prev := acct.nonce
	h.journal = append(h.journal, func() { acct.nonce = prev })
	acct.nonce = nonce
}

func (h *MemoryHost) GetCode(addr Address) []byte {
	if acct := h.account(addr); acct != nil {
		return acct.code
	}
	return nil
}

func (h *MemoryHost) GetCodeSize(addr Address) int {
	return len(h.GetCode(addr))
}

func (h *MemoryHost) GetCodeHash(addr Address) Hash {
	acct := h.account(addr)
	if acct == nil {
		return Hash{}
	}
	if len(acct.code) == 0 {
		return emptyCodeHash
	}
	return Keccak256(acct.code)
}

func (h *MemoryHost) SetCode(addr Address, code []byte) {
	acct := h.mutAccount(addr)
	prev := acct.code
	h.journal = append(h.journal, func() { acct.code = prev })
	acct.code = code
}

func (h *MemoryHost) CreateAccount(addr Address) {
	prev, existed := h.accounts[addr]
	wasCreated := h.created[addr]
	h.journal = append(h.journal, func() {
		if existed {
			h.accounts[addr] = prev
		} else {
			delete(h.accounts, addr)
		}
		h.created[addr] = wasCreated
	})

	acct := &memAccount{
		storage: make(map[Hash]Hash),
		origin:  make(map[Hash]Hash),
	}
	if existed {
		acct.balance = prev.balance
	}
	h.accounts[addr] = acct
	h.created[addr] = true
}

// ---------------------------------------------------------------------------
// Storage

func (h *MemoryHost) GetStorage(addr Address, key Hash) Hash {
	if acct := h.account(addr); acct != nil {
		return acct.storage[key]
	}
	return Hash{}
}

func (h *MemoryHost) SetStorage(addr Address, key, value Hash) StorageStatus {
	acct := h.mutAccount(addr)
	current := acct.storage[key]

	original, dirty := acct.origin[key]
	if !dirty {
		original = current
		acct.origin[key] = current
	}

	h.journal = append(h.journal, func() {
		if current == (Hash{}) {
			delete(acct.storage, key)
		} else {
			acct.storage[key] = current
		}
	})
	if value == (Hash{}) {
		delete(acct.storage, key)
	} else {
		acct.storage[key] = value
	}

	return GetStorageStatus(original, current, value)
}

func (h *MemoryHost) GetTransientStorage(addr Address, key Hash) Hash {
	return h.transient[slotKey{addr, key}]
}

func (h *MemoryHost) SetTransientStorage(addr Address, key, value Hash) {
	sk := slotKey{addr, key}
	prev, existed := h.transient[sk]
	h.journal = append(h.journal, func() {
		if existed {
			h.transient[sk] = prev
		} else {
			delete(h.transient, sk)
		}
	})
	if value == (Hash{}) {
		delete(h.transient, sk)
	} else {
		h.transient[sk] = value
	}
}

// ---------------------------------------------------------------------------
// Access lists

func (h *MemoryHost) AccessAccount(addr Address) AccessStatus {
	if h.warmAddrs[addr] {
		return WarmAccess
	}
	h.warmAddrs[addr] = true
	h.journal = append(h.journal, func() { delete(h.warmAddrs, addr) })
	return ColdAccess
}

func (h *MemoryHost) AccessSlot(addr Address, key Hash) AccessStatus {
	sk := slotKey{addr, key}
	if h.warmSlots[sk] {
		return WarmAccess
	}
	h.warmSlots[sk] = true
	h.journal = append(h.journal, func() { delete(h.warmSlots, sk) })
	return ColdAccess
}

// ---------------------------------------------------------------------------
// Effects

func (h *MemoryHost) EmitLog(log Log) {
	h.journal = append(h.journal, func() { h.logs = h.logs[:len(h.logs)-1] })
	h.logs = append(h.logs, log)
}

// Logs returns every log emitted and not reverted so far.
func (h *MemoryHost) Logs() []Log {
	return h.logs
}

func (h *MemoryHost) SelfDestruct(addr, beneficiary Address) bool {
	already := h.destructs[addr]

	balance := h.GetBalance(addr)
	h.AddBalance(beneficiary, balance)
	h.SubBalance(addr, balance)

	if !already {
		h.destructs[addr] = true
		h.journal = append(h.journal, func() { delete(h.destructs, addr) })
	}
	return !already
}

func (h *MemoryHost) GetBlockHash(number uint64) Hash {
	return h.blockHashes[number]
}

// SetBlockHash records a block hash for GetBlockHash lookups.
func (h *MemoryHost) SetBlockHash(number uint64, hash Hash) {
	h.blockHashes[number] = hash
}

// ---------------------------------------------------------------------------
// Journaling

func (h *MemoryHost) Snapshot() int {
	return len(h.journal)
}

func (h *MemoryHost) RevertToSnapshot(id int) {
	for i := len(h.journal) - 1; i >= id; i-- {
		h.journal[i]()
	}
	h.journal = h.journal[:id]
}

// FinaliseTx applies self-destructs and resets per-transaction state:
// the journal, warm sets, transient storage and storage origins. Logs
// are kept.
func (h *MemoryHost) FinaliseTx() {
	for addr := range h.destructs {
		if h.created[addr] || h.LegacySelfDestruct {
			delete(h.accounts, addr)
		}
	}
	for _, acct := range h.accounts {
		clear(acct.origin)
	}
	clear(h.destructs)
	clear(h.created)
	clear(h.transient)
	clear(h.warmAddrs)
	clear(h.warmSlots)
	h.journal = h.journal[:0]
}
