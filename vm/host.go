package vm

import "github.com/holiman/uint256"

// ---------------------------------------------------------------------------
// Host interface

// AccessStatus reports whether an account or storage slot was already
// touched in the current transaction.
type AccessStatus bool

const (
	ColdAccess AccessStatus = false
	WarmAccess AccessStatus = true
)

// StorageStatus classifies the effect of a storage write with respect to
// the slot's original (transaction start) and current values. The gas and
// refund schedule of SSTORE is a pure function of this classification.
type StorageStatus int

const (
	StorageAssigned         StorageStatus = iota // no net schedule effect
	StorageAdded                                 // 0 -> 0 -> Z
	StorageDeleted                               // X -> X -> 0
	StorageModified                              // X -> X -> Z
	StorageDeletedAdded                          // X -> 0 -> Z, Z != X
	StorageModifiedDeleted                       // X -> Y -> 0
	StorageDeletedRestored                       // X -> 0 -> X
	StorageAddedDeleted                          // 0 -> Y -> 0
	StorageModifiedRestored                      // X -> Y -> X
)

var storageStatusNames = map[StorageStatus]string{
	StorageAssigned:         "assigned",
	StorageAdded:            "added",
	StorageDeleted:          "deleted",
	StorageModified:         "modified",
	StorageDeletedAdded:     "deleted-added",
	StorageModifiedDeleted:  "modified-deleted",
	StorageDeletedRestored:  "deleted-restored",
	StorageAddedDeleted:     "added-deleted",
	StorageModifiedRestored: "modified-restored",
}

func (s StorageStatus) String() string {
	if name, ok := storageStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

// GetStorageStatus classifies a write of value to a slot holding current,
// where original is the slot's value at transaction start.
func GetStorageStatus(original, current, value Hash) StorageStatus {
	if current == value {
		return StorageAssigned
	}
	zero := Hash{}
	if original == current {
		if original == zero {
			return StorageAdded
		}
		if value == zero {
			return StorageDeleted
		}
		return StorageModified
	}
	if original != zero {
		if current == zero {
			if value == original {
				return StorageDeletedRestored
			}
			return StorageDeletedAdded
		}
		if value == zero {
			return StorageModifiedDeleted
		}
		if value == original {
			return StorageModifiedRestored
		}
		return StorageAssigned
	}
	if value == zero {
		return StorageAddedDeleted
	}
	return StorageAssigned
}

// Log is one emitted log record.
type Log struct {
	Address Address
	Topics  []Hash
	Data    []byte
}

// Host supplies the account state and journaling the engine executes
// against. All operations are synchronous and infallible at the interface
// level: absent state reads as zero values, and opcodes define their own
// zero-value policy. Nested calls are not routed through the Host; the
// call coordinator in this package owns frame nesting.
type Host interface {
	// AccountExists reports whether addr exists and is non-empty under
	// the active fork's empty-account rules.
	AccountExists(addr Address) bool
	GetBalance(addr Address) *uint256.Int
	AddBalance(addr Address, amount *uint256.Int)
	SubBalance(addr Address, amount *uint256.Int)
	GetNonce(addr Address) uint64
	SetNonce(addr Address, nonce uint64)
	GetCode(addr Address) []byte
	GetCodeSize(addr Address) int
	GetCodeHash(addr Address) Hash
	SetCode(addr Address, code []byte)
	CreateAccount(addr Address)

	GetStorage(addr Address, key Hash) Hash
	// SetStorage writes value and classifies the write against the slot's
	// original and current values.
	SetStorage(addr Address, key, value Hash) StorageStatus
	GetTransientStorage(addr Address, key Hash) Hash
	SetTransientStorage(addr Address, key, value Hash)

	// AccessAccount and AccessSlot add to the transaction's warm sets,
	// returning the prior status.
	AccessAccount(addr Address) AccessStatus
	AccessSlot(addr Address, key Hash) AccessStatus

	EmitLog(log Log)
	// SelfDestruct marks addr for destruction, crediting its balance to
	// beneficiary. It reports whether addr was not already marked.
	SelfDestruct(addr, beneficiary Address) bool
	GetBlockHash(number uint64) Hash

	// Snapshot and RevertToSnapshot bracket the state effects of a frame.
	Snapshot() int
	RevertToSnapshot(id int)
}

// BlockContext carries the block-level fields visible to bytecode.
type BlockContext struct {
	Coinbase    Address
	GasLimit    uint64
	BlockNumber uint64
	Time        uint64
	PrevRandao  Hash
	BaseFee     *uint256.Int
	BlobBaseFee *uint256.Int
	ChainID     *uint256.Int
}

// TxContext carries the transaction-level fields visible to bytecode.
type TxContext struct {
	Origin     Address
	GasPrice   *uint256.Int
	BlobHashes []Hash
}
