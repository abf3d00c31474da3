package vm

import (
	"encoding/hex"
	"hash"
	"sync"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// ---------------------------------------------------------------------------
// Value types shared across the engine
// ---------------------------------------------------------------------------

// Address is the 160-bit account address.
type Address [20]byte

// Hash is a 256-bit hash value (code hashes, storage keys, block hashes).
type Hash [32]byte

// Bytes returns the address as a byte slice.
func (a Address) Bytes() []byte { return a[:] }

// Word returns the address left-padded into a 256-bit word.
func (a Address) Word() *uint256.Int {
	return new(uint256.Int).SetBytes(a[:])
}

// String returns the 0x-prefixed hex form of the address.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// AddressFromWord truncates a 256-bit word to its low 20 bytes.
func AddressFromWord(w *uint256.Int) Address {
	b := w.Bytes32()
	var a Address
	copy(a[:], b[12:])
	return a
}

// Bytes returns the hash as a byte slice.
func (h Hash) Bytes() []byte { return h[:] }

// Word returns the hash as a 256-bit word.
func (h Hash) Word() *uint256.Int {
	return new(uint256.Int).SetBytes(h[:])
}

// String returns the 0x-prefixed hex form of the hash.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// ---------------------------------------------------------------------------
// Keccak hashing
// ---------------------------------------------------------------------------

// keccakState wraps sha3.state. In addition to the usual hash methods it
// also supports Read to get a variable amount of data from the hash state.
// Read is faster than Sum because it doesn't copy the internal state.
type keccakState interface {
	hash.Hash
	Read([]byte) (int, error)
}

var hasherPool = sync.Pool{
	New: func() interface{} {
		return sha3.NewLegacyKeccak256().(keccakState)
	},
}

// Keccak256 computes the keccak256 hash of the concatenation of data.
func Keccak256(data ...[]byte) Hash {
	h := hasherPool.Get().(keccakState)
	defer hasherPool.Put(h)
	h.Reset()
	for _, d := range data {
		h.Write(d)
	}
	var out Hash
	h.Read(out[:])
	return out
}

// emptyCodeHash is the keccak256 hash of empty input, the code hash of an
// existing account without code.
var emptyCodeHash = Keccak256(nil)

// getData returns a slice from data based on offset and size, padded with
// zero bytes up to size. The lookup never panics on out-of-range offsets.
func getData(data []byte, offset, size uint64) []byte {
	length := uint64(len(data))
	if offset > length {
		offset = length
	}
	end := offset + size
	if end > length {
		end = length
	}
	return rightPad(data[offset:end], int(size))
}

// rightPad zero-pads a slice to the given length.
func rightPad(slice []byte, l int) []byte {
	if l <= len(slice) {
		return slice
	}
	padded := make([]byte, l)
	copy(padded, slice)
	return padded
}
