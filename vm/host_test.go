package vm

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestGetStorageStatus(t *testing.T) {
	var (
		zero = Hash{}
		x    = Hash{0x01}
		y    = Hash{0x02}
		z    = Hash{0x03}
	)
	tests := []struct {
		name                    string
		original, current, next Hash
		want                    StorageStatus
	}{
		{"noop zero", zero, zero, zero, StorageAssigned},
		{"noop nonzero", x, x, x, StorageAssigned},
		{"added", zero, zero, x, StorageAdded},
		{"deleted", x, x, zero, StorageDeleted},
		{"modified", x, x, y, StorageModified},
		{"deleted added", x, zero, y, StorageDeletedAdded},
		{"modified deleted", x, y, zero, StorageModifiedDeleted},
		{"deleted restored", x, zero, x, StorageDeletedRestored},
		{"added deleted", zero, x, zero, StorageAddedDeleted},
		{"modified restored", x, y, x, StorageModifiedRestored},
		{"dirty reassign", x, y, z, StorageAssigned},
		{"dirty reassign from added", zero, x, y, StorageAssigned},
		{"dirty noop", x, y, y, StorageAssigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetStorageStatus(tt.original, tt.current, tt.next)
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMemoryHostBalance(t *testing.T) {
	host := NewMemoryHost()
	addr := Address{0x01}

	if got := host.GetBalance(addr); !got.IsZero() {
		t.Errorf("fresh account balance = %v, want 0", got)
	}

	host.AddBalance(addr, uint256.NewInt(100))
	host.SubBalance(addr, uint256.NewInt(30))
	if got := host.GetBalance(addr); got.Uint64() != 70 {
		t.Errorf("balance = %v, want 70", got)
	}

	// The returned value must be a copy.
	host.GetBalance(addr).SetUint64(9999)
	if got := host.GetBalance(addr); got.Uint64() != 70 {
		t.Errorf("balance after mutating copy = %v, want 70", got)
	}
}

func TestMemoryHostAccountExists(t *testing.T) {
	host := NewMemoryHost()
	addr := Address{0x01}

	if host.AccountExists(addr) {
		t.Error("unknown account exists")
	}
	host.SetNonce(addr, 0)
	if host.AccountExists(addr) {
		t.Error("empty account exists")
	}
	host.SetNonce(addr, 1)
	if !host.AccountExists(addr) {
		t.Error("account with nonce does not exist")
	}
}

func TestMemoryHostCodeHash(t *testing.T) {
	host := NewMemoryHost()
	addr := Address{0x01}

	if got := host.GetCodeHash(addr); got != (Hash{}) {
		t.Errorf("unknown account code hash = %v, want zero", got)
	}

	host.SetNonce(addr, 1)
	if got := host.GetCodeHash(addr); got != emptyCodeHash {
		t.Errorf("codeless account hash = %v, want empty code hash", got)
	}

	code := []byte{byte(PUSH0), byte(STOP)}
	host.SetCode(addr, code)
	if got, want := host.GetCodeHash(addr), Keccak256(code); got != want {
		t.Errorf("code hash = %v, want %v", got, want)
	}
	if got := host.GetCodeSize(addr); got != 2 {
		t.Errorf("code size = %d, want 2", got)
	}
}

func TestMemoryHostSnapshotRevert(t *testing.T) {
	host := NewMemoryHost()
	addr := Address{0x01}
	key := Hash{0xaa}

	host.AddBalance(addr, uint256.NewInt(50))
	host.SetNonce(addr, 1)

	snap := host.Snapshot()

	host.AddBalance(addr, uint256.NewInt(25))
	host.SetNonce(addr, 2)
	host.SetCode(addr, []byte{byte(STOP)})
	host.SetStorage(addr, key, Hash{0x01})
	host.SetTransientStorage(addr, key, Hash{0x02})
	host.EmitLog(Log{Address: addr})
	host.AccessAccount(addr)

	host.RevertToSnapshot(snap)

	if got := host.GetBalance(addr); got.Uint64() != 50 {
		t.Errorf("balance = %v, want 50", got)
	}
	if got := host.GetNonce(addr); got != 1 {
		t.Errorf("nonce = %d, want 1", got)
	}
	if got := host.GetCode(addr); len(got) != 0 {
		t.Errorf("code = %x, want empty", got)
	}
	if got := host.GetStorage(addr, key); got != (Hash{}) {
		t.Errorf("storage = %v, want zero", got)
	}
	if got := host.GetTransientStorage(addr, key); got != (Hash{}) {
		t.Errorf("transient = %v, want zero", got)
	}
	if got := len(host.Logs()); got != 0 {
		t.Errorf("logs = %d, want 0", got)
	}
	if got := host.AccessAccount(addr); got != ColdAccess {
		t.Error("account still warm after revert")
	}
}

func TestMemoryHostNestedSnapshots(t *testing.T) {
	host := NewMemoryHost()
	addr := Address{0x01}

	host.AddBalance(addr, uint256.NewInt(1))
	outer := host.Snapshot()
	host.AddBalance(addr, uint256.NewInt(2))
	inner := host.Snapshot()
	host.AddBalance(addr, uint256.NewInt(4))

	host.RevertToSnapshot(inner)
	if got := host.GetBalance(addr); got.Uint64() != 3 {
		t.Errorf("after inner revert balance = %v, want 3", got)
	}
	host.RevertToSnapshot(outer)
	if got := host.GetBalance(addr); got.Uint64() != 1 {
		t.Errorf("after outer revert balance = %v, want 1", got)
	}
}

func TestMemoryHostStorageStatusSequence(t *testing.T) {
	host := NewMemoryHost()
	addr := Address{0x01}
	key := Hash{0xaa}
	x := Hash{0x01}
	y := Hash{0x02}

	// Fresh slot within one transaction.
	steps := []struct {
		value Hash
		want  StorageStatus
	}{
		{x, StorageAdded},
		{y, StorageAssigned},
		{Hash{}, StorageAddedDeleted},
		{x, StorageAdded},
	}
	for i, s := range steps {
		if got := host.SetStorage(addr, key, s.value); got != s.want {
			t.Errorf("step %d: got %v, want %v", i, got, s.want)
		}
	}

	// Commit: the slot now holds x, and x becomes the original value.
	host.FinaliseTx()

	steps = []struct {
		value Hash
		want  StorageStatus
	}{
		{y, StorageModified},
		{x, StorageModifiedRestored},
		{Hash{}, StorageDeleted},
		{x, StorageDeletedRestored},
	}
	for i, s := range steps {
		if got := host.SetStorage(addr, key, s.value); got != s.want {
			t.Errorf("committed step %d: got %v, want %v", i, got, s.want)
		}
	}
}

func TestMemoryHostAccessLists(t *testing.T) {
	host := NewMemoryHost()
	addr := Address{0x01}
	key := Hash{0xaa}

	if got := host.AccessAccount(addr); got != ColdAccess {
		t.Error("first account access not cold")
	}
	if got := host.AccessAccount(addr); got != WarmAccess {
		t.Error("second account access not warm")
	}
	if got := host.AccessSlot(addr, key); got != ColdAccess {
		t.Error("first slot access not cold")
	}
	if got := host.AccessSlot(addr, key); got != WarmAccess {
		t.Error("second slot access not warm")
	}

	host.FinaliseTx()
	if got := host.AccessAccount(addr); got != ColdAccess {
		t.Error("account still warm after finalise")
	}
	if got := host.AccessSlot(addr, key); got != ColdAccess {
		t.Error("slot still warm after finalise")
	}
}

func TestMemoryHostTransientStorage(t *testing.T) {
	host := NewMemoryHost()
	addr := Address{0x01}
	key := Hash{0xaa}
	val := Hash{0x01}

	host.SetTransientStorage(addr, key, val)
	if got := host.GetTransientStorage(addr, key); got != val {
		t.Errorf("got %v, want %v", got, val)
	}

	host.FinaliseTx()
	if got := host.GetTransientStorage(addr, key); got != (Hash{}) {
		t.Errorf("transient survives finalise: %v", got)
	}
}

func TestMemoryHostSelfDestruct(t *testing.T) {
	host := NewMemoryHost()
	victim := Address{0x01}
	heir := Address{0x02}

	host.SetNonce(victim, 1)
	host.SetBalance(victim, uint256.NewInt(77))
	host.FinaliseTx()

	if !host.SelfDestruct(victim, heir) {
		t.Error("first self destruct reported false")
	}
	if host.SelfDestruct(victim, heir) {
		t.Error("second self destruct reported true")
	}
	if got := host.GetBalance(victim); !got.IsZero() {
		t.Errorf("victim balance = %v, want 0", got)
	}
	if got := host.GetBalance(heir); got.Uint64() != 77 {
		t.Errorf("heir balance = %v, want 77", got)
	}

	// Not created this transaction, so the account survives finalise.
	host.FinaliseTx()
	if !host.AccountExists(victim) {
		t.Error("pre-existing account removed")
	}
}

func TestMemoryHostSelfDestructCreated(t *testing.T) {
	host := NewMemoryHost()
	victim := Address{0x01}
	heir := Address{0x02}

	host.CreateAccount(victim)
	host.SetNonce(victim, 1)
	host.SelfDestruct(victim, heir)
	host.FinaliseTx()

	if host.AccountExists(victim) {
		t.Error("account created in transaction not removed")
	}
}

func TestMemoryHostSelfDestructLegacy(t *testing.T) {
	host := NewMemoryHost()
	host.LegacySelfDestruct = true
	victim := Address{0x01}

	host.SetNonce(victim, 1)
	host.FinaliseTx()

	host.SelfDestruct(victim, Address{0x02})
	host.FinaliseTx()

	if host.AccountExists(victim) {
		t.Error("account survived legacy self destruct")
	}
}

func TestMemoryHostSelfDestructRevert(t *testing.T) {
	host := NewMemoryHost()
	victim := Address{0x01}
	heir := Address{0x02}

	host.SetBalance(victim, uint256.NewInt(10))
	snap := host.Snapshot()
	host.SelfDestruct(victim, heir)
	host.RevertToSnapshot(snap)

	if got := host.GetBalance(victim); got.Uint64() != 10 {
		t.Errorf("victim balance = %v, want 10", got)
	}
	if got := host.GetBalance(heir); !got.IsZero() {
		t.Errorf("heir balance = %v, want 0", got)
	}
	host.FinaliseTx()
	if !host.AccountExists(victim) {
		t.Error("reverted self destruct still removed account")
	}
}

func TestMemoryHostCreateAccountKeepsBalance(t *testing.T) {
	host := NewMemoryHost()
	addr := Address{0x01}

	host.SetBalance(addr, uint256.NewInt(42))
	host.SetStorage(addr, Hash{0xaa}, Hash{0x01})
	host.FinaliseTx()

	host.CreateAccount(addr)
	if got := host.GetBalance(addr); got.Uint64() != 42 {
		t.Errorf("balance = %v, want 42", got)
	}
	if got := host.GetStorage(addr, Hash{0xaa}); got != (Hash{}) {
		t.Errorf("storage = %v, want zero", got)
	}
}

func TestMemoryHostLogs(t *testing.T) {
	host := NewMemoryHost()
	addr := Address{0x01}

	host.EmitLog(Log{Address: addr, Topics: []Hash{{0x01}}, Data: []byte{0xaa}})
	host.EmitLog(Log{Address: addr})

	logs := host.Logs()
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	if logs[0].Address != addr || len(logs[0].Topics) != 1 || logs[0].Data[0] != 0xaa {
		t.Errorf("unexpected first log: %+v", logs[0])
	}
}

func TestMemoryHostBlockHash(t *testing.T) {
	host := NewMemoryHost()
	want := Hash{0x01, 0x02}

	host.SetBlockHash(100, want)
	if got := host.GetBlockHash(100); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got := host.GetBlockHash(99); got != (Hash{}) {
		t.Errorf("unknown block hash = %v, want zero", got)
	}
}
