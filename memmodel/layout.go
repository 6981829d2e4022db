package memmodel

// AccountLayout holds the compile-time byte offsets of the fixed-size
// account-info header every deserialized account is laid out with.
const (
	AccountDupInfo      int64 = 0
	AccountIsSigner     int64 = 1
	AccountIsWritable   int64 = 2
	AccountExecutable   int64 = 3
	AccountPadding      int64 = 4
	AccountPubkey       int64 = 8
	AccountPubkeyLen    int64 = 32
	AccountOwner        int64 = 40
	AccountOwnerLen     int64 = 32
	AccountLamports     int64 = 72
	AccountDataLen      int64 = 80
	AccountDataOffset   int64 = 88
	AccountReallocPad   int64 = 10240
	AccountRentEpochLen int64 = 8

	// AccountHeaderSize is the total header size in bytes, before account
	// data begins.
	AccountHeaderSize int64 = 88
)

// HeapLayout holds the compile-time byte layout of the heap region used
// by generated sBPF programs.
const (
	HeapBase int64 = 0x300000000

	AccountTableOffset int64 = 0
	AccountTableSize   int64 = 512 // 64 accounts * 8 bytes

	CpiOffset int64 = 0x100
	CpiSize   int64 = 0xF00

	EventOffset int64 = 0x1000
	EventSize   int64 = 0x1000

	ScratchOffset int64 = 0x2000
)
