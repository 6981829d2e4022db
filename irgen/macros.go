package irgen

import (
	"github.com/openSVM/solisp-go/ast"
	"github.com/openSVM/solisp-go/ir"
)

// macroHandler lowers one domain-macro call form to IR, given the form
// itself (for line-number diagnostics) and its argument nodes.
type macroHandler func(gs *GeneratorState, form *ast.Node, args []*ast.Node) (ir.Reg, error)

// macroTable is the name -> handler dispatch table genList consults
// after the core special forms and before the generic-call fallback.
// A flat map keeps lookup O(1) regardless of how many macro families
// grow, rather than a long if name == "..." chain.
// It is filled in init because its handlers reach back into genList.
var macroTable map[string]macroHandler

func init() { macroTable = macroTableEntries() }

func macroTableEntries() map[string]macroHandler { return map[string]macroHandler{
	// --- struct macros ---
	"define-struct":    macroDefineStruct,
	"struct-get":       macroStructGet,
	"struct-set":       macroStructSet,
	"struct-size":      macroStructSize,
	"struct-offset":    macroStructOffset,
	"struct-field-size": macroStructFieldSize,
	"struct-ptr":       macroStructPtr,
	"struct-idl":       macroStructIdl,

	// --- borsh ---
	"borsh-serialize":   macroBorshSerialize,
	"borsh-deserialize": macroBorshDeserialize,
	"borsh-size":        macroBorshSize,

	// --- raw memory ---
	"mem-load":   macroMemLoad(8),
	"mem-load1":  macroMemLoad(1),
	"mem-load2":  macroMemLoad(2),
	"mem-load4":  macroMemLoad(4),
	"mem-store":  macroMemStore(8),
	"mem-store1": macroMemStore(1),
	"mem-store2": macroMemStore(2),
	"mem-store4": macroMemStore(4),

	"zerocopy-load":  macroZerocopyLoad,
	"zerocopy-store": macroZerocopyStore,

	// --- account access ---
	"account-is-signer":   macroAccountField(memAccountIsSigner),
	"account-is-writable": macroAccountField(memAccountIsWritable),
	"account-executable":  macroAccountField(memAccountExecutable),
	"account-pubkey":      macroAccountPtrField(memAccountPubkey, 32),
	"account-owner":       macroAccountPtrField(memAccountOwner, 32),
	"account-lamports":    macroAccountField(memAccountLamports),
	"account-data-len":    macroAccountField(memAccountDataLen),
	"account-data":        macroAccountDataPtr,
	"account-ptr":         macroAccountPtr,

	"is-signer":   macroAccountField(memAccountIsSigner),
	"is-writable": macroAccountField(memAccountIsWritable),

	"assert-signer":   macroAssertSigner,
	"assert-writable": macroAssertWritable,
	"assert-owner":    macroAssertOwner,

	// --- logging / syscalls ---
	"sol_log_":                  macroSolLog,
	"sol_log_64_":               macroSolLog64,
	"sol_log_pubkey":            macroSolLogPubkey,
	"sol_log_compute_units_":    macroSolLogComputeUnits,
	"syscall":                   macroSyscall,
	"msg":                       macroMsg,
	"log":                       macroMsg,

	// --- CPI ---
	"system-transfer":        macroSystemTransfer,
	"system-create-account":  macroSystemCreateAccount,
	"system-allocate":        macroSystemAllocate(false),
	"system-allocate-signed": macroSystemAllocate(true),
	"system-assign":          macroSystemAssign(false),
	"system-assign-signed":   macroSystemAssign(true),
	"spl-token-transfer":        macroSplTokenTransfer(false),
	"spl-token-transfer-signed": macroSplTokenTransfer(true),
	"spl-token-mint-to":         macroSplTokenMintTo,
	"spl-token-burn":            macroSplTokenBurn,
	"spl-close-account":         macroSplCloseAccount(false),
	"spl-close-account-signed":  macroSplCloseAccount(true),
	"invoke":                    macroInvoke(false),
	"invoke-signed":             macroInvoke(true),
	"cpi-invoke":                macroInvoke(false),
	"cpi-invoke-signed":         macroInvoke(true),
	"build-instruction":         macroBuildInstruction,

	// --- PDA ---
	"derive-pda":      macroDerivePda,
	"create-pda":       macroCreatePda,
	"find-pda":         macroFindPda,
	"get-ata":          macroGetAta,
	"get-pda-bump":     macroGetPdaBump,
	"pda-cache-init":   macroPdaCacheInit,
	"pda-cache-store":  macroPdaCacheStore,
	"pda-cache-lookup": macroPdaCacheLookup,

	// --- zero-copy alias covered above ---

	// --- events ---
	"emit-event": macroEmitEvent,
	"emit-log":   macroEmitLog,

	// --- sysvars ---
	"get-clock-timestamp": macroGetClockTimestamp,
	"get-slot":            macroGetSlot,
	"clock-slot":          macroGetSlot,
	"get-epoch":           macroGetEpoch,
	"rent-minimum-balance": macroRentMinimumBalance,

	// --- instruction introspection ---
	"instruction-count":         macroInstructionCount,
	"current-instruction-index": macroCurrentInstructionIndex,
	"assert-not-cpi":            macroAssertNotCpi,

	// --- errors ---
	"anchor-error": macroAnchorError,
	"require":      macroRequire,

	// --- verification-only ---
	"assume": macroAssume,
}}

// accountFieldOffset enumerates the fixed account-header offsets the
// account-* macro family reads, named independent of memmodel's own
// constant names so the table above reads as a simple lookup.
type accountFieldOffset = int64

const (
	memAccountIsSigner   = 1
	memAccountIsWritable = 2
	memAccountExecutable = 3
	memAccountPubkey     = 8
	memAccountOwner      = 40
	memAccountLamports   = 72
	memAccountDataLen    = 80
)
