package native

// Register is the closed x86-64 general-purpose register set. The value
// is the hardware encoding used in ModRM/SIB fields; bit 3 selects the
// REX-extended bank.
type Register uint8

const (
	RAX Register = 0
	RCX Register = 1
	RDX Register = 2
	RBX Register = 3
	RSP Register = 4
	RBP Register = 5
	RSI Register = 6
	RDI Register = 7
	R8  Register = 8
	R9  Register = 9
	R10 Register = 10
	R11 Register = 11
	R12 Register = 12
	R13 Register = 13
	R14 Register = 14
	R15 Register = 15
)

var regNames = [...]string{
	RAX: "rax", RCX: "rcx", RDX: "rdx", RBX: "rbx",
	RSP: "rsp", RBP: "rbp", RSI: "rsi", RDI: "rdi",
	R8: "r8", R9: "r9", R10: "r10", R11: "r11",
	R12: "r12", R13: "r13", R14: "r14", R15: "r15",
}

func (r Register) String() string {
	if int(r) < len(regNames) {
		return regNames[r]
	}
	return "reg?"
}

func (r Register) low() byte { return byte(r) & 7 }

func (r Register) extended() bool { return r >= R8 }

// argRegs is the System V AMD64 integer argument register order.
var argRegs = [6]Register{RDI, RSI, RDX, RCX, R8, R9}
