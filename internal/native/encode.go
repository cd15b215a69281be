package native

// Hand-written instruction encoders. Each encoder is bit-exact for the
// one opcode form it documents; the _8/_32 suffix is the operand size.
// Jumps and calls with unknown targets emit a zeroed rel32 and return
// the displacement offset for later backpatching.

// Condition codes for the two-byte 0F 8x jcc family.
const (
	ccE  byte = 0x84 // je
	ccNE byte = 0x85 // jne
	ccL  byte = 0x8C // jl
	ccGE byte = 0x8D // jge
	ccLE byte = 0x8E // jle
	ccG  byte = 0x8F // jg
)

func (g *Generator) emit(b ...byte) {
	g.buf = append(g.buf, b...)
}

func (g *Generator) emitU32(v uint32) {
	g.emit(byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// rexRB emits a REX prefix when either operand lives in the extended
// register bank. reg is the ModRM reg field, rm the r/m field.
func (g *Generator) rexRB(reg, rm Register) {
	p := byte(0x40)
	if reg.extended() {
		p |= 0x04
	}
	if rm.extended() {
		p |= 0x01
	}
	if p != 0x40 {
		g.emit(p)
	}
}

func modrmReg(reg, rm Register) byte {
	return 0xC0 | reg.low()<<3 | rm.low()
}

// modrmSlot encodes [rbp+disp32] for the given reg field.
func modrmSlot(reg Register) byte {
	return 0x80 | reg.low()<<3 | 0x05
}

// movImm_32 loads a 32-bit immediate. Zero always lowers to the
// two-byte XOR form, never to the five-byte B8 imm32 form.
func (g *Generator) movImm_32(r Register, v int32) {
	if v == 0 {
		g.xorSelf_32(r)
		return
	}
	if r.extended() {
		g.emit(0x41)
	}
	g.emit(0xB8 + r.low())
	g.emitU32(uint32(v))
}

// xorSelf_32 zeroes a register: 31 /r with reg == rm.
func (g *Generator) xorSelf_32(r Register) {
	g.rexRB(r, r)
	g.emit(0x31, modrmReg(r, r))
}

// loadSlot_32: mov r32, dword [rbp+off].
func (g *Generator) loadSlot_32(r Register, off int32) {
	g.rexRB(r, RAX)
	g.emit(0x8B, modrmSlot(r))
	g.emitU32(uint32(off))
}

// storeSlot_32: mov dword [rbp+off], r32.
func (g *Generator) storeSlot_32(r Register, off int32) {
	g.rexRB(r, RAX)
	g.emit(0x89, modrmSlot(r))
	g.emitU32(uint32(off))
}

// loadSlot_8: mov r8, byte [rbp+off].
func (g *Generator) loadSlot_8(r Register, off int32) {
	g.rexRB(r, RAX)
	g.emit(0x8A, modrmSlot(r))
	g.emitU32(uint32(off))
}

// storeSlot_8: mov byte [rbp+off], r8.
func (g *Generator) storeSlot_8(r Register, off int32) {
	g.rexRB(r, RAX)
	g.emit(0x88, modrmSlot(r))
	g.emitU32(uint32(off))
}

// loadSlot_64: mov r64, qword [rbp+off]. Used for function pointers.
func (g *Generator) loadSlot_64(r Register, off int32) {
	p := byte(0x48)
	if r.extended() {
		p |= 0x04
	}
	g.emit(p, 0x8B, modrmSlot(r))
	g.emitU32(uint32(off))
}

func (g *Generator) addReg_32(dst, src Register) {
	g.rexRB(src, dst)
	g.emit(0x01, modrmReg(src, dst))
}

func (g *Generator) subReg_32(dst, src Register) {
	g.rexRB(src, dst)
	g.emit(0x29, modrmReg(src, dst))
}

func (g *Generator) imulReg_32(dst, src Register) {
	g.rexRB(dst, src)
	g.emit(0x0F, 0xAF, modrmReg(dst, src))
}

// idiv_32 divides edx:eax by the operand register, sign-extending eax
// through cdq first. Quotient lands in eax.
func (g *Generator) idiv_32(r Register) {
	g.emit(0x99) // cdq
	g.rexRB(RAX, r)
	g.emit(0xF7, 0xF8|r.low())
}

func (g *Generator) cmpReg_32(a, b Register) {
	g.rexRB(b, a)
	g.emit(0x39, modrmReg(b, a))
}

// jcc32 emits a conditional jump with a zero rel32 and returns the
// displacement offset for backpatching.
func (g *Generator) jcc32(cc byte) int {
	g.emit(0x0F, cc)
	pos := len(g.buf)
	g.emitU32(0)
	return pos
}

// jmp32 emits an unconditional forward jump placeholder.
func (g *Generator) jmp32() int {
	g.emit(0xE9)
	pos := len(g.buf)
	g.emitU32(0)
	return pos
}

// jmpTo emits a backward jump to a known buffer offset.
func (g *Generator) jmpTo(target int) {
	g.emit(0xE9)
	g.emitU32(uint32(int32(target - (len(g.buf) + 4))))
}

// patch32 resolves a placeholder rel32 against the current buffer end.
func (g *Generator) patch32(pos int) {
	rel := int32(len(g.buf) - (pos + 4))
	g.buf[pos] = byte(rel)
	g.buf[pos+1] = byte(rel >> 8)
	g.buf[pos+2] = byte(rel >> 16)
	g.buf[pos+3] = byte(rel >> 24)
}

func (g *Generator) patch32At(pos int, rel int32) {
	g.buf[pos] = byte(rel)
	g.buf[pos+1] = byte(rel >> 8)
	g.buf[pos+2] = byte(rel >> 16)
	g.buf[pos+3] = byte(rel >> 24)
}

// callRel32 emits a direct call and records the site for resolution
// once every function address is known.
func (g *Generator) callRel32(name string) {
	g.emit(0xE8)
	g.calls = append(g.calls, patchSite{pos: len(g.buf), name: name})
	g.emitU32(0)
}

// callReg: call r64 indirect.
func (g *Generator) callReg(r Register) {
	if r.extended() {
		g.emit(0x41)
	}
	g.emit(0xFF, 0xD0|r.low())
}

// leaRIP_64 emits lea r64, [rip+disp32] with a zero displacement and
// returns the displacement offset; the literal pool pass patches it.
func (g *Generator) leaRIP_64(r Register) int {
	p := byte(0x48)
	if r.extended() {
		p |= 0x04
	}
	g.emit(p, 0x8D, r.low()<<3|0x05)
	pos := len(g.buf)
	g.emitU32(0)
	return pos
}

// loadIndexed_32: mov r32, dword [base+index*8].
func (g *Generator) loadIndexed_32(dst, base, index Register) {
	g.sibPrefix(dst, base, index)
	g.emit(0x8B, dst.low()<<3|0x04, 0xC0|index.low()<<3|base.low())
}

// storeIndexed_32: mov dword [base+index*8], r32.
func (g *Generator) storeIndexed_32(src, base, index Register) {
	g.sibPrefix(src, base, index)
	g.emit(0x89, src.low()<<3|0x04, 0xC0|index.low()<<3|base.low())
}

func (g *Generator) sibPrefix(reg, base, index Register) {
	p := byte(0x40)
	if reg.extended() {
		p |= 0x04
	}
	if index.extended() {
		p |= 0x02
	}
	if base.extended() {
		p |= 0x01
	}
	if p != 0x40 {
		g.emit(p)
	}
}

// leaSlot_64: lea r64, [rbp+off].
func (g *Generator) leaSlot_64(r Register, off int32) {
	p := byte(0x48)
	if r.extended() {
		p |= 0x04
	}
	g.emit(p, 0x8D, modrmSlot(r))
	g.emitU32(uint32(off))
}

func (g *Generator) prologue(frame int32) {
	g.emit(0x55)             // push rbp
	g.emit(0x48, 0x89, 0xE5) // mov rbp, rsp
	if frame > 0 {
		g.emit(0x48, 0x81, 0xEC) // sub rsp, imm32
		g.emitU32(uint32(frame))
	}
}

func (g *Generator) epilogue() {
	g.emit(0xC9) // leave
	g.emit(0xC3) // ret
}

func (g *Generator) syscall() {
	g.emit(0x0F, 0x05)
}
