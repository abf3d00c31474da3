package vm

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

// Disassemble returns a human-readable listing of the code: a flat
// stream for legacy bytes, a header plus per-section listing for a
// structured container. Relative jump targets are resolved to absolute
// section offsets.
func Disassemble(code *Code) string {
	if !code.IsEOF() {
		return DisassembleBytes(code.Raw())
	}

	var sb strings.Builder
	c := code.Container()

	sb.WriteString(fmt.Sprintf("; structured container, %d code section(s), %d data byte(s)\n",
		len(c.Code), len(c.Data)))
	for i, t := range c.Types {
		if t.NonReturning() {
			sb.WriteString(fmt.Sprintf("; section %d: inputs=%d non-returning max_stack=%d\n",
				i, t.Inputs, t.MaxStackHeight))
		} else {
			sb.WriteString(fmt.Sprintf("; section %d: inputs=%d outputs=%d max_stack=%d\n",
				i, t.Inputs, t.Outputs, t.MaxStackHeight))
		}
	}

	for i, section := range c.Code {
		sb.WriteString(fmt.Sprintf("\n; code section %d:\n", i))
		writeListing(&sb, section)
	}
	return sb.String()
}

// DisassembleBytes returns a listing of a flat instruction stream.
func DisassembleBytes(code []byte) string {
	var sb strings.Builder
	writeListing(&sb, code)
	return sb.String()
}

func writeListing(sb *strings.Builder, code []byte) {
	offset := 0
	for offset < len(code) {
		line, size := disassembleInstruction(code, offset)
		sb.WriteString(fmt.Sprintf("%04X  %s\n", offset, line))
		offset += size
	}
}

// DisassembleInstruction renders the single instruction at offset.
func DisassembleInstruction(code []byte, offset int) string {
	line, _ := disassembleInstruction(code, offset)
	return line
}

// disassembleInstruction renders one instruction and reports its full
// encoded length. Truncated immediates render the bytes that exist and
// consume the rest of the stream.
func disassembleInstruction(code []byte, offset int) (string, int) {
	if offset >= len(code) {
		return "<end of code>", 0
	}

	op := Opcode(code[offset])

	switch {
	case op.IsPush():
		n := op.PushBytes()
		end := offset + 1 + n
		if end > len(code) {
			end = len(code)
		}
		imm := code[offset+1 : end]
		if len(imm) < n {
			return fmt.Sprintf("%s 0x%x ; truncated, %d of %d bytes", op, imm, len(imm), n), 1 + n
		}
		return fmt.Sprintf("%s 0x%x", op, imm), 1 + n

	case op == RJUMP || op == RJUMPI:
		delta, ok := readInt16(code, offset+1)
		if !ok {
			return fmt.Sprintf("%s ; truncated immediate", op), len(code) - offset
		}
		target := offset + 3 + int(delta)
		return fmt.Sprintf("%s %+d (-> %04X)", op, delta, target), 3

	case op == RJUMPV:
		if offset+1 >= len(code) {
			return "RJUMPV ; truncated immediate", len(code) - offset
		}
		count := int(code[offset+1]) + 1
		size := 2 + 2*count
		base := offset + size
		if offset+size > len(code) {
			return fmt.Sprintf("RJUMPV count=%d ; truncated table", count), len(code) - offset
		}
		targets := make([]string, count)
		for i := 0; i < count; i++ {
			delta := int16(binary.BigEndian.Uint16(code[offset+2+2*i:]))
			targets[i] = fmt.Sprintf("%+d (-> %04X)", delta, base+int(delta))
		}
		return fmt.Sprintf("RJUMPV [%s]", strings.Join(targets, ", ")), size

	case op == CALLF || op == JUMPF:
		section, ok := readUint16(code, offset+1)
		if !ok {
			return fmt.Sprintf("%s ; truncated immediate", op), len(code) - offset
		}
		return fmt.Sprintf("%s section=%d", op, section), 3

	case op == DATALOADN:
		dataOffset, ok := readUint16(code, offset+1)
		if !ok {
			return "DATALOADN ; truncated immediate", len(code) - offset
		}
		return fmt.Sprintf("DATALOADN offset=%d", dataOffset), 3

	case op == DUPN || op == SWAPN:
		if offset+1 >= len(code) {
			return fmt.Sprintf("%s ; truncated immediate", op), len(code) - offset
		}
		// The immediate is biased: byte value n encodes depth n+1.
		return fmt.Sprintf("%s %d", op, int(code[offset+1])+1), 2

	case op == EXCHANGE:
		if offset+1 >= len(code) {
			return "EXCHANGE ; truncated immediate", len(code) - offset
		}
		imm := code[offset+1]
		n := int(imm>>4) + 1
		m := int(imm&0x0f) + 1
		return fmt.Sprintf("EXCHANGE %d, %d", n, n+m), 2

	case !op.Defined():
		return fmt.Sprintf("0x%02X ; undefined", byte(op)), 1

	default:
		return op.Name(), 1
	}
}

// readUint16 reads a big-endian u16 immediate, reporting whether the two
// bytes exist.
func readUint16(code []byte, offset int) (uint16, bool) {
	if offset+2 > len(code) {
		return 0, false
	}
	return binary.BigEndian.Uint16(code[offset:]), true
}

// readInt16 reads a big-endian signed 16-bit immediate.
func readInt16(code []byte, offset int) (int16, bool) {
	v, ok := readUint16(code, offset)
	return int16(v), ok
}
