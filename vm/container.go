package vm

import (
	"encoding/binary"
	"fmt"
)

// ---------------------------------------------------------------------------
// Structured container format

// The container layout is bit-exact: magic, version, a fixed sequence of
// typed section headers, a terminator, then the section bodies in header
// order. Any deviation is a structural exception, never a tolerant parse.
const (
	eofFormatByte byte = 0xEF
	eofMagicByte  byte = 0x00
	eofVersion    byte = 0x01

	kindType         byte = 0x01
	kindCode         byte = 0x02
	kindData         byte = 0x04
	headerTerminator byte = 0x00

	maxCodeSections     = 1024
	maxInputs           = 127
	maxOutputs          = 127
	nonReturningFlag    = 0x80
	maxStackHeightLimit = 1023
	typeEntrySize       = 4
)

// FunctionType declares the stack contract of one code section: how many
// words it consumes from its caller, how many it returns (Outputs of 0x80
// marks a section that never returns control), and the highest operand
// stack height any path through it can reach.
type FunctionType struct {
	Inputs         uint8
	Outputs        uint8
	MaxStackHeight uint16
}

// NonReturning reports whether the section promises to never return to
// a caller.
func (t FunctionType) NonReturning() bool {
	return t.Outputs == nonReturningFlag
}

// Container is a parsed structured-bytecode container. Parsing checks the
// byte layout only; control flow is proven separately by the validator.
// A Container is immutable once parsed.
type Container struct {
	Types []FunctionType
	Code  [][]byte
	Data  []byte
}

// HasEOFMagic reports whether code begins with the structured-container
// magic prefix.
func HasEOFMagic(code []byte) bool {
	return len(code) >= 2 && code[0] == eofFormatByte && code[1] == eofMagicByte
}

// parseSectionHeader reads one kind byte and its big-endian u16 operand.
func parseSectionHeader(b []byte, pos int, wantKind byte) (int, int, error) {
	if pos+3 > len(b) {
		return 0, 0, fmt.Errorf("%w: header at byte %d", ErrTruncatedContainer, pos)
	}
	if b[pos] != wantKind {
		return 0, 0, fmt.Errorf("%w: expected kind %#02x at byte %d, got %#02x",
			ErrInvalidSectionHeader, wantKind, pos, b[pos])
	}
	return int(binary.BigEndian.Uint16(b[pos+1 : pos+3])), pos + 3, nil
}

// ParseContainer decodes a structured container from its bit-exact wire
// form. It fails fast with a structural exception on bad magic or version,
// malformed or misordered section headers, type entries out of range, a
// truncated buffer, or bytes left over after the declared sections.
func ParseContainer(b []byte) (*Container, error) {
	if !HasEOFMagic(b) {
		return nil, ErrInvalidMagic
	}
	if len(b) < 3 {
		return nil, fmt.Errorf("%w: missing version byte", ErrTruncatedContainer)
	}
	if b[2] != eofVersion {
		return nil, fmt.Errorf("%w: %#02x", ErrInvalidVersion, b[2])
	}

	typesSize, pos, err := parseSectionHeader(b, 3, kindType)
	if err != nil {
		return nil, err
	}
	if typesSize == 0 || typesSize%typeEntrySize != 0 {
		return nil, fmt.Errorf("%w: type section size %d", ErrInvalidSectionHeader, typesSize)
	}

	codeCount, pos, err := parseSectionHeader(b, pos, kindCode)
	if err != nil {
		return nil, err
	}
	if codeCount == 0 || codeCount > maxCodeSections {
		return nil, fmt.Errorf("%w: %d code sections", ErrInvalidSectionCount, codeCount)
	}
	if codeCount != typesSize/typeEntrySize {
		return nil, fmt.Errorf("%w: %d code sections, %d type entries",
			ErrInvalidSectionCount, codeCount, typesSize/typeEntrySize)
	}
	if pos+2*codeCount > len(b) {
		return nil, fmt.Errorf("%w: code section sizes", ErrTruncatedContainer)
	}
	codeSizes := make([]int, codeCount)
	for i := range codeSizes {
		size := int(binary.BigEndian.Uint16(b[pos+2*i : pos+2*i+2]))
		if size == 0 {
			return nil, fmt.Errorf("%w: code section %d is empty", ErrInvalidSectionHeader, i)
		}
		codeSizes[i] = size
	}
	pos += 2 * codeCount

	dataSize, pos, err := parseSectionHeader(b, pos, kindData)
	if err != nil {
		return nil, err
	}

	if pos >= len(b) {
		return nil, fmt.Errorf("%w: missing header terminator", ErrTruncatedContainer)
	}
	if b[pos] != headerTerminator {
		return nil, fmt.Errorf("%w: expected terminator at byte %d, got %#02x",
			ErrInvalidSectionHeader, pos, b[pos])
	}
	pos++

	// Section bodies follow in header order.
	if pos+typesSize > len(b) {
		return nil, fmt.Errorf("%w: type section body", ErrTruncatedContainer)
	}
	types := make([]FunctionType, codeCount)
	for i := range types {
		o := pos + i*typeEntrySize
		t := FunctionType{
			Inputs:         b[o],
			Outputs:        b[o+1],
			MaxStackHeight: binary.BigEndian.Uint16(b[o+2 : o+4]),
		}
		if t.Inputs > maxInputs {
			return nil, fmt.Errorf("%w: section %d declares %d inputs", ErrInvalidTypeEntry, i, t.Inputs)
		}
		if t.Outputs > maxOutputs && t.Outputs != nonReturningFlag {
			return nil, fmt.Errorf("%w: section %d declares %d outputs", ErrInvalidTypeEntry, i, t.Outputs)
		}
		if t.MaxStackHeight > maxStackHeightLimit {
			return nil, fmt.Errorf("%w: section %d declares max stack height %d",
				ErrInvalidTypeEntry, i, t.MaxStackHeight)
		}
		types[i] = t
	}
	if types[0].Inputs != 0 || !types[0].NonReturning() {
		return nil, fmt.Errorf("%w: section 0 must take no inputs and be non-returning", ErrInvalidTypeEntry)
	}
	pos += typesSize

	code := make([][]byte, codeCount)
	for i, size := range codeSizes {
		if pos+size > len(b) {
			return nil, fmt.Errorf("%w: code section %d body", ErrTruncatedContainer, i)
		}
		code[i] = b[pos : pos+size : pos+size]
		pos += size
	}

	if pos+dataSize > len(b) {
		return nil, fmt.Errorf("%w: data section body", ErrTruncatedContainer)
	}
	data := b[pos : pos+dataSize : pos+dataSize]
	pos += dataSize

	if pos != len(b) {
		return nil, fmt.Errorf("%w: %d bytes after data section", ErrTrailingBytes, len(b)-pos)
	}

	return &Container{Types: types, Code: code, Data: data}, nil
}

// MarshalBinary encodes the container back to its wire form. Parsing the
// result yields an equal container.
func (c *Container) MarshalBinary() []byte {
	size := 3 + // magic, version
		3 + // type section header
		3 + 2*len(c.Code) + // code section header and sizes
		3 + // data section header
		1 + // terminator
		typeEntrySize*len(c.Types)
	for _, sec := range c.Code {
		size += len(sec)
	}
	size += len(c.Data)

	b := make([]byte, 0, size)
	b = append(b, eofFormatByte, eofMagicByte, eofVersion)
	b = append(b, kindType)
	b = binary.BigEndian.AppendUint16(b, uint16(len(c.Types)*typeEntrySize))
	b = append(b, kindCode)
	b = binary.BigEndian.AppendUint16(b, uint16(len(c.Code)))
	for _, sec := range c.Code {
		b = binary.BigEndian.AppendUint16(b, uint16(len(sec)))
	}
	b = append(b, kindData)
	b = binary.BigEndian.AppendUint16(b, uint16(len(c.Data)))
	b = append(b, headerTerminator)
	for _, t := range c.Types {
		b = append(b, t.Inputs, t.Outputs)
		b = binary.BigEndian.AppendUint16(b, t.MaxStackHeight)
	}
	for _, sec := range c.Code {
		b = append(b, sec...)
	}
	b = append(b, c.Data...)
	return b
}
