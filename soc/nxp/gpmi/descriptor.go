// NXP GPMI/BCH/APBH raw NAND controller driver
// https://github.com/usbarmory/tamago
//
// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gpmi

import (
	"bytes"
	"encoding/binary"
)

// Address is a physical, DMA-visible address. It cannot be dereferenced
// from Go and exists only to be written into a hardware descriptor field.
type Address uint32

// Descriptor represents a single APBH DMA descriptor: an 8-byte header
// (next, flags, bufsz, buffer) followed by a variable number of PIO words
// that the DMA engine writes into the GPMI/BCH register file immediately
// before the descriptor's transfer phase executes.
//
// Descriptors are chained by Go pointer (next) rather than by pre-computed
// physical address; physical addresses are resolved once, when the chain is
// committed to its DMA scratch region.
type Descriptor struct {
	// raw, when non-nil, is written verbatim in place of the normal
	// header+PIO encoding. It is used for the small in-chain scratch
	// records (command/address bytes) that the cmd+addr descriptor
	// itself points back at.
	raw []byte

	Flags   uint16
	BufSize uint16
	Buffer  uint32
	PIO     []uint32

	// bufferRef, when set, overrides Buffer at commit time with the
	// resolved physical address of the referenced descriptor, plus
	// bufferRefOffset. Used by cmd+addr (pointing at its scratch record,
	// optionally offset to the trailing cmd2 byte) and by sense
	// (branching to a failure terminator).
	bufferRef       *Descriptor
	bufferRefOffset uint32

	next   *Descriptor
	offset uint
}

// size returns the descriptor's footprint in the scratch region.
func (d *Descriptor) size() uint {
	if d.raw != nil {
		return uint(len(d.raw))
	}

	return 8 + 4*uint(len(d.PIO))
}

func (d *Descriptor) encode(buf *bytes.Buffer, base uint) {
	if d.raw != nil {
		buf.Write(d.raw)
		return
	}

	var next uint32
	flags := d.Flags

	if d.next != nil {
		next = uint32(base + d.next.offset)
		flags |= FlagChain
	}

	buffer := d.Buffer

	if d.bufferRef != nil {
		buffer = uint32(base+d.bufferRef.offset) + d.bufferRefOffset
	}

	binary.Write(buf, binary.LittleEndian, next)
	binary.Write(buf, binary.LittleEndian, flags)
	binary.Write(buf, binary.LittleEndian, d.BufSize)
	binary.Write(buf, binary.LittleEndian, buffer)
	binary.Write(buf, binary.LittleEndian, d.PIO)
}

func chipSelect(chip int) uint32 {
	return uint32(chip) * GPMI_CHIP_SELECT
}

// newRaw wraps a small fixed byte record (the command/address scratch
// record written ahead of a cmd+addr descriptor) as a chain node.
func newRaw(b []byte) *Descriptor {
	return &Descriptor{raw: b}
}

// newCmdAddr builds a GPMI command+address descriptor. ref is the raw
// scratch record holding the command and address bytes it emits, at byte
// offset refOffset within it; addrSize is the number of address bytes
// following the leading command byte.
func newCmdAddr(chip int, ref *Descriptor, refOffset uint32, addrSize int) *Descriptor {
	bufsz := uint16((addrSize & 0x7) + 1)

	ctrl0 := chipSelect(chip) | GPMI_WRITE | GPMI_COMMAND_BYTES | GPMI_LOCK_CS | GPMI_WORD_LENGTH_8BIT | uint32(bufsz)

	if addrSize != 0 {
		ctrl0 |= GPMI_ADDRESS_INCREMENT
	}

	return &Descriptor{
		Flags:           FlagHot | FlagWaitEndCmd | FlagNANDLock | XferRead | dmaPIO(3),
		BufSize:         bufsz,
		bufferRef:       ref,
		bufferRefOffset: refOffset,
		PIO:             []uint32{ctrl0, 0, 0},
	}
}

// newDataWrite builds a memory-to-NAND data phase descriptor, without ECC.
func newDataWrite(chip int, buffer uint32, bufsz uint16) *Descriptor {
	ctrl0 := chipSelect(chip) | GPMI_WRITE | GPMI_LOCK_CS | GPMI_DATA_BYTES | GPMI_WORD_LENGTH_8BIT | uint32(bufsz)

	return &Descriptor{
		Flags:   FlagHot | FlagNANDLock | FlagWaitEndCmd | XferRead | dmaPIO(3),
		BufSize: bufsz,
		Buffer:  buffer,
		PIO:     []uint32{ctrl0, 0, 0},
	}
}

// newDataRead builds a NAND-to-memory data phase descriptor, without ECC.
func newDataRead(chip int, buffer uint32, bufsz uint16) *Descriptor {
	ctrl0 := chipSelect(chip) | GPMI_READ | GPMI_DATA_BYTES | GPMI_WORD_LENGTH_8BIT | uint32(bufsz)

	return &Descriptor{
		Flags:   FlagHot | FlagNANDLock | FlagWaitEndCmd | XferWrite | dmaPIO(3),
		BufSize: bufsz,
		Buffer:  buffer,
		PIO:     []uint32{ctrl0, 0, 0},
	}
}

// newReadCompare builds a status-compare descriptor: the GPMI reads one
// byte and masks it against value, reporting the mismatch to the following
// sense descriptor rather than through a memory transfer.
func newReadCompare(chip int, mask uint16, value uint16) *Descriptor {
	ctrl0 := chipSelect(chip) | GPMI_READ_COMPARE | GPMI_DATA_BYTES | GPMI_WORD_LENGTH_8BIT | 1
	compare := uint32(mask)<<16 | uint32(value)

	return &Descriptor{
		Flags: FlagHot | FlagNANDLock | FlagWaitEndCmd | XferNone | dmaPIO(3),
		PIO:   []uint32{ctrl0, compare, 0},
	}
}

// newECCRead builds a BCH-assisted page read descriptor. When payload is
// zero only the auxiliary (metadata) area is decoded.
func newECCRead(chip int, payload, auxiliary uint32, bufsz uint16) *Descriptor {
	eccMode := uint32(ECC_MODE_PAYLOAD_AUX)

	if payload == 0 {
		eccMode = ECC_MODE_AUX_ONLY
	}

	ctrl0 := chipSelect(chip) | GPMI_READ | GPMI_DATA_BYTES | GPMI_WORD_LENGTH_8BIT | uint32(bufsz)
	eccctrl := uint32(ECCCTRL_ENABLE_ECC) | eccMode

	return &Descriptor{
		Flags: FlagHot | FlagNANDLock | FlagWaitEndCmd | XferNone | dmaPIO(6),
		PIO:   []uint32{ctrl0, 0, eccctrl, uint32(bufsz), payload, auxiliary},
	}
}

// newECCWrite builds a BCH-assisted page program descriptor.
func newECCWrite(chip int, payload, auxiliary uint32, bufsz uint16) *Descriptor {
	ctrl0 := chipSelect(chip) | GPMI_WRITE | GPMI_LOCK_CS | GPMI_DATA_BYTES | GPMI_WORD_LENGTH_8BIT
	eccctrl := uint32(ECCCTRL_ECC_WRITE) | uint32(ECCCTRL_ENABLE_ECC) | uint32(ECC_MODE_PAYLOAD_AUX)

	return &Descriptor{
		Flags: FlagHot | FlagNANDLock | FlagWaitEndCmd | XferNone | dmaPIO(6),
		PIO:   []uint32{ctrl0, 0, eccctrl, uint32(bufsz), payload, auxiliary},
	}
}

// newDisableBCH builds the BCH-idle tail descriptor that re-idles the BCH
// engagement after an ECC operation.
func newDisableBCH(chip int) *Descriptor {
	ctrl0 := chipSelect(chip) | GPMI_WAIT_FOR_READY | GPMI_LOCK_CS | GPMI_DATA_BYTES | GPMI_WORD_LENGTH_8BIT

	return &Descriptor{
		Flags: FlagHot | FlagWaitEndCmd | FlagNANDLock | XferNone | dmaPIO(3),
		PIO:   []uint32{ctrl0, 0, 0},
	}
}

// newWaitReady builds a GPMI wait-for-ready descriptor.
func newWaitReady(chip int) *Descriptor {
	ctrl0 := chipSelect(chip) | GPMI_WAIT_FOR_READY | GPMI_WORD_LENGTH_8BIT

	return &Descriptor{
		Flags: FlagHot | FlagWaitEndCmd | FlagWaitReady | XferNone | dmaPIO(1),
		PIO:   []uint32{ctrl0},
	}
}

// newTerminator builds a chain-ending descriptor. err is the return code
// delivered to the chain's submitter.
func newTerminator(err int32) *Descriptor {
	return &Descriptor{
		Flags:  FlagIRQComplete | FlagDecrSema | XferNone,
		Buffer: uint32(err),
	}
}

// newSense builds a conditional-branch descriptor: if the previous
// descriptor's written value is nonzero the DMA engine branches to target,
// otherwise it falls through to the next appended descriptor.
func newSense(target *Descriptor) *Descriptor {
	return &Descriptor{
		Flags:     FlagHot | XferSense,
		bufferRef: target,
	}
}

func dmaPIO(n int) uint16 {
	return uint16((n & 0xf) << 12)
}
