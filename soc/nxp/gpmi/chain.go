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
	"errors"

	"github.com/usbarmory/tamago-nand/dma"
)

// ErrInvalidArgument is returned by Chain.Issue when a command/data-size
// combination violates the command's data policy. The chain is left
// untouched.
var ErrInvalidArgument = errors.New("gpmi: invalid argument")

// ErrChainFull is returned when a chain's scratch region cannot fit an
// additional descriptor.
var ErrChainFull = errors.New("gpmi: chain scratch region exhausted")

// chainScratchSize is the size of the pinned, uncached scratch page backing
// a Chain, matching the flash page geometry's host-side envelope.
const chainScratchSize = 4096

// StatusFail is the driver-private return code surfaced by a status-check
// mismatch (NAND status register nonzero after program or erase).
const StatusFail = -1

// Chain is an append-only descriptor chain assembled inside a pinned,
// contiguous scratch region. It is append-only: first is set on the first
// append and never rewritten; last always points at the most recently
// appended descriptor so its next pointer can be backpatched.
type Chain struct {
	addr Address
	buf  []byte

	head *Descriptor
	tail *Descriptor
	size uint
}

// NewChain allocates a chain's backing scratch region. The handle is meant
// to be reused across operations via Reset.
func NewChain() *Chain {
	addr, buf := dma.Reserve(chainScratchSize, 4)

	return &Chain{
		addr: Address(addr),
		buf:  buf,
	}
}

// Reset empties the chain, allowing its scratch region to be reused by the
// next build. It does not release the underlying allocation.
func (c *Chain) Reset() {
	c.head = nil
	c.tail = nil
	c.size = 0
}

// Empty reports whether the chain has no appended descriptors.
func (c *Chain) Empty() bool {
	return c.head == nil
}

// First returns the physical address of the chain's first descriptor, or 0
// if the chain is empty.
func (c *Chain) First() Address {
	if c.head == nil {
		return 0
	}

	return c.addr + Address(c.head.offset)
}

// append places d immediately after the current tail, backpatching the
// previous descriptor's next pointer and chain flag in the scratch region.
func (c *Chain) append(d *Descriptor) (Address, error) {
	sz := d.size()

	if c.size+sz > chainScratchSize {
		return 0, ErrChainFull
	}

	d.offset = c.size

	var b bytes.Buffer
	d.encode(&b, uint(c.addr))
	copy(c.buf[d.offset:], b.Bytes())

	if c.tail != nil {
		prev := c.tail

		binary.LittleEndian.PutUint32(c.buf[prev.offset:], uint32(c.addr)+uint32(d.offset))

		flags := binary.LittleEndian.Uint16(c.buf[prev.offset+4:])
		flags |= FlagChain
		binary.LittleEndian.PutUint16(c.buf[prev.offset+4:], flags)

		prev.next = d
	}

	c.tail = d

	if c.head == nil {
		c.head = d
	}

	c.size += sz

	return c.addr + Address(d.offset), nil
}

// Issue emits the NAND command envelope for cmdID: a small in-chain scratch
// record carrying (cmd1, address bytes, cmd2), a cmd+addr descriptor
// pointing at it, an optional data phase, and a trailing cmd+addr
// descriptor for cmd2 when the command table entry carries one.
//
// addr holds up to 5 address bytes (row, or row+column for the few
// commands that require it); only the command's addrsz leading bytes are
// used. dataAddr/auxAddr are physical addresses of caller-pinned buffers;
// auxAddr non-zero selects the ECC-write data phase.
func (c *Chain) Issue(cmdID int, chip int, addr []byte, dataSize int, dataAddr uint32, auxAddr uint32) error {
	cmd := commands[cmdID]

	switch {
	case cmd.data > 0 && int(cmd.data) != dataSize:
		return ErrInvalidArgument
	case cmd.data == PolicyFree && dataSize == 0:
		return ErrInvalidArgument
	case cmd.data == PolicyNone && dataSize != 0:
		return ErrInvalidArgument
	}

	record := make([]byte, 8)
	record[0] = cmd.cmd1
	copy(record[1:], addr[:cmd.addrsz])
	record[7] = cmd.cmd2

	if _, err := c.append(newRaw(record)); err != nil {
		return err
	}

	if _, err := c.append(newCmdAddr(chip, c.tail, 0, cmd.addrsz)); err != nil {
		return err
	}

	if dataSize != 0 {
		var d *Descriptor

		if auxAddr == 0 {
			d = newDataWrite(chip, dataAddr, uint16(dataSize))
		} else {
			d = newECCWrite(chip, dataAddr, auxAddr, uint16(dataSize))
		}

		if _, err := c.append(d); err != nil {
			return err
		}
	}

	if cmd.cmd2 != 0 {
		// the scratch record node precedes the first cmd+addr
		// descriptor and the data phase (if any).
		scratch := c.findScratch()

		if _, err := c.append(newCmdAddr(chip, scratch, 7, 0)); err != nil {
			return err
		}
	}

	return nil
}

// findScratch locates the most recently appended raw scratch node. Chain
// construction never interleaves two in-flight records, so the most recent
// raw node is always the correct one.
func (c *Chain) findScratch() *Descriptor {
	for d := c.tail; d != nil; d = d.prevOf(c) {
		if d.raw != nil {
			return d
		}
	}

	return nil
}

// prevOf walks the chain from its head to find the node preceding d. The
// chain is small (a handful of descriptors per operation) so a linear scan
// is sufficient.
func (d *Descriptor) prevOf(c *Chain) *Descriptor {
	for n := c.head; n != nil; n = n.next {
		if n.next == d {
			return n
		}
	}

	return nil
}

// Readback appends a data-read descriptor, or an ECC-read descriptor when
// aux is non-zero.
func (c *Chain) Readback(chip int, size int, dataAddr uint32, auxAddr uint32) error {
	var d *Descriptor

	if auxAddr == 0 {
		d = newDataRead(chip, dataAddr, uint16(size))
	} else {
		d = newECCRead(chip, dataAddr, auxAddr, uint16(size))
	}

	_, err := c.append(d)
	return err
}

// Wait4Ready appends a terminator carrying err as its failure code (only if
// err is non-zero), a wait-ready descriptor, and a sense descriptor
// targeting that terminator. If the NAND times out waiting for ready, the
// sense branch jumps to the terminator and the chain returns err.
func (c *Chain) Wait4Ready(chip int, err int32) error {
	var fail *Descriptor

	if err != 0 {
		fail = newTerminator(err)

		if _, e := c.append(fail); e != nil {
			return e
		}
	}

	if _, e := c.append(newWaitReady(chip)); e != nil {
		return e
	}

	if _, e := c.append(newSense(fail)); e != nil {
		return e
	}

	return nil
}

// ReadCompare appends a terminator carrying err, a read-compare descriptor,
// and a sense descriptor targeting that terminator. Used to validate NAND
// status registers: a status value not masking to zero yields err.
func (c *Chain) ReadCompare(chip int, mask uint16, value uint16, err int32) error {
	fail := newTerminator(err)

	if _, e := c.append(fail); e != nil {
		return e
	}

	if _, e := c.append(newReadCompare(chip, mask, value)); e != nil {
		return e
	}

	if _, e := c.append(newSense(fail)); e != nil {
		return e
	}

	return nil
}

// DisableBCH appends the BCH-idle tail descriptor.
func (c *Chain) DisableBCH(chip int) error {
	_, err := c.append(newDisableBCH(chip))
	return err
}

// Finish appends the chain's OK terminator.
func (c *Chain) Finish() error {
	_, err := c.append(newTerminator(0))
	return err
}
