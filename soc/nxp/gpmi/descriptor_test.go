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
	"testing"
)

// descriptor header layout: next(4) flags(2) bufsz(2) buffer(4) pio...(4 each)
const (
	offFlags  = 4
	offBuffer = 8
	offPIO0   = 12
)

func TestDescriptorSize(t *testing.T) {
	d := newWaitReady(0)

	if got, want := d.size(), uint(8+4*1); got != want {
		t.Errorf("size() = %d, want %d", got, want)
	}

	d = newECCRead(0, 0x1000, 0x2000, 4096)

	if got, want := d.size(), uint(8+4*6); got != want {
		t.Errorf("size() = %d, want %d", got, want)
	}

	raw := newRaw([]byte{1, 2, 3, 4, 5, 6, 7, 8})

	if got, want := raw.size(), uint(8); got != want {
		t.Errorf("size() = %d, want %d", got, want)
	}
}

// TestDMA3DescriptorsMatchDeclaredPIOCount pins descriptor_size =
// 8+4*pio_count for the dmaPIO(3) constructors: each must encode exactly
// 3 PIO words, matching the gpmi_dma3_t layout it declares in Flags,
// regardless of how many of those words actually carry a value.
func TestDMA3DescriptorsMatchDeclaredPIOCount(t *testing.T) {
	ref := newRaw(make([]byte, 8))

	descs := map[string]*Descriptor{
		"newCmdAddr":     newCmdAddr(0, ref, 0, 3),
		"newDataWrite":   newDataWrite(0, 0x1000, 512),
		"newDataRead":    newDataRead(0, 0x1000, 512),
		"newReadCompare": newReadCompare(0, 0x03, 0x00),
		"newDisableBCH":  newDisableBCH(0),
	}

	for name, d := range descs {
		if got, want := len(d.PIO), 3; got != want {
			t.Errorf("%s: len(PIO) = %d, want %d", name, got, want)
		}

		if got, want := d.size(), uint(8+4*3); got != want {
			t.Errorf("%s: size() = %d, want %d", name, got, want)
		}
	}
}

func TestCmdAddrChipSelect(t *testing.T) {
	ref := newRaw(make([]byte, 8))
	d := newCmdAddr(1, ref, 0, 3)

	var buf bytes.Buffer
	d.encode(&buf, 0x1000)

	ctrl0 := binary.LittleEndian.Uint32(buf.Bytes()[offPIO0 : offPIO0+4])

	if ctrl0&GPMI_CHIP_SELECT == 0 {
		t.Errorf("ctrl0 = %#x, expected chip select bit set for chip 1", ctrl0)
	}

	if ctrl0&GPMI_ADDRESS_INCREMENT == 0 {
		t.Errorf("ctrl0 = %#x, expected address increment bit set for addrSize != 0", ctrl0)
	}
}

func TestCmdAddrBufferRef(t *testing.T) {
	ref := newRaw(make([]byte, 8))
	ref.offset = 0x10

	d := newCmdAddr(0, ref, 7, 0)

	var buf bytes.Buffer
	d.encode(&buf, 0x2000)

	buffer := binary.LittleEndian.Uint32(buf.Bytes()[offBuffer : offBuffer+4])

	if want := uint32(0x2000 + 0x10 + 7); buffer != want {
		t.Errorf("buffer = %#x, want %#x", buffer, want)
	}
}

func TestTerminatorCarriesErrorCode(t *testing.T) {
	d := newTerminator(-1)

	var buf bytes.Buffer
	d.encode(&buf, 0)

	code := int32(binary.LittleEndian.Uint32(buf.Bytes()[offBuffer : offBuffer+4]))

	if code != -1 {
		t.Errorf("terminator code = %d, want -1", code)
	}
}

func TestSenseReferencesTarget(t *testing.T) {
	target := newTerminator(-1)
	target.offset = 0x40

	s := newSense(target)

	var buf bytes.Buffer
	s.encode(&buf, 0x3000)

	buffer := binary.LittleEndian.Uint32(buf.Bytes()[offBuffer : offBuffer+4])

	if want := uint32(0x3000 + 0x40); buffer != want {
		t.Errorf("sense target = %#x, want %#x", buffer, want)
	}

	flags := binary.LittleEndian.Uint16(buf.Bytes()[offFlags : offFlags+2])

	if flags&0x3 != XferSense {
		t.Errorf("sense descriptor transfer type not encoded in flags: %#x", flags)
	}
}
