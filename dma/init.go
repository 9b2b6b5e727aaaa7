// First-fit memory allocator for DMA buffers
// https://github.com/usbarmory/tamago
//
// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package dma provides primitives for direct memory allocation and alignment,
// it is primarily used in bare metal device driver operation to avoid passing
// Go pointers for DMA purposes.
//
// This package is only meant to be used with `GOOS=tamago GOARCH=arm` as
// supported by the TamaGo framework for bare metal Go on ARM SoCs, see
// https://github.com/usbarmory/tamago.
package dma

import (
	"container/list"
)

// Init initializes the default memory region for DMA buffer allocation, the
// caller must guarantee that the passed memory range is never used by the Go
// runtime (defining runtime.ramStart and runtime.ramSize accordingly).
func Init(start uint, size uint) {
	dma = &Region{
		start: start,
		size:  size,
	}

	dma.freeBlocks = list.New()
	dma.freeBlocks.PushFront(&block{
		addr: start,
		size: size,
	})

	dma.usedBlocks = make(map[uint]*block)
}

// Reserve allocates a slice of bytes on the default DMA region, see
// Region.Reserve().
func Reserve(size int, align int) (addr uint, buf []byte) {
	return dma.Reserve(size, align)
}

// Reserved returns whether a slice of bytes is allocated within the default
// DMA region, see Region.Reserved().
func Reserved(buf []byte) (res bool, addr uint) {
	return dma.Reserved(buf)
}

// Alloc reserves a memory region on the default DMA region, see
// Region.Alloc().
func Alloc(buf []byte, align int) (addr uint) {
	return dma.Alloc(buf, align)
}

// Read reads from the default DMA region, see Region.Read().
func Read(addr uint, off int, buf []byte) {
	dma.Read(addr, off, buf)
}

// Write writes to the default DMA region, see Region.Write().
func Write(addr uint, off int, buf []byte) {
	dma.Write(addr, off, buf)
}

// Free releases a region previously allocated with Alloc(), see
// Region.Free().
func Free(addr uint) {
	dma.Free(addr)
}

// Release releases a region previously allocated with Reserve(), see
// Region.Release().
func Release(addr uint) {
	dma.Release(addr)
}
