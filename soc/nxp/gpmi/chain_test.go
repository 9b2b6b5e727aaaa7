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
	"testing"
)

// newTestChain builds a Chain backed by a plain Go slice instead of a
// dma.Reserve'd region, so chain assembly can be exercised without a real
// physical memory mapping.
func newTestChain() *Chain {
	return &Chain{
		addr: 0x1000,
		buf:  make([]byte, chainScratchSize),
	}
}

func TestChainEmpty(t *testing.T) {
	c := newTestChain()

	if !c.Empty() {
		t.Fatal("new chain should be empty")
	}

	if c.First() != 0 {
		t.Fatalf("First() on empty chain = %#x, want 0", c.First())
	}

	if err := c.Finish(); err != nil {
		t.Fatalf("Finish() failed: %v", err)
	}

	if c.Empty() {
		t.Fatal("chain should not be empty after Finish()")
	}

	if c.First() == 0 {
		t.Fatal("First() should be non-zero once a descriptor has been appended")
	}
}

// TestChainWalkReachesSingleTerminator builds a short chain and verifies
// walking next pointers from head visits each descriptor exactly once and
// ends at the terminator appended by Finish().
func TestChainWalkReachesSingleTerminator(t *testing.T) {
	c := newTestChain()

	if err := c.Issue(CmdReset, 0, nil, 0, 0, 0); err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	if err := c.Wait4Ready(0, StatusFail); err != nil {
		t.Fatalf("Wait4Ready() failed: %v", err)
	}

	if err := c.Finish(); err != nil {
		t.Fatalf("Finish() failed: %v", err)
	}

	seen := make(map[*Descriptor]bool)

	n := c.head
	count := 0

	for n != nil {
		if seen[n] {
			t.Fatalf("chain revisits descriptor at offset %d", n.offset)
		}

		seen[n] = true
		count++
		n = n.next
	}

	if c.tail == nil || !seen[c.tail] {
		t.Fatal("tail descriptor was not reached while walking from head")
	}

	if count == 0 {
		t.Fatal("expected at least one descriptor in the chain")
	}
}

// TestIssueRejectsPolicyViolation verifies that Issue() leaves the chain
// untouched when the data size does not match the command's data policy.
func TestIssueRejectsPolicyViolation(t *testing.T) {
	c := newTestChain()

	// CmdProgramPage is PolicyFree and requires a data phase of more
	// than zero bytes: issuing it with a zero size must be rejected.
	err := c.Issue(CmdProgramPage, 0, make([]byte, 5), 0, 0, 0)

	if err != ErrInvalidArgument {
		t.Fatalf("Issue() error = %v, want ErrInvalidArgument", err)
	}

	if !c.Empty() {
		t.Fatal("chain should remain untouched after a rejected Issue()")
	}
}

// TestIssueExactSizePolicy verifies that a command with a fixed data
// policy (CmdSetFeatures, exactly 4 bytes) rejects any other size.
func TestIssueExactSizePolicy(t *testing.T) {
	c := newTestChain()

	if err := c.Issue(CmdSetFeatures, 0, make([]byte, 1), 3, 0, 0); err != ErrInvalidArgument {
		t.Fatalf("Issue() error = %v, want ErrInvalidArgument", err)
	}

	if !c.Empty() {
		t.Fatal("chain should remain untouched after a rejected Issue()")
	}

	if err := c.Issue(CmdSetFeatures, 0, make([]byte, 1), 4, 0x9000, 0); err != nil {
		t.Fatalf("Issue() with matching size failed: %v", err)
	}

	if c.Empty() {
		t.Fatal("chain should be populated after an accepted Issue()")
	}
}

// TestChainFull verifies that appending past the scratch region reports
// ErrChainFull rather than corrupting memory.
func TestChainFull(t *testing.T) {
	c := newTestChain()
	c.size = chainScratchSize - 4

	if _, err := c.append(newWaitReady(0)); err != ErrChainFull {
		t.Fatalf("append() error = %v, want ErrChainFull", err)
	}
}
