// NXP GPMI/BCH/APBH raw NAND controller driver
// https://github.com/usbarmory/tamago
//
// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gpmi

import "testing"

func TestCommandTableAddressSize(t *testing.T) {
	for id, cmd := range commands {
		if cmd.addrsz < 0 || cmd.addrsz > 5 {
			t.Errorf("command %d: addrsz %d out of range", id, cmd.addrsz)
		}
	}
}

func TestResetHasNoDataPhase(t *testing.T) {
	if commands[CmdReset].data != PolicyNone {
		t.Errorf("CmdReset data policy = %v, want PolicyNone", commands[CmdReset].data)
	}
}

func TestProgramPageRequiresData(t *testing.T) {
	if commands[CmdProgramPage].data != PolicyFree {
		t.Errorf("CmdProgramPage data policy = %v, want PolicyFree", commands[CmdProgramPage].data)
	}
}

// TestAsymmetricLayoutPreserved documents that sub-block 0 carries a
// stronger ECC setting than the remaining sub-blocks; this is intentional
// and must not be normalized away.
func TestAsymmetricLayoutPreserved(t *testing.T) {
	if layout0ECC0Strength == layoutNECCStrength {
		t.Fatal("layout0 and layoutN ECC strengths should not match: the asymmetry is load-bearing")
	}
}
