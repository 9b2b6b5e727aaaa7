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
	"github.com/usbarmory/tamago-nand/internal/reg"
)

// dispatch routes a GIC interrupt ID to the matching completion handler.
// Unrecognized IDs (any interrupt source not owned by this controller) are
// ignored.
func (c *Controller) dispatch(id int) {
	switch id {
	case c.dmaIRQ:
		c.onDMADone()
	case c.bchIRQ:
		c.onBCHDone()
	case c.gpmiIRQ:
		c.onGPMIDone()
	}
}

// onDMADone latches the completed chain's terminator return code and
// clears the channel 0 completion IRQ, then wakes any goroutine waiting on
// dmaCond. The terminator's code is left in APBH_CH0_BAR by the DMA
// engine once the chain's last descriptor (a terminator) retires.
func (c *Controller) onDMADone() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dmaResult = int32(reg.Read(c.apbh + APBH_CH0_BAR))
	reg.Write(c.apbh+APBH_CTRL1_CLR, 1<<CTRL1_CH0_IRQ)

	c.dmaDone = true
	c.dmaCond.Broadcast()
}

// onBCHDone latches the BCH status word and clears the BCH completion
// flag, then wakes any goroutine waiting on bchCond.
func (c *Controller) onBCHDone() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bchStatus = reg.Read(c.bch + BCH_STATUS0)
	reg.Write(c.bch+BCH_CTRL_CLR, 1<<CTRL_COMPLETE_IRQ)

	c.bchDone = true
	c.bchCond.Broadcast()
}

// onGPMIDone acknowledges the GPMI interrupt. No payload is latched: the
// GPMI line signals transfer-level events already reflected by the
// chain's own DMA/BCH completion, so nothing further is extracted here.
func (c *Controller) onGPMIDone() {
}
