// NXP i.MX6UL initialization
// https://github.com/usbarmory/tamago
//
// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package imx6ul

import (
	"github.com/usbarmory/tamago-nand/dma"
	"github.com/usbarmory/tamago-nand/internal/reg"
	"github.com/usbarmory/tamago-nand/soc/nxp/gpmi"
	"github.com/usbarmory/tamago-nand/soc/nxp/iomuxc"
)

// NAND is the GPMI/BCH/APBH raw NAND flash controller instance.
var NAND *gpmi.Controller

// nandPinMuxBase and nandPinMuxCount select the contiguous run of
// SW_MUX_CTL_PAD registers (word offsets 94..110 from IOMUXC_BASE) wired to
// the NAND data/control pins on this package.
const (
	nandPinMuxBase  = 94
	nandPinMuxCount = 17
)

func init() {
	// use internal OCRAM (iRAM) as default DMA region for descriptor
	// chains and page buffers
	dma.Init(OCRAM_START, OCRAM_SIZE)

	// secure world, non-FIQ interrupt routing
	GIC.Init(true, false)

	// enable the APBH DMA and IOMUXC clock gates ahead of the GPMI/BCH
	// gates below: the pin-mux loop that follows depends on IOMUXC being
	// clocked, and every chain the NAND controller submits depends on
	// APBH DMA.
	reg.SetN(CCM_CCGR0, CCGR0_APBHDMA, 0b11, 0b11)
	reg.SetN(CCM_CCGR2, CCGR2_IOMUXC, 0b11, 0b11)

	// enable the four CCGR4 clock gates feeding GPMI/BCH
	reg.SetN(CCM_CCGR4, CCGR4_RAWNAND_U_GPMI_INPUT_APB, 0b11, 0b11)
	reg.SetN(CCM_CCGR4, CCGR4_RAWNAND_U_GPMI_BCH_INPUT_BCH, 0b11, 0b11)
	reg.SetN(CCM_CCGR4, CCGR4_RAWNAND_U_GPMI_BCH_INPUT_GPMI_IO, 0b11, 0b11)
	reg.SetN(CCM_CCGR4, CCGR4_RAWNAND_U_BCH_INPUT_APB, 0b11, 0b11)

	// set all NAND pins to their NAND (ALT0) function
	for i := 0; i < nandPinMuxCount; i++ {
		iomuxc.Init(IOMUXC_BASE+4*uint32(nandPinMuxBase+i), 0, 0)
	}

	NAND = gpmi.Init(APBH_BASE, GPMI_BASE, BCH_BASE, GIC, APBH_DMA_IRQ, BCH_IRQ, GPMI_IRQ)
}
