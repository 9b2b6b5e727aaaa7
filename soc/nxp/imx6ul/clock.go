// NXP i.MX6UL clock control module support
// https://github.com/usbarmory/tamago
//
// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package imx6ul

// Clock Controller Module registers
// (p607, 18.7 CCM Memory Map/Register Definition, IMX6ULLRM).
const (
	CCM_CCGR0 = 0x020c4068
	CCM_CCGR1 = 0x020c406c
	CCM_CCGR2 = 0x020c4070
	CCM_CCGR3 = 0x020c4074
	CCM_CCGR4 = 0x020c4078
	CCM_CCGR5 = 0x020c407c
	CCM_CCGR6 = 0x020c4080

	// CCGRx clock gate field positions, each field is 2 bits wide and
	// accepts 0b11 (always on) or 0b00 (off).
	CCGRx_CG15 = 30
	CCGRx_CG14 = 28
	CCGRx_CG13 = 26
	CCGRx_CG12 = 24
	CCGRx_CG11 = 22
	CCGRx_CG10 = 20
	CCGRx_CG9  = 18
	CCGRx_CG8  = 16
	CCGRx_CG7  = 14
	CCGRx_CG6  = 12
	CCGRx_CG5  = 10
	CCGRx_CG4  = 8
	CCGRx_CG3  = 6
	CCGRx_CG2  = 4
	CCGRx_CG1  = 2
	CCGRx_CG0  = 0

	// CCGR4 clock gates feeding the raw NAND controller complex.
	CCGR4_RAWNAND_U_GPMI_INPUT_APB          = CCGRx_CG4
	CCGR4_RAWNAND_U_GPMI_BCH_INPUT_BCH      = CCGRx_CG2
	CCGR4_RAWNAND_U_GPMI_BCH_INPUT_GPMI_IO  = CCGRx_CG3
	CCGR4_RAWNAND_U_BCH_INPUT_APB           = CCGRx_CG1

	// CCGR0 gate for the APBH DMA engine, the controller this driver
	// queues every descriptor chain to.
	CCGR0_APBHDMA = CCGRx_CG2

	// CCGR2 gate for the IOMUX controller, whose SW_MUX_CTL_PAD registers
	// this driver programs to route the NAND pins.
	CCGR2_IOMUXC = CCGRx_CG11
)
