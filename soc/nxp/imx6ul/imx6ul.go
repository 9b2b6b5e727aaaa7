// NXP i.MX6UL configuration and support
// https://github.com/usbarmory/tamago
//
// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package imx6ul provides support to Go bare metal unikernels, written using
// the TamaGo framework, on the NXP i.MX6UL family of System-on-Chip (SoC)
// application processors.
//
// The package implements the subset of initialization and peripheral
// register maps required to drive the raw NAND flash controller complex
// (APBH DMA, GPMI, BCH), adopting the following reference specifications:
//   - IMX6ULLCEC - i.MX6ULL Data Sheet                               - Rev 1.2 2017/11
//   - IMX6ULLRM  - i.MX 6ULL Applications Processor Reference Manual - Rev 1   2017/11
//
// This package is only meant to be used with `GOOS=tamago GOARCH=arm` as
// supported by the TamaGo framework for bare metal Go on ARM SoCs, see
// https://github.com/usbarmory/tamago.
package imx6ul

import (
	"github.com/usbarmory/tamago-nand/arm/gic"
)

// Peripheral registers
const (
	// APBH DMA controller, drives descriptor chains for GPMI/BCH
	APBH_BASE = 0x01804000

	// General-Purpose Media Interface, NAND/NOR/SD PIO front-end
	GPMI_BASE = 0x01806000

	// Bose-Chaudhuri-Hocquenghem ECC engine
	BCH_BASE = 0x01808000

	// IOMUX Controller, pad muxing for the NAND data/control pins
	IOMUXC_BASE = 0x020e0000

	// General Interrupt Controller
	GIC_BASE = 0x00a00000

	// IRQ lines, GIC numbering (32 + SoC interrupt number)
	APBH_DMA_IRQ = 32 + 13
	BCH_IRQ      = 32 + 15
	GPMI_IRQ     = 32 + 16

	// On-Chip Random-Access Memory, used as the default DMA region for
	// descriptor chains and page buffers
	OCRAM_START = 0x00900000
	OCRAM_SIZE  = 0x20000
)

// Peripheral instances
var (
	// Generic Interrupt Controller
	GIC = &gic.GIC{
		Base: GIC_BASE,
	}
)
