// NXP GPMI/BCH/APBH raw NAND controller driver
// https://github.com/usbarmory/tamago
//
// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package gpmi

// APBH DMA register map, channel 0 only
// (p1240, 33.7 APBH Memory Map/Register Definition, IMX6ULLRM).
const (
	APBH_CTRL0     = 0x000
	APBH_CTRL0_SET = 0x004
	APBH_CTRL0_CLR = 0x008
	APBH_CTRL0_TOG = 0x00c

	APBH_CTRL1     = 0x010
	APBH_CTRL1_SET = 0x014
	APBH_CTRL1_CLR = 0x018
	APBH_CTRL1_TOG = 0x01c

	// CTRL1, per-channel completion IRQ enable, channel N at bit N+16
	CTRL1_CH0_IRQ_EN = 16

	// CTRL1, channel 0 completion IRQ status, distinct from the CH0_IRQ_EN
	// enable bit above: this is the bit the completion handler clears.
	CTRL1_CH0_IRQ = 0

	APBH_CH0_CURCMDAR = 0x100
	APBH_CH0_NXTCMDAR = 0x110
	APBH_CH0_CMD      = 0x120
	APBH_CH0_BAR      = 0x130
	APBH_CH0_SEMA     = 0x140
)

// GPMI register map
// (p1329, 34.7 GPMI Memory Map/Register Definition, IMX6ULLRM).
const (
	GPMI_CTRL0     = 0x000
	GPMI_CTRL0_SET = 0x004
	GPMI_CTRL0_CLR = 0x008
	GPMI_CTRL0_TOG = 0x00c

	GPMI_COMPARE = 0x010

	GPMI_ECCCTRL     = 0x020
	GPMI_ECCCTRL_SET = 0x024
	GPMI_ECCCTRL_CLR = 0x028
	GPMI_ECCCTRL_TOG = 0x02c

	GPMI_ECCCOUNT = 0x030
	GPMI_PAYLOAD  = 0x040
	GPMI_AUXILIARY = 0x050

	GPMI_CTRL1     = 0x060
	GPMI_CTRL1_SET = 0x064
	GPMI_CTRL1_CLR = 0x068
	GPMI_CTRL1_TOG = 0x06c

	// CTRL1, #R/B busy-low polarity
	CTRL1_BURST_EN    = 2
	CTRL1_GPMI_USE_MODEL = 3
	// CTRL1, write protect
	CTRL1_DEV_RESET = 18

	GPMI_TIMING0 = 0x070
	GPMI_TIMING1 = 0x080
	GPMI_TIMING2 = 0x090

	GPMI_STAT = 0x0b0
)

// GPMI CTRL0 field positions and transfer mode values
// (p1332, 34.7.1 GPMI Control Register 0, IMX6ULLRM).
const (
	GPMI_ADDRESS_INCREMENT = 1 << 16

	GPMI_DATA_BYTES    = 0
	GPMI_COMMAND_BYTES = 1 << 17
	GPMI_ADDRESS_BYTES = 2 << 17

	GPMI_CHIP_SELECT = 1 << 20

	GPMI_WORD_LENGTH_8BIT = 1 << 23

	GPMI_WRITE          = 0
	GPMI_READ           = 1 << 24
	GPMI_READ_COMPARE   = 2 << 24
	GPMI_WAIT_FOR_READY = 3 << 24

	GPMI_LOCK_CS = 1 << 27
)

// BCH register map
// (p1379, 35.7 BCH Memory Map/Register Definition, IMX6ULLRM).
const (
	BCH_CTRL     = 0x000
	BCH_CTRL_SET = 0x004
	BCH_CTRL_CLR = 0x008
	BCH_CTRL_TOG = 0x00c

	BCH_STATUS0 = 0x010

	BCH_LAYOUTSELECT = 0x070

	BCH_FLASH0LAYOUT0 = 0x080
	BCH_FLASH0LAYOUT1 = 0x090
)

// BCH CTRL bit positions
const (
	CTRL_COMPLETE_IRQ_EN = 8
	CTRL_SFTRST          = 31
	CTRL_CLKGATE         = 30

	// CTRL, BCH completion IRQ status, distinct from the COMPLETE_IRQ_EN
	// enable bit above: this is the bit the completion handler clears.
	CTRL_COMPLETE_IRQ = 0
)

// ECCCTRL field values, GPMI "enable ECC" and "write mode" bits plus
// ECC0_MODE encoding.
const (
	ECCCTRL_ENABLE_ECC = 1 << 12
	ECCCTRL_ECC_WRITE  = 1 << 13

	// ECC0_MODE: auxiliary-only versus full payload+auxiliary decode
	ECC_MODE_AUX_ONLY   = 0x100
	ECC_MODE_PAYLOAD_AUX = 0x1ff
)

// DMA descriptor transfer types and flag bits
// (dma_t.flags, flashdrv.c).
const (
	XferNone  = 0
	XferWrite = 1
	XferRead  = 2
	XferSense = 3

	FlagChain      = 1 << 2
	FlagIRQComplete = 1 << 3
	FlagNANDLock   = 1 << 4
	FlagWaitReady  = 1 << 5
	FlagDecrSema   = 1 << 6
	FlagWaitEndCmd = 1 << 7
	FlagHot        = 1 << 8
)

// DataPolicy constrains the data buffer size an issued NAND command accepts.
type DataPolicy int

const (
	// PolicyNone requires a zero-length data phase.
	PolicyNone DataPolicy = 0
	// PolicyFree requires a non-zero data phase, size chosen by the caller.
	PolicyFree DataPolicy = -1
	// PolicyAny imposes no constraint on the data phase size.
	PolicyAny DataPolicy = -2
	// positive values of DataPolicy denote an exact required size.
)

// command describes a single entry of the NAND command table: the leading
// command byte, the address field width, the data phase policy and an
// optional trailing command byte.
type command struct {
	cmd1   byte
	addrsz int
	data   DataPolicy
	cmd2   byte
}

// NAND command identifiers, indexing the commands table.
const (
	CmdReset = iota
	CmdReadID
	CmdReadParameterPage
	CmdReadUniqueID
	CmdGetFeatures
	CmdSetFeatures
	CmdReadStatus
	CmdReadStatusEnhanced
	CmdRandomDataRead
	CmdRandomDataReadTwoPlane
	CmdRandomDataInput
	CmdProgramForInternalDataMoveColumn
	CmdReadMode
	CmdReadPage
	CmdReadPageCacheSequential
	CmdReadPageCacheRandom
	CmdReadPageCacheLast
	CmdProgramPage
	CmdProgramPageCache
	CmdEraseBlock
	CmdReadForInternalDataMove
	CmdProgramForInternalDataMove
	CmdBlockUnlockLow
	CmdBlockUnlockHigh
	CmdBlockLock
	CmdBlockLockTight
	CmdBlockLockReadStatus
	CmdOTPDataLockByBlock
	CmdOTPDataProgram
	CmdOTPDataRead

	numCommands
)

// commands is the fixed NAND command table: each entry is
// (cmd1, addr_size, data_policy, cmd2).
var commands = [numCommands]command{
	CmdReset:                            {0xff, 0, PolicyNone, 0x00},
	CmdReadID:                           {0x90, 1, PolicyNone, 0x00},
	CmdReadParameterPage:                {0xec, 1, PolicyNone, 0x00},
	CmdReadUniqueID:                     {0xed, 1, PolicyNone, 0x00},
	CmdGetFeatures:                      {0xee, 1, PolicyNone, 0x00},
	CmdSetFeatures:                      {0xef, 1, 4, 0x00},
	CmdReadStatus:                       {0x70, 0, PolicyNone, 0x00},
	CmdReadStatusEnhanced:               {0x78, 3, PolicyNone, 0x00},
	CmdRandomDataRead:                   {0x05, 2, PolicyNone, 0xe0},
	CmdRandomDataReadTwoPlane:           {0x06, 5, PolicyNone, 0xe0},
	CmdRandomDataInput:                  {0x85, 2, PolicyAny, 0x00},
	CmdProgramForInternalDataMoveColumn: {0x85, 5, PolicyAny, 0x00},
	CmdReadMode:                         {0x00, 0, PolicyNone, 0x00},
	CmdReadPage:                         {0x00, 5, PolicyNone, 0x30},
	CmdReadPageCacheSequential:          {0x31, 0, PolicyNone, 0x00},
	CmdReadPageCacheRandom:              {0x00, 5, PolicyNone, 0x31},
	CmdReadPageCacheLast:                {0x3f, 0, PolicyNone, 0x00},
	CmdProgramPage:                      {0x80, 5, PolicyFree, 0x10},
	CmdProgramPageCache:                 {0x80, 5, PolicyFree, 0x15},
	CmdEraseBlock:                       {0x60, 3, PolicyNone, 0xd0},
	CmdReadForInternalDataMove:          {0x00, 5, PolicyNone, 0x35},
	CmdProgramForInternalDataMove:       {0x85, 5, PolicyAny, 0x10},
	CmdBlockUnlockLow:                   {0x23, 3, PolicyNone, 0x00},
	CmdBlockUnlockHigh:                  {0x24, 3, PolicyNone, 0x00},
	CmdBlockLock:                        {0x2a, 0, PolicyNone, 0x00},
	CmdBlockLockTight:                   {0x2c, 0, PolicyNone, 0x00},
	CmdBlockLockReadStatus:              {0x7a, 3, PolicyNone, 0x00},
	CmdOTPDataLockByBlock:               {0x80, 5, PolicyNone, 0x10},
	CmdOTPDataProgram:                   {0x80, 5, PolicyFree, 0x10},
	CmdOTPDataRead:                      {0x00, 5, PolicyNone, 0x30},
}

// default BCH layout: 8 blocks/page, 16-byte metadata, ECC16 on sub-block
// 0, ECC14 on sub-blocks 1..7, GF13, 4096+224 page, 128-word (512-byte)
// sub-blocks. The asymmetric ECC strength between sub-block 0 and the rest
// is preserved as found, not rationalized.
const (
	layout0BlocksPerPage = 8
	layout0MetaBytes     = 16
	layout0ECC0Strength  = 8 // ECC16 == strength value 8
	layout0GF            = 0
	layout0Data0Words    = 0

	layoutNECCStrength = 7 // ECC14 == strength value 7
	layoutNGF          = 0
	layoutNDataWords   = 128
)
