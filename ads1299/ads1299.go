// Package ads1299 defines the register map and bitfield constants of the
// Texas Instruments ADS1299 analog front end used on the HackEEG shield.
// Values follow the ADS1299 datasheet (SBAS499); names follow the HackEEG
// firmware conventions.
package ads1299

// Register addresses
const (
	ID         = 0x00
	CONFIG1    = 0x01
	CONFIG2    = 0x02
	CONFIG3    = 0x03
	LOFF       = 0x04
	CH1SET     = 0x05
	CH2SET     = 0x06
	CH3SET     = 0x07
	CH4SET     = 0x08
	CH5SET     = 0x09
	CH6SET     = 0x0a
	CH7SET     = 0x0b
	CH8SET     = 0x0c
	BIAS_SENSP = 0x0d
	BIAS_SENSN = 0x0e
	LOFF_SENSP = 0x0f
	LOFF_SENSN = 0x10
	LOFF_FLIP  = 0x11
	LOFF_STATP = 0x12
	LOFF_STATN = 0x13
	GPIO       = 0x14
	MISC1      = 0x15
	MISC2      = 0x16
	CONFIG4    = 0x17

	CHnSET = CH1SET - 1 // CHnSET + channel (1..8) yields CH1SET..CH8SET
)

// CONFIG1: output data rate selection
const (
	CONFIG1_const    = 0x90 // reserved bits that must read back as written
	HIGH_RES_16k_SPS = 0x00
	HIGH_RES_8k_SPS  = 0x01
	HIGH_RES_4k_SPS  = 0x02
	HIGH_RES_2k_SPS  = 0x03
	HIGH_RES_1k_SPS  = 0x04
	HIGH_RES_500_SPS = 0x05
	HIGH_RES_250_SPS = 0x06
)

// CONFIG2: internal test signal configuration
const (
	CONFIG2_const = 0xc0            // reserved bits that must read back as written
	INT_TEST      = 0x10            // test signals generated internally
	TEST_AMP      = 0x04            // doubled test signal amplitude
	INT_TEST_1HZ  = INT_TEST | 0x00 // pulsed at fCLK / 2^21
	INT_TEST_4HZ  = INT_TEST | 0x01 // pulsed at fCLK / 2^20
	INT_TEST_DC   = INT_TEST | 0x03 // DC test signal
)

// CONFIG3: reference and bias buffer configuration
const (
	CONFIG3_const = 0x60 // reserved bits that must read back as written
	PD_REFBUF     = 0x80 // internal reference buffer enabled
	BIAS_MEAS     = 0x10
	BIASREF_INT   = 0x08
	PD_BIAS       = 0x04 // bias buffer enabled
)

// CHnSET: per-channel power-down, gain and input mux
const (
	PDn             = 0x80 // channel power-down
	GAIN_1X         = 0x00
	GAIN_2X         = 0x10
	GAIN_4X         = 0x20
	GAIN_6X         = 0x30
	GAIN_8X         = 0x40
	GAIN_12X        = 0x50
	GAIN_24X        = 0x60
	SRB2            = 0x08
	ELECTRODE_INPUT = 0x00 // normal electrode input
	SHORTED         = 0x01 // inputs shorted, for offset measurements
	BIAS_MEASURE    = 0x02
	MVDD            = 0x03 // supply measurement
	TEMP            = 0x04 // temperature sensor
	TEST_SIGNAL     = 0x05
	BIAS_DRP        = 0x06 // positive electrode is the bias driver
	BIAS_DRN        = 0x07 // negative electrode is the bias driver
)

// MISC1
const (
	MISC1_const = 0x00
	SRB1        = 0x20 // route reference electrode to all negative inputs
)

// BIAS_SENSP: channel positive signals routed into bias derivation
const (
	BIAS1P = 0x01
	BIAS2P = 0x02
	BIAS3P = 0x04
	BIAS4P = 0x08
	BIAS5P = 0x10
	BIAS6P = 0x20
	BIAS7P = 0x40
	BIAS8P = 0x80
)

// Channel count of the ADS1299-8
const NumChannels = 8

// SampleRates maps supported output data rates in samples per second to
// their CONFIG1 data rate bits.
var SampleRates = map[int]byte{
	250:   HIGH_RES_250_SPS,
	500:   HIGH_RES_500_SPS,
	1000:  HIGH_RES_1k_SPS,
	2000:  HIGH_RES_2k_SPS,
	4000:  HIGH_RES_4k_SPS,
	8000:  HIGH_RES_8k_SPS,
	16000: HIGH_RES_16k_SPS,
}

// Gains maps supported PGA gains to their CHnSET gain bits.
var Gains = map[int]byte{
	1:  GAIN_1X,
	2:  GAIN_2X,
	4:  GAIN_4X,
	6:  GAIN_6X,
	8:  GAIN_8X,
	12: GAIN_12X,
	24: GAIN_24X,
}
