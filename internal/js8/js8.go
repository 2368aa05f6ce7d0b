// Package js8 implements the JS8 weak-signal decoder core: coarse
// time/frequency search, fine alignment, soft-symbol demodulation,
// LDPC(174,87) decoding, CRC-12 verification, and iterative signal
// subtraction over a 15-second audio window.
//
// It does not touch a sound card, a radio, or a terminal. Callers feed it
// a window of samples (see internal/waveform for a reference feeder) and
// receive decoded messages through a callback.
package js8

// Costas is the 7-symbol Costas sync array JS8 inserts at symbol
// positions 0, 36 and 72 of every 79-symbol transmission.
var Costas = [7]int{4, 2, 5, 6, 1, 3, 0}

const (
	// NSymbols is the number of FSK-8 symbols in one JS8 transmission.
	NSymbols = 79
	// NCodewordBits is the number of LDPC codeword bits (87 parity + 87 data).
	NCodewordBits = 174
	// NMessageBits is the number of message bits (payload+CRC) the LDPC
	// decoder yields on success.
	NMessageBits = 87
	// NDataSymbols is the number of non-Costas symbols, each carrying 3 bits.
	NDataSymbols = 58
	// ToneSpacingHz is the spacing between the 8 tones of an FSK-8 symbol.
	ToneSpacingHz = 6.25
	// symbolSamplesNumerator/Denominator express the symbol period in
	// samples at a given rate r as r*1920/12000, matching the FT8/JS8
	// reference symbol length of 1920 samples at 12000 samples/second.
	symbolSamplesNumerator   = 1920
	symbolSamplesDenominator = 12000
	// MaxLLR is the clamp applied to all log-likelihood ratios.
	MaxLLR = 4.97
)

// costasSymbolIndices reports whether i79 is a Costas sync symbol, and if
// so which of the 7 sync positions it is.
func costasSymbolIndices(i79 int) (ci int, isCostas bool) {
	switch {
	case i79 < 7:
		return i79, true
	case i79 >= 36 && i79 < 36+7:
		return i79 - 36, true
	case i79 >= 72:
		return i79 - 72, true
	default:
		return -1, false
	}
}

// BlockSize returns the number of samples per symbol at the given rate,
// matching JS8's reference symbol length of 1920 samples at 12000
// samples/second. Callers only use rates that divide evenly.
func BlockSize(rate int) int {
	return rate * symbolSamplesNumerator / symbolSamplesDenominator
}

// BinHz returns the FFT bin spacing in Hz for a block of the given size
// taken at the given rate.
func BinHz(rate, block int) float64 {
	return float64(rate) / float64(block)
}

// Recode turns 174 LDPC-corrected bits back into the 79 symbol numbers
// that must have been transmitted: the three Costas arrays at their fixed
// positions, and 3 bits-per-symbol for the 58 data symbols in between.
func Recode(a174 [NCodewordBits]int) [NSymbols]int {
	var out79 [NSymbols]int
	i174 := 0
	for i79 := 0; i79 < NSymbols; i79++ {
		if ci, isCostas := costasSymbolIndices(i79); isCostas {
			out79[i79] = Costas[ci]
			continue
		}
		sym := (a174[i174] << 2) | (a174[i174+1] << 1) | a174[i174+2]
		i174 += 3
		out79[i79] = sym
	}
	return out79
}

// ExtractBits strips the three Costas blocks out of a 79-symbol sequence,
// leaving the 174 data bits (3 per data symbol, most-significant bit
// first).
func ExtractBits(syms [NSymbols]int) [NCodewordBits]int {
	var bits [NCodewordBits]int
	i := 0
	for i79 := 0; i79 < NSymbols; i79++ {
		if _, isCostas := costasSymbolIndices(i79); isCostas {
			continue
		}
		s := syms[i79]
		bits[i] = (s >> 2) & 1
		bits[i+1] = (s >> 1) & 1
		bits[i+2] = s & 1
		i += 3
	}
	return bits
}
