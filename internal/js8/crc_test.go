package js8

import "testing"

func TestCRC12RoundTrip(t *testing.T) {
	msg := make([]int, 76)
	for i := range msg[:75] {
		msg[i] = (i * 7) % 2
	}
	crc := CRC12(msg)

	var a174 [NCodewordBits]int
	copy(a174[87:162], msg[:75])
	copy(a174[162:174], crc[:])

	if !CheckCRC(a174) {
		t.Fatal("CheckCRC rejected a codeword whose CRC was computed by CRC12 itself")
	}
}

func TestCheckCRCRejectsMismatch(t *testing.T) {
	var a174 [NCodewordBits]int
	for i := 87; i < 162; i++ {
		a174[i] = (i % 2)
	}
	// Leave CRC bits zero: almost certainly wrong for a nonzero message.
	if CheckCRC(a174) {
		t.Fatal("CheckCRC accepted a codeword with a mismatched CRC")
	}
}

func TestCheckCRCRejectsAllZeroMessage(t *testing.T) {
	var a174 [NCodewordBits]int
	// Message bits all zero; even if CRC bits happen to "match" a
	// zero-message CRC, the decode must be rejected as spurious before
	// the CRC compare.
	msg76 := make([]int, 76)
	crc := CRC12(msg76)
	copy(a174[162:174], crc[:])

	if CheckCRC(a174) {
		t.Fatal("CheckCRC accepted an all-zero message codeword")
	}
}
