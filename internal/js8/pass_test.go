package js8

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"
)

func TestPartitionOverlapsInteriorBoundaries(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NThreads = 3
	cfg.Overlap = 10
	bands := Partition(0, 300, cfg)
	if len(bands) != 3 {
		t.Fatalf("len(bands) = %d, want 3", len(bands))
	}
	if bands[0].Lo != 0 {
		t.Fatalf("first band Lo = %v, want 0 (no overlap before the first band)", bands[0].Lo)
	}
	if bands[len(bands)-1].Hi != 300 {
		t.Fatalf("last band Hi = %v, want 300 (no overlap after the last band)", bands[len(bands)-1].Hi)
	}
	// Interior boundary between band 0 and band 1 should overlap by Overlap on each side.
	if bands[0].Hi <= 100 {
		t.Fatalf("band 0 Hi = %v, want > 100 (widened by overlap)", bands[0].Hi)
	}
	if bands[1].Lo >= 100 {
		t.Fatalf("band 1 Lo = %v, want < 100 (widened by overlap)", bands[1].Lo)
	}
}

func TestPadWithNoiseLeavesShortInputUntouchedInPrefix(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	in := []float64{1, 2, 3}
	out := padWithNoise(in, 10, rng)
	if len(out) != 10 {
		t.Fatalf("len(out) = %d, want 10", len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("padWithNoise changed original sample %d", i)
		}
	}
}

func TestPadWithNoiseNoOpWhenAlreadyLongEnough(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	in := make([]float64, 20)
	out := padWithNoise(in, 10, rng)
	if len(out) != len(in) {
		t.Fatalf("padWithNoise shortened an already-sufficient buffer")
	}
}

func TestAbortPassAlwaysAttemptsStrongestCandidate(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Second)

	// Every deadline already expired: candidate 0 must still be attempted.
	if abortPass(0, now, past, past, past, 0, false) {
		t.Fatal("abortPass(ii=0) = true, want the strongest candidate always attempted")
	}
	// ...but candidate 1 is abandoned under the same conditions.
	if !abortPass(1, now, past, past, past, 0, false) {
		t.Fatal("abortPass(ii=1) = false with every deadline expired, want abort")
	}
}

func TestAbortPassGraceAndLastChance(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Second)
	future := now.Add(time.Second)

	// Pass deadline expired but no decodes yet and the window still has
	// time: keep going.
	if abortPass(1, now, past, future, past, 0, false) {
		t.Fatal("abortPass = true during the no-decodes grace period, want continue")
	}
	// A decode already landed, so the grace lapses.
	if !abortPass(1, now, past, future, past, 1, false) {
		t.Fatal("abortPass = false after a decode consumed the grace, want abort")
	}
	// Last pass holds on until the hard deadline.
	if abortPass(1, now, past, past, future, 1, true) {
		t.Fatal("abortPass = true on the last pass before the hard deadline, want continue")
	}
	if !abortPass(1, now, past, past, past, 1, true) {
		t.Fatal("abortPass = false on the last pass past the hard deadline, want abort")
	}
	// Before the pass deadline nothing aborts.
	if abortPass(5, now, future, past, past, 3, false) {
		t.Fatal("abortPass = true before the pass deadline, want continue")
	}
}

func TestDecodeReturnsPromptlyUnderZeroBudget(t *testing.T) {
	// A near-zero budget with several coarse candidates in the band: the
	// strongest candidate of each pass is still attempted, the rest are
	// abandoned, and Decode comes back without burning the full window.
	const rate = 6000
	const n = 5 * rate

	rng := rand.New(rand.NewSource(9))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.1 * rng.NormFloat64()
	}
	// Two unmodulated carriers so the coarse search has distinct peaks to
	// rank; neither is decodable, which is the worst case for the budget.
	for i := range samples {
		samples[i] += 0.5 * math.Sin(2*math.Pi*400*float64(i)/rate)
		samples[i] += 0.5 * math.Sin(2*math.Pi*500*float64(i)/rate)
	}

	cfg := DefaultConfig()
	cfg.NThreads = 1
	cfg.NPasses = 2
	cfg.Budget = 0.001
	cfg.FinalDeadline = 0.001
	cfg.MinHz = 300
	cfg.MaxHz = 600

	d := NewDecoder(cfg, false)
	dups := NewDupSet()

	start := time.Now()
	d.Decode(context.Background(), samples, rate, 0.5*rate, cfg.MinHz, cfg.MaxHz, nil, nil, dups,
		func(bits87 [NMessageBits]int, hz0, hz1, offSec float64, comment string, snr float64) int {
			return CBIgnore
		})
	elapsed := time.Since(start)

	// Generous bound: one attempted candidate per pass plus coarse search,
	// nowhere near the cost of working through every candidate.
	if elapsed > 30*time.Second {
		t.Fatalf("Decode took %v under a 1ms budget, want a prompt return", elapsed)
	}
}

func TestAlreadyBucketGroupsNearbyFrequencies(t *testing.T) {
	if alreadyBucket(1000, 7.5) != alreadyBucket(1004, 7.5) {
		t.Fatal("frequencies within one bucket width should map to the same bucket")
	}
	if alreadyBucket(1000, 7.5) == alreadyBucket(1100, 7.5) {
		t.Fatal("frequencies far apart should map to different buckets")
	}
}

func TestBitsKeyDistinguishesPayloads(t *testing.T) {
	var a, b [NMessageBits]int
	b[0] = 1
	if bitsKey(a) == bitsKey(b) {
		t.Fatal("bitsKey should differ for different payloads")
	}
	if bitsKey(a) != bitsKey(a) {
		t.Fatal("bitsKey should be stable for the same payload")
	}
}

func TestPinHintBitsSetsTrailingLLRs(t *testing.T) {
	var ll174 [NCodewordBits]float64
	pinHintBits(&ll174, 0x1) // only the lowest hint bit set
	base := NCodewordBits - 28
	for i := 0; i < 27; i++ {
		if ll174[base+i] != MaxLLR {
			t.Fatalf("ll174[%d] = %v, want +MaxLLR for a zero hint bit", base+i, ll174[base+i])
		}
	}
	if ll174[base+27] != -MaxLLR {
		t.Fatalf("ll174[%d] = %v, want -MaxLLR for the set hint bit", base+27, ll174[base+27])
	}
}

func TestEstimateSNRHigherForCleanSignal(t *testing.T) {
	var clean, noisy [NSymbols][8]float64
	for i79 := 0; i79 < NSymbols; i79++ {
		if ci, ok := costasSymbolIndices(i79); ok {
			for t := 0; t < 8; t++ {
				if t == Costas[ci] {
					clean[i79][t] = 20
				} else {
					clean[i79][t] = 1
				}
				noisy[i79][t] = 5
			}
			continue
		}
		for t := 0; t < 8; t++ {
			clean[i79][t] = 2
			noisy[i79][t] = 5
		}
	}
	if estimateSNR(clean) <= estimateSNR(noisy) {
		t.Fatal("estimateSNR should score a clean sync higher than flat noise")
	}
}

// buildValidCodeword constructs a full 174-bit codeword whose message
// portion carries a nonzero payload with a correct trailing CRC-12, so it
// survives CheckCRC; used to sanity-check the encode/CRC plumbing that
// runSubBand's decodeCandidate relies on.
func buildValidCodeword(seed int64) [NCodewordBits]int {
	rng := rand.New(rand.NewSource(seed))
	msg75 := make([]int, 75)
	for i := range msg75 {
		msg75[i] = rng.Intn(2)
	}
	msg75[0] = 1 // guarantee non-all-zero
	msg76 := append(append([]int(nil), msg75...), 0)
	crc := CRC12(msg76)

	var message [NMessageBits]int
	copy(message[:75], msg75)
	copy(message[75:87], crc[:])

	return Encode(message)
}

func TestBuildValidCodewordSurvivesCRCAndRecode(t *testing.T) {
	codeword := buildValidCodeword(11)
	if !CheckCRC(codeword) {
		t.Fatal("buildValidCodeword produced a codeword CheckCRC rejects")
	}
	re79 := Recode(codeword)
	if back := ExtractBits(re79); back != codeword {
		t.Fatal("Recode/ExtractBits round trip mismatch on a constructed codeword")
	}
}
