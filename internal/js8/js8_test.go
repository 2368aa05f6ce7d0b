package js8

import (
	"math/rand"
	"testing"
)

func TestRecodeExtractBitsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var bits [NCodewordBits]int
	for i := range bits {
		bits[i] = rng.Intn(2)
	}

	syms := Recode(bits)
	for _, k := range [3]int{0, 36, 72} {
		for s := 0; s < 7; s++ {
			if syms[k+s] != Costas[s] {
				t.Fatalf("symbol %d = %d, want Costas[%d] = %d", k+s, syms[k+s], s, Costas[s])
			}
		}
	}

	back := ExtractBits(syms)
	if back != bits {
		t.Fatalf("ExtractBits(Recode(bits)) != bits")
	}
}

func TestBlockSizeAndBinHz(t *testing.T) {
	if got := BlockSize(12000); got != 1920 {
		t.Fatalf("BlockSize(12000) = %d, want 1920", got)
	}
	if got := BlockSize(2000); got != 320 {
		t.Fatalf("BlockSize(2000) = %d, want 320", got)
	}
	block := BlockSize(2000)
	if hz := BinHz(2000, block); hz != float64(2000)/float64(block) {
		t.Fatalf("BinHz = %v, want %v", hz, float64(2000)/float64(block))
	}
}

func TestCostasSymbolIndices(t *testing.T) {
	for _, i79 := range []int{0, 6, 36, 42, 72, 78} {
		if _, ok := costasSymbolIndices(i79); !ok {
			t.Fatalf("costasSymbolIndices(%d) reported not-Costas, want Costas", i79)
		}
	}
	for _, i79 := range []int{7, 35, 43, 71} {
		if _, ok := costasSymbolIndices(i79); ok {
			t.Fatalf("costasSymbolIndices(%d) reported Costas, want a data symbol", i79)
		}
	}
}
