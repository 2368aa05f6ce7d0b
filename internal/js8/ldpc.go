package js8

import (
	"math"
	"math/rand"
)

// ldpcSeed and ldpcColDegree parameterize the deterministic construction
// of the rate-1/2 (174,87) parity-check matrix used by this package: a
// regular low-density code built once at init, with a fixed seed so every
// run of this binary sees the same code (no global math/rand state is
// shared: each attempt gets its own *rand.Rand). Swapping in the
// published on-air matrix only requires replacing buildParityCheck.
const (
	ldpcSeed      = 0x4a533820
	ldpcColDegree = 3
)

// code is the parity-check matrix (in systematic form, columns 0..86
// forming the identity block) and its derived generator, built once.
type code struct {
	h [][]uint8 // 87 rows x 174 columns, 0/1 entries
	p [][]uint8 // 87 x 87 parity-from-message matrix: parity = p * message (GF2)

	checkVars [][]int // per check row, indices of variables with a 1
	varChecks [][]int // per variable column, indices of checks with a 1
}

var ldpcCode = buildCode()

func buildCode() code {
	for attempt := 0; ; attempt++ {
		h := buildParityCheck(rand.New(rand.NewSource(ldpcSeed + int64(attempt))))
		p, ok := deriveSystematic(h)
		if !ok {
			continue
		}
		return code{
			h:         h,
			p:         p,
			checkVars: adjacencyByRow(h),
			varChecks: adjacencyByColumn(h),
		}
	}
}

// buildParityCheck generates an 87x174 bipartite graph via the
// configuration model: each of the 174 variable columns takes up to
// ldpcColDegree distinct check rows, in order, from a shuffled multiset of
// row sockets so row degrees stay balanced. A socket naming a row the
// column already uses is consumed and skipped, so the last columns can
// end up with fewer than ldpcColDegree rows.
func buildParityCheck(rng *rand.Rand) [][]uint8 {
	const rows, cols = NMessageBits, NCodewordBits
	h := make([][]uint8, rows)
	for i := range h {
		h[i] = make([]uint8, cols)
	}

	sockets := make([]int, 0, cols*ldpcColDegree)
	for r := 0; r < rows; r++ {
		for k := 0; k < cols*ldpcColDegree/rows; k++ {
			sockets = append(sockets, r)
		}
	}
	for len(sockets) < cols*ldpcColDegree {
		sockets = append(sockets, rng.Intn(rows))
	}
	rng.Shuffle(len(sockets), func(i, j int) { sockets[i], sockets[j] = sockets[j], sockets[i] })

	si := 0
	for c := 0; c < cols; c++ {
		used := make(map[int]bool, ldpcColDegree)
		picked := 0
		attempts := 0
		for picked < ldpcColDegree && si < len(sockets) {
			r := sockets[si]
			si++
			if used[r] {
				attempts++
				if attempts > len(sockets) {
					break
				}
				continue
			}
			used[r] = true
			h[r][c] = 1
			picked++
		}
	}
	return h
}

// deriveSystematic runs Gauss-Jordan elimination over GF(2), restricted to
// using columns 0..86 as pivots, so the result is [I_87 | P]: column i
// (i<87) becomes the i-th unit vector, and columns 87..173 form the
// parity-from-message matrix p returned to the caller. Column positions
// never move — only row combinations — so bit index 87..173 keeps its
// meaning as "message bit" per the codeword layout the rest of this
// package assumes.
func deriveSystematic(h [][]uint8) ([][]uint8, bool) {
	const rows = NMessageBits
	work := make([][]uint8, rows)
	for i := range h {
		work[i] = append([]uint8(nil), h[i]...)
	}

	for pivotCol := 0; pivotCol < rows; pivotCol++ {
		pivotRow := -1
		for r := pivotCol; r < rows; r++ {
			if work[r][pivotCol] == 1 {
				pivotRow = r
				break
			}
		}
		if pivotRow == -1 {
			return nil, false
		}
		work[pivotRow], work[pivotCol] = work[pivotCol], work[pivotRow]

		for r := 0; r < rows; r++ {
			if r != pivotCol && work[r][pivotCol] == 1 {
				xorRow(work[r], work[pivotCol])
			}
		}
	}

	for i := range h {
		h[i] = work[i]
	}

	p := make([][]uint8, rows)
	for i := range p {
		p[i] = make([]uint8, rows)
		copy(p[i], h[i][rows:])
	}
	return p, true
}

func xorRow(dst, src []uint8) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

func adjacencyByRow(h [][]uint8) [][]int {
	out := make([][]int, len(h))
	for r, row := range h {
		for c, v := range row {
			if v == 1 {
				out[r] = append(out[r], c)
			}
		}
	}
	return out
}

func adjacencyByColumn(h [][]uint8) [][]int {
	if len(h) == 0 {
		return nil
	}
	out := make([][]int, len(h[0]))
	for r, row := range h {
		for c, v := range row {
			if v == 1 {
				out[c] = append(out[c], r)
			}
		}
	}
	return out
}

// Encode produces a 174-bit systematic codeword from 87 message bits:
// parity = p*message (GF2), codeword = [parity | message].
func Encode(message [NMessageBits]int) [NCodewordBits]int {
	var out [NCodewordBits]int
	for i := 0; i < NMessageBits; i++ {
		var bit int
		row := ldpcCode.p[i]
		for j, v := range row {
			if v == 1 {
				bit ^= message[j]
			}
		}
		out[i] = bit
	}
	copy(out[NMessageBits:], message[:])
	return out
}

// Decode runs max-log (min-sum) belief propagation over ll174 for at most
// iters iterations, stopping early once all 87 parity checks are
// satisfied. It returns the hard-decision codeword and the number of
// satisfied checks; the caller treats a count of NMessageBits as success.
func Decode(ll174 [NCodewordBits]float64, iters int) ([NCodewordBits]int, int) {
	const rows, cols = NMessageBits, NCodewordBits
	c := ldpcCode

	// v2c[check][variable]: message from variable to check, indexed
	// sparsely by the adjacency lists below.
	v2c := make([]map[int]float64, rows)
	c2v := make([]map[int]float64, rows)
	for r := 0; r < rows; r++ {
		v2c[r] = make(map[int]float64, len(c.checkVars[r]))
		c2v[r] = make(map[int]float64, len(c.checkVars[r]))
		for _, v := range c.checkVars[r] {
			v2c[r][v] = ll174[v]
		}
	}

	total := make([]float64, cols)
	copy(total, ll174[:])

	var bits [NCodewordBits]int
	satisfied := 0

	for iter := 0; iter < iters; iter++ {
		// Check-to-variable update (min-sum).
		for r := 0; r < rows; r++ {
			vars := c.checkVars[r]
			for _, vOut := range vars {
				sign := 1.0
				min1 := math.MaxFloat64
				for _, v := range vars {
					if v == vOut {
						continue
					}
					m := v2c[r][v]
					if m < 0 {
						sign = -sign
					}
					a := math.Abs(m)
					if a < min1 {
						min1 = a
					}
				}
				c2v[r][vOut] = sign * min1
			}
		}

		// Variable-to-check update and total belief.
		for v := 0; v < cols; v++ {
			sum := ll174[v]
			for _, r := range c.varChecks[v] {
				sum += c2v[r][v]
			}
			total[v] = sum
			for _, r := range c.varChecks[v] {
				v2c[r][v] = clampLLR(sum - c2v[r][v])
			}
		}

		satisfied = 0
		for r := 0; r < rows; r++ {
			parity := 0
			for _, v := range c.checkVars[r] {
				if total[v] < 0 {
					parity ^= 1
				}
			}
			if parity == 0 {
				satisfied++
			}
		}
		if satisfied == rows {
			break
		}
	}

	for v := 0; v < cols; v++ {
		if total[v] < 0 {
			bits[v] = 1
		}
	}
	return bits, satisfied
}

func clampLLR(x float64) float64 {
	if x > MaxLLR {
		return MaxLLR
	}
	if x < -MaxLLR {
		return -MaxLLR
	}
	return x
}
