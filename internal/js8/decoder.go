package js8

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// Callback receives each accepted decode:
// the 87 payload+CRC bits, the estimated start/end frequency (hz1 != hz0
// signals drift), the offset in seconds past the window start, an
// optional decoder comment, and the estimated SNR. Its return value
// controls what the decoder does next: 0 means uninterested, 1 means
// acknowledged but not new, 2 means new and triggers subtraction of this
// decode from the working buffer.
type Callback func(bits87 [NMessageBits]int, hz0, hz1, offSec float64, comment string, snr float64) int

const (
	// CBIgnore and friends name the three callback return codes so
	// callers don't need to remember bare integers.
	CBIgnore       = 0
	CBAcknowledged = 1
	CBNewSubtract  = 2
)

// DupSet is the duplicate-text suppression set: a decoded text string may
// be reported at most once per window. It is shared across every sub-band
// worker and pass, and cleared only at window boundaries.
type DupSet struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewDupSet returns an empty duplicate set.
func NewDupSet() *DupSet {
	return &DupSet{seen: make(map[string]bool)}
}

// CheckAndAdd reports whether text has already been seen in this window;
// if not, it records it and returns false.
func (d *DupSet) CheckAndAdd(text string) (alreadySeen bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[text] {
		return true
	}
	d.seen[text] = true
	return false
}

// Clear empties the set at a window boundary.
func (d *DupSet) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = make(map[string]bool)
}

// Decoder owns the tunables, FFT plan cache and diagnostic logger shared
// by every window this instance decodes. Nothing else persists between
// windows except an externally-owned DupSet: a decoder takes a window,
// runs its sub-band workers, emits any decodes via the callback, and is
// done with it.
type Decoder struct {
	Config Config
	Cache  *PlanCache
	Logger *log.Logger

	// cbMu serializes the user callback across concurrent sub-band
	// workers, so downstream observers see one decode at a time.
	cbMu sync.Mutex
}

// NewDecoder builds a Decoder with its own FFT plan cache. When diag or
// cfg.Diagnostics is true, a charmbracelet/log logger at Debug level is
// attached; otherwise Logger is nil and the decoder is silent.
func NewDecoder(cfg Config, diag bool) *Decoder {
	d := &Decoder{Config: cfg, Cache: NewPlanCache()}
	if diag || cfg.Diagnostics {
		l := log.New(os.Stderr)
		l.SetLevel(log.DebugLevel)
		d.Logger = l
	}
	return d
}

func (d *Decoder) debugf(format string, args ...any) {
	if d.Logger != nil {
		d.Logger.Debugf(format, args...)
	}
}

func (d *Decoder) invokeCallback(cb Callback, bits87 [NMessageBits]int, hz0, hz1, offSec float64, comment string, snr float64) int {
	d.cbMu.Lock()
	defer d.cbMu.Unlock()
	return cb(bits87, hz0, hz1, offSec, comment, snr)
}
