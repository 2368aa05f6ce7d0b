package waveform

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWAV synthesizes a short mono 16-bit PCM WAV file for the
// reader tests below, so they don't depend on a binary fixture checked
// into the repo.
func writeTestWAV(t *testing.T, dir string, rate, numSamples int) string {
	t.Helper()
	path := filepath.Join(dir, "test.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating test wav: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	data := make([]int, numSamples)
	for i := range data {
		if i%2 == 0 {
			data[i] = 1000
		} else {
			data[i] = -1000
		}
	}
	buf := &audio.IntBuffer{
		Data:   data,
		Format: &audio.Format{NumChannels: 1, SampleRate: rate},
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("writing test wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("closing encoder: %v", err)
	}
	return path
}

func TestReadWAV(t *testing.T) {
	path := writeTestWAV(t, t.TempDir(), 6000, 12000)

	samples, rate, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if rate != 6000 {
		t.Errorf("rate = %d, want 6000", rate)
	}
	if len(samples) != 12000 {
		t.Errorf("len(samples) = %d, want 12000", len(samples))
	}
	for _, s := range samples {
		if s < -1 || s > 1 {
			t.Fatalf("sample out of [-1,1]: %v", s)
		}
	}
}

func TestStreamingReaderCycles(t *testing.T) {
	path := writeTestWAV(t, t.TempDir(), 6000, 12000)

	r, err := NewStreamingReader(path)
	if err != nil {
		t.Fatalf("NewStreamingReader: %v", err)
	}
	defer r.Close()

	if r.SampleRate() != 6000 {
		t.Errorf("SampleRate() = %d, want 6000", r.SampleRate())
	}
	if r.Remaining() != 12000 {
		t.Errorf("Remaining() = %d, want 12000 before any reads", r.Remaining())
	}

	var total int
	for {
		cycle, err := r.ReadCycle(2048)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadCycle: %v", err)
		}
		total += len(cycle)
		for _, s := range cycle {
			if s < -1 || s > 1 {
				t.Fatalf("streamed sample out of [-1,1]: %v", s)
			}
		}
	}
	if total != 12000 {
		t.Errorf("total samples read = %d, want 12000", total)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining() = %d after draining, want 0", r.Remaining())
	}
}

func TestNewStreamingReaderMissingFile(t *testing.T) {
	if _, err := NewStreamingReader(filepath.Join(t.TempDir(), "nonexistent.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
