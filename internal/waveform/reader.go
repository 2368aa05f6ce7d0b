// Package waveform reads WAV audio into the float64 sample buffers the
// js8 decoder core operates on, and assembles them into the overlapping
// 15-second decode windows the decoder expects from its upstream feeder.
package waveform

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadWAV reads an entire WAV file into a normalized ([-1,1]) float64
// sample slice, for offline decoding of a captured file in one shot.
func ReadWAV(filename string) ([]float64, int, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, 0, fmt.Errorf("waveform: opening %s: %w", filename, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("waveform: %s is not a valid WAV file", filename)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("waveform: reading PCM from %s: %w", filename, err)
	}

	samples := make([]float64, len(buf.Data))
	maxVal := float64(audio.IntMaxSignedValue(int(decoder.BitDepth)))
	for i, s := range buf.Data {
		samples[i] = float64(s) / maxVal
	}

	return samples, int(decoder.SampleRate), nil
}

// StreamingReader hands out a WAV file one decode cycle at a time, so the
// CLI's --stream mode can drive a CycleFeeder the way a live capture
// would, without ever holding the whole file in memory.
type StreamingReader struct {
	decoder   *wav.Decoder
	file      *os.File
	scale     float64 // 1/full-scale for the file's bit depth
	remaining int64   // samples left per the header
}

// NewStreamingReader opens filename and reads its WAV header without
// buffering any sample data.
func NewStreamingReader(filename string) (*StreamingReader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("waveform: opening %s: %w", filename, err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("waveform: %s is not a valid WAV file", filename)
	}
	if err := decoder.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("waveform: seeking to PCM data in %s: %w", filename, err)
	}

	total := int64(decoder.PCMLen()) / (int64(decoder.BitDepth/8) * int64(decoder.NumChans))
	return &StreamingReader{
		decoder:   decoder,
		file:      f,
		scale:     1 / float64(audio.IntMaxSignedValue(int(decoder.BitDepth))),
		remaining: total,
	}, nil
}

// ReadCycle reads up to numSamples more normalized samples, returning
// io.EOF once the file is exhausted. A short final cycle is returned
// as-is; the decoder's noise padding absorbs it.
func (r *StreamingReader) ReadCycle(numSamples int) ([]float64, error) {
	if r.remaining <= 0 {
		return nil, io.EOF
	}
	if int64(numSamples) > r.remaining {
		numSamples = int(r.remaining)
	}

	intBuf := &audio.IntBuffer{
		Data: make([]int, numSamples),
		Format: &audio.Format{
			NumChannels: int(r.decoder.NumChans),
			SampleRate:  int(r.decoder.SampleRate),
		},
	}
	n, err := r.decoder.PCMBuffer(intBuf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("waveform: reading PCM cycle: %w", err)
	}
	if n == 0 {
		return nil, io.EOF
	}
	r.remaining -= int64(n)

	samples := make([]float64, n)
	for i, s := range intBuf.Data[:n] {
		samples[i] = float64(s) * r.scale
	}
	return samples, nil
}

// Close closes the underlying file.
func (r *StreamingReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Remaining returns how many samples are left to read.
func (r *StreamingReader) Remaining() int64 { return r.remaining }

// SampleRate returns the file's sample rate.
func (r *StreamingReader) SampleRate() int { return int(r.decoder.SampleRate) }
