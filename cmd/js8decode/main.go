// Command js8decode runs the js8 decoder core over a WAV capture,
// printing one line per decoded message.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ab1hl/js8decode/internal/cli"
	"github.com/ab1hl/js8decode/internal/js8"
	"github.com/ab1hl/js8decode/internal/waveform"
)

const version = "0.0.1"

var CLI struct {
	Input      string  `arg:"" name:"input" help:"Input WAV file" type:"existingfile"`
	Config     string  `help:"Tunables YAML file (overrides defaults)" short:"c"`
	MinHz      float64 `help:"Lower edge of the search band" default:"300" short:"l"`
	MaxHz      float64 `help:"Upper edge of the search band" default:"2950" short:"u"`
	Stream     bool    `help:"Read the file one cycle at a time instead of loading it whole" short:"s"`
	Diagnostic bool    `help:"Enable diagnostic logging" short:"d"`
	Version    bool    `help:"Show version information" short:"v"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("js8decode"),
		kong.Description("Decode JS8 signals from a WAV capture, window by window."),
		kong.Vars{"version": version},
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if CLI.Version {
		cli.PrintVersion(version)
		return
	}

	if err := run(); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

func run() error {
	cli.PrintBanner()

	cfg := js8.DefaultConfig()
	if CLI.Config != "" {
		loaded, err := js8.LoadYAML(CLI.Config)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	decoder := js8.NewDecoder(cfg, CLI.Diagnostic)
	dups := js8.NewDupSet()

	count := 0
	decodeCycle := func(feeder *waveform.CycleFeeder, rate int, cycle []float64) {
		win := feeder.Push(cycle)
		decoder.Decode(context.Background(), win.Samples, rate, win.Start, CLI.MinHz, CLI.MaxHz, nil, nil, dups,
			func(bits87 [js8.NMessageBits]int, hz0, hz1, offSec float64, comment string, snr float64) int {
				count++
				// Unpacking the 87 payload bits into message text is the
				// caller's job; print the raw payload as hex.
				fmt.Println(cli.FormatDecode(hz0, offSec, snr, payloadHex(bits87)))
				return js8.CBNewSubtract
			})
	}

	var err error
	if CLI.Stream {
		err = runStream(decodeCycle, dups)
	} else {
		err = runWholeFile(decodeCycle, dups)
	}
	if err != nil {
		return err
	}

	cli.PrintInfo("Total decodes", fmt.Sprintf("%d", count))
	return nil
}

// runWholeFile loads the capture in one go and feeds it cycle by cycle.
func runWholeFile(decodeCycle func(*waveform.CycleFeeder, int, []float64), dups *js8.DupSet) error {
	samples, rate, err := waveform.ReadWAV(CLI.Input)
	if err != nil {
		return fmt.Errorf("js8decode: %w", err)
	}
	cli.PrintInfo("Input", CLI.Input)
	cli.PrintInfo("Samples", fmt.Sprintf("%d @ %d Hz", len(samples), rate))
	cli.PrintSection("Decodes")

	feeder := waveform.NewCycleFeeder(rate, dups)
	cycleLen := int(feeder.CycleSeconds * float64(rate))
	for offset := 0; offset < len(samples); offset += cycleLen {
		end := offset + cycleLen
		if end > len(samples) {
			end = len(samples)
		}
		decodeCycle(feeder, rate, samples[offset:end])
	}
	return nil
}

// runStream reads the capture one 15-second cycle at a time, the way a
// live sound-card feed would arrive, so arbitrarily long captures decode
// in constant memory.
func runStream(decodeCycle func(*waveform.CycleFeeder, int, []float64), dups *js8.DupSet) error {
	r, err := waveform.NewStreamingReader(CLI.Input)
	if err != nil {
		return fmt.Errorf("js8decode: %w", err)
	}
	defer r.Close()

	rate := r.SampleRate()
	cli.PrintInfo("Input", CLI.Input+" (streaming)")
	cli.PrintInfo("Samples", fmt.Sprintf("%d @ %d Hz", r.Remaining(), rate))
	cli.PrintSection("Decodes")

	feeder := waveform.NewCycleFeeder(rate, dups)
	cycleLen := int(feeder.CycleSeconds * float64(rate))
	for {
		cycle, err := r.ReadCycle(cycleLen)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("js8decode: %w", err)
		}
		decodeCycle(feeder, rate, cycle)
	}
}

// payloadHex packs the 87 payload+CRC bits MSB-first into hex, padding the
// final nibble with zeros.
func payloadHex(bits87 [js8.NMessageBits]int) string {
	var sb []byte
	for i := 0; i < js8.NMessageBits; i += 4 {
		nibble := 0
		for j := 0; j < 4; j++ {
			nibble <<= 1
			if i+j < js8.NMessageBits && bits87[i+j] != 0 {
				nibble |= 1
			}
		}
		sb = append(sb, "0123456789abcdef"[nibble])
	}
	return string(sb)
}
