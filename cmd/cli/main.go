package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/m8kit/kitcreator/internal/cue"
	"github.com/m8kit/kitcreator/internal/validate"
	"github.com/m8kit/kitcreator/pkg/kitcreator"
	"github.com/m8kit/kitcreator/pkg/logger"
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log := logger.GetLogger()

	printBanner()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	log.Debugf("executing command: %s", command)

	switch command {
	case "merge":
		handleMerge()
	case "validate":
		handleValidate()
	case "info":
		handleInfo()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
 _  ___ _    ____                _
| |/ (_) |_ / ___|_ __ ___  __ _| |_ ___  _ __
| ' /| | __| |   | '__/ _ \/ _' | __/ _ \| '__|
| . \| | |_| |___| | |  __/ (_| | || (_) | |
|_|\_\_|\__|\____|_|  \___|\__,_|\__\___/|_|

     Sliced WAV Kit Maker for M8 / Octatrack
`
	fmt.Println(banner)
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  kitcreator merge -o <output.wav> [flags] <input.wav> [input.wav ...]")
	fmt.Println("  kitcreator validate <input.wav> [input.wav ...]")
	fmt.Println("  kitcreator info <kit.wav>")
	fmt.Println()
	fmt.Println("Merge flags:")
	fmt.Println("  -o string         output WAV path (required)")
	fmt.Println("  -format string    output format: m8, octatrack or both (default m8)")
	fmt.Println("  -threshold float  silence threshold in dBFS (default -50)")
	fmt.Println("  -min-silence int  minimum silence length in ms (default 10)")
	fmt.Println("  -retained int     retained silence between chunks in ms (default 1)")
	fmt.Println("  -marker int       marker duration in ms (default 1)")
	fmt.Println("  -mono             downmix everything to mono")
	fmt.Println("  -tempo float      Octatrack tempo in BPM (default 120)")
	fmt.Println("  -gain int         Octatrack gain in dB (default 0)")
	fmt.Println("  -preset string    YAML preset file with processing parameters")
}

// preset mirrors the merge flags so recurring parameter sets can live in a
// small YAML file.
type preset struct {
	MarkerDurationMS     int     `yaml:"marker_duration_ms"`
	SilenceThresholdDBFS float64 `yaml:"silence_threshold_dbfs"`
	MinSilenceLenMS      int     `yaml:"min_silence_len_ms"`
	RetainedSilenceMS    int     `yaml:"retained_silence_ms"`
	ForceMono            bool    `yaml:"force_mono"`
	OutputFormat         string  `yaml:"output_format"`
	TempoBPM             float64 `yaml:"tempo_bpm"`
	GainDB               int     `yaml:"gain_db"`
}

func loadPreset(path string) (*preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading preset %s: %w", path, err)
	}
	p := &preset{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parsing preset %s: %w", path, err)
	}
	return p, nil
}

func handleMerge() {
	log := logger.GetLogger()

	mergeCmd := flag.NewFlagSet("merge", flag.ExitOnError)
	output := mergeCmd.String("o", "", "output WAV path")
	formatName := mergeCmd.String("format", getEnvOrDefault("KITCREATOR_FORMAT", "m8"), "output format: m8, octatrack or both")
	threshold := mergeCmd.Float64("threshold", -50.0, "silence threshold in dBFS")
	minSilence := mergeCmd.Int("min-silence", 10, "minimum silence length in ms")
	retained := mergeCmd.Int("retained", 1, "retained silence between chunks in ms")
	marker := mergeCmd.Int("marker", 1, "marker duration in ms")
	mono := mergeCmd.Bool("mono", false, "downmix everything to mono")
	tempo := mergeCmd.Float64("tempo", 120.0, "Octatrack tempo in BPM")
	gain := mergeCmd.Int("gain", 0, "Octatrack gain in dB")
	presetPath := mergeCmd.String("preset", "", "YAML preset file")

	mergeCmd.Parse(os.Args[2:])
	files := mergeCmd.Args()

	if *output == "" {
		fmt.Println("Error: -o <output.wav> is required")
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Println("Error: no input files given")
		os.Exit(1)
	}

	// Preset values fill in anything not set explicitly on the command line.
	if *presetPath != "" {
		p, err := loadPreset(*presetPath)
		if err != nil {
			log.Errorf("%v", err)
			os.Exit(1)
		}
		set := map[string]bool{}
		mergeCmd.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if !set["marker"] && p.MarkerDurationMS != 0 {
			*marker = p.MarkerDurationMS
		}
		if !set["threshold"] && p.SilenceThresholdDBFS != 0 {
			*threshold = p.SilenceThresholdDBFS
		}
		if !set["min-silence"] && p.MinSilenceLenMS != 0 {
			*minSilence = p.MinSilenceLenMS
		}
		if !set["retained"] && p.RetainedSilenceMS != 0 {
			*retained = p.RetainedSilenceMS
		}
		if !set["mono"] && p.ForceMono {
			*mono = true
		}
		if !set["format"] && p.OutputFormat != "" {
			*formatName = p.OutputFormat
		}
		if !set["tempo"] && p.TempoBPM != 0 {
			*tempo = p.TempoBPM
		}
		if !set["gain"] && p.GainDB != 0 {
			*gain = p.GainDB
		}
	}

	format, err := kitcreator.ParseFormat(*formatName)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	svc, err := kitcreator.NewService(
		kitcreator.WithMarkerDuration(*marker),
		kitcreator.WithSilenceThreshold(*threshold),
		kitcreator.WithMinSilenceLen(*minSilence),
		kitcreator.WithRetainedSilence(*retained),
		kitcreator.WithForceMono(*mono),
		kitcreator.WithOutputFormat(format),
		kitcreator.WithTempo(*tempo),
		kitcreator.WithGain(*gain),
	)
	if err != nil {
		log.Errorf("invalid configuration: %v", err)
		os.Exit(1)
	}

	progress := func(current, total int) {
		if current < total {
			fmt.Printf("Processing file %d of %d...\n", current+1, total)
		}
	}

	res, err := svc.CreateKit(files, *output, progress)
	if err != nil {
		if res != nil {
			// The WAV made it to disk; only the .ot sidecar failed.
			log.Errorf("kit WAV written to %s but .ot failed: %v", res.OutputPath, err)
		} else {
			log.Errorf("merge failed: %v", err)
		}
		os.Exit(1)
	}

	fmt.Println("Complete!")
	fmt.Printf("  Output:     %s (%s)\n", res.OutputPath, validate.ChannelDescription(res.NumChannels))
	if info, err := os.Stat(res.OutputPath); err == nil {
		fmt.Printf("  Size:       %s\n", humanize.Bytes(uint64(info.Size())))
	}
	fmt.Printf("  Frames:     %s at %d Hz\n", humanize.Comma(int64(res.TotalFrames)), res.SampleRate)
	fmt.Printf("  Cue points: %d\n", len(res.CuePoints))
	if res.OTPath != "" {
		fmt.Printf("  Octatrack:  %s (%d slices)\n", res.OTPath, res.NumSlices)
	}
}

func handleValidate() {
	files := os.Args[2:]
	if len(files) == 0 {
		fmt.Println("Usage: kitcreator validate <input.wav> [input.wav ...]")
		os.Exit(1)
	}

	if err := validate.Files(files); err != nil {
		fmt.Printf("Invalid files:\n%v\n", err)
		os.Exit(1)
	}
	fmt.Printf("All %d files are valid WAV sources.\n", len(files))
}

func handleInfo() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: kitcreator info <kit.wav>")
		os.Exit(1)
	}
	path := os.Args[2]

	cues, err := cue.ReadCuePoints(path)
	if err != nil {
		logger.GetLogger().Errorf("reading %s: %v", path, err)
		os.Exit(1)
	}
	if len(cues) == 0 {
		fmt.Printf("%s has no cue points.\n", path)
		return
	}

	fmt.Printf("%s: %d cue points\n", path, len(cues))
	for _, c := range cues {
		fmt.Printf("  #%d at frame %s\n", c.ID, humanize.Comma(int64(c.FrameOffset)))
	}
}
