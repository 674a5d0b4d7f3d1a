package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/towel808/towel"
	"github.com/towel808/towel/catalog"
	"github.com/towel808/towel/cmd"
	"github.com/towel808/towel/control"
	"github.com/towel808/towel/decode"
	"github.com/towel808/towel/engine"
	"github.com/towel808/towel/meter"
	"github.com/towel808/towel/oto"
	"github.com/towel808/towel/version"
)

func main() {
	help := flag.Bool("h", false, "Show help.")
	configFile := flag.String("config", "", "Read configuration from `file` in addition to the user config.")
	dir := flag.String("dir", "", "Directory to read samples from. Overrides the configuration.")
	sample := flag.String("sample", "", "Name of the sample to play. By default, the first sample in the directory.")
	list := flag.Bool("list", false, "List the available samples and exit.")
	notes := flag.String("notes", "", "Notes to play, as key[:start[:duration[:velocity]]] separated by commas.")
	midiInput := flag.String("midi-input", "", "Connect MIDI input to matching device name prefix.")
	directory := flag.String("o", "", "Directory where to output rendered files. By default, the working directory.")
	rawOut := flag.Bool("r", false, "Render the notes to a .raw file instead of playing them.")
	wavOut := flag.Bool("w", false, "Render the notes to a .wav file instead of playing them.")
	pcm := flag.Bool("c", false, "Convert audio to 16-bit signed PCM when outputting.")
	cut := flag.Bool("cut", false, "Enable cut mode.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.Banner("towel-play"))
		os.Exit(0)
	}
	if *help {
		flag.Usage()
		os.Exit(0)
	}
	config := cmd.LoadConfig()
	if config.YmlError != nil {
		log.Printf("ignoring user config: %v", config.YmlError)
	}
	if *configFile != "" {
		if err := cmd.ReadConfigFile(*configFile, &config); err != nil {
			log.Fatal("could not read config: ", err)
		}
	}
	if *dir != "" {
		config.Samples = *dir
	}
	if *cut {
		config.Envelope.Cut = true
	}
	if isFlagPassed("midi-input") {
		config.MIDIInput = *midiInput
	}
	e := engine.New(config.Polyphony)
	e.Prepare(float64(config.SampleRate))
	controller := control.New(e, decode.File{}, catalog.Dir{Path: config.SampleDir()}, config.Options())
	controller.SetParams(config.Envelope)
	if err := controller.Refresh(); err != nil {
		log.Fatal(err)
	}
	names := controller.SampleNames()
	if *list {
		for _, name := range names {
			fmt.Printf("%s\t%s\n", name, catalog.DisplayName(name))
		}
		os.Exit(0)
	}
	if *sample == "" {
		if len(names) == 0 {
			fmt.Fprintf(os.Stderr, "no samples found in %v\n", config.SampleDir())
			os.Exit(1)
		}
		*sample = names[0]
	}
	if _, err := controller.LoadSample(*sample); err != nil {
		fmt.Fprintf(os.Stderr, "could not load sample: %v\n", err)
		os.Exit(1)
	}
	noteList, err := cmd.ParseNotes(*notes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not parse notes: %v\n", err)
		os.Exit(1)
	}
	if *rawOut || *wavOut {
		if len(noteList) == 0 {
			noteList = []cmd.Note{{Key: config.RootNote, Velocity: 100, Duration: 1}}
		}
		if err := render(e, noteList, controller, config, *directory, *rawOut, *wavOut, *pcm); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}
	audioContext, err := oto.NewContext(config.SampleRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not acquire oto AudioContext: %v\n", err)
		os.Exit(1)
	}
	err = play(audioContext, e, noteList, controller, config)
	audioContext.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func render(e *engine.Engine, notes []cmd.Note, controller *control.Controller, config cmd.Config, directory string, rawOut, wavOut, pcm bool) error {
	buffer := cmd.Render(e, notes, cmd.Length(notes, controller.Params().Release))
	levels := meter.Measure(buffer)
	log.Printf("peak %.1f/%.1f dB, rms %.1f/%.1f dB",
		meter.ToDecibel(levels.Peak[0]), meter.ToDecibel(levels.Peak[1]),
		meter.ToDecibel(levels.RMS[0]), meter.ToDecibel(levels.RMS[1]))
	output := func(extension string, contents []byte) error {
		dir := directory
		if dir == "" {
			var err error
			dir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("could not get working directory, specify the output directory explicitly: %v", err)
			}
		}
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("could not create output directory %v: %v", dir, err)
		}
		f := filepath.Join(dir, controller.CurrentSample()+extension)
		if err := os.WriteFile(f, contents, 0644); err != nil {
			return fmt.Errorf("could not write file %v: %v", f, err)
		}
		return nil
	}
	if rawOut {
		raw, err := buffer.Raw(pcm)
		if err != nil {
			return fmt.Errorf("could not generate .raw file: %v", err)
		}
		if err := output(".raw", raw); err != nil {
			return fmt.Errorf("error outputting .raw file: %v", err)
		}
	}
	if wavOut {
		wav, err := buffer.Wav(config.SampleRate, pcm)
		if err != nil {
			return fmt.Errorf("could not generate .wav file: %v", err)
		}
		if err := output(".wav", wav); err != nil {
			return fmt.Errorf("error outputting .wav file: %v", err)
		}
	}
	return nil
}

func play(audioContext towel.AudioContext, e *engine.Engine, notes []cmd.Note, controller *control.Controller, config cmd.Config) error {
	e.Prepare(audioContext.SampleRate())
	midi, err := cmd.NewMIDIInput(e)
	if err != nil {
		log.Printf("MIDI input not available: %v", err)
		midi = cmd.NullMIDIInput{}
	}
	defer midi.Close()
	if config.MIDIInput != "" || isFlagPassed("midi-input") {
		if err := midi.Open(config.MIDIInput); err != nil {
			log.Printf("failed to open MIDI input '%s': %v", config.MIDIInput, err)
		}
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go controller.Run(ctx)
	go func() {
		for result := range controller.Results() {
			if result.Err != nil {
				log.Printf("could not load sample: %v", result.Err)
				continue
			}
			log.Printf("playing %s", catalog.DisplayName(result.Name))
		}
	}()
	player := audioContext.Play(func(buf towel.AudioBuffer) {
		e.RenderBlock(buf, nil)
	})
	defer player.Close()
	go console(ctx, controller, stop)
	for _, n := range notes {
		scheduleNote(ctx, controller, n)
	}
	log.Printf("playing %s, press Ctrl+C to quit", catalog.DisplayName(controller.CurrentSample()))
	<-ctx.Done()
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Towel 808 command line sampler: list samples, render notes to files or play them live.\nUsage: %s [flags]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "While playing, type %s.\n", strings.Join(commandNames(), ", "))
	flag.PrintDefaults()
}

func isFlagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
