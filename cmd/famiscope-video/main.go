package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/famiscope/famiscope/version"
	"github.com/famiscope/famiscope/video"
)

func main() {
	output := flag.String("o", "", "Output video file. By default, the input file name with the extension .mp4.")
	songIndex := flag.Int("song", 0, "Index of the song of the project to export.")
	resolution := flag.String("res", "1920x1080", "Video resolution as WIDTHxHEIGHT.")
	columns := flag.Int("columns", 1, "Number of columns in the oscilloscope grid.")
	thickness := flag.Int("thickness", 2, "Oscilloscope line thickness in pixels.")
	colorMode := flag.String("color", video.ColorInstruments.String(), "Oscilloscope coloring: none, instruments, instrumentsandsamples or channel.")
	mask := flag.String("mask", "", "Channels to export as a bit mask, bit i selecting channel i of the song, e.g. 0x1f. By default, all channels.")
	loops := flag.Int("loop", 1, "Number of times the looping part of the song is played.")
	half := flag.Bool("half", false, "Export at half frame rate.")
	audioBitRate := flag.Int("abitrate", 192, "Audio bit rate in kbit/s.")
	videoBitRate := flag.Int("vbitrate", 8000, "Video bit rate in kbit/s.")
	stereo := flag.Bool("stereo", false, "Export stereo audio, panning the channels according to -pan.")
	pan := flag.String("pan", "", "Comma separated stereo positions of the channels, 0 left to 1 right, e.g. 0.3,0.7,0.5.")
	quiet := flag.Bool("q", false, "Do not print progress.")
	help := flag.Bool("h", false, "Show help.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.String())
		os.Exit(0)
	}
	if flag.NArg() != 1 || *help {
		flag.Usage()
		os.Exit(0)
	}
	filename := flag.Arg(0)
	if err := run(filename, func(project projectInfo) (video.Params, error) {
		params := video.Params{
			Song:          *songIndex,
			LoopCount:     *loops,
			NumColumns:    *columns,
			LineThickness: *thickness,
			HalfFrameRate: *half,
			AudioBitRate:  *audioBitRate,
			VideoBitRate:  *videoBitRate,
			Stereo:        *stereo,
			Filename:      *output,
		}
		var err error
		if params.Filename == "" {
			params.Filename = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".mp4"
		}
		if params.ResX, params.ResY, err = parseResolution(*resolution); err != nil {
			return params, err
		}
		if params.ColorMode, err = video.ParseColorMode(*colorMode); err != nil {
			return params, err
		}
		if params.ChannelMask, err = parseMask(*mask, project.numChannels(params.Song)); err != nil {
			return params, err
		}
		if params.Pan, err = parsePan(*pan); err != nil {
			return params, err
		}
		return params, nil
	}, *quiet); err != nil {
		fmt.Fprintf(os.Stderr, "could not export %v: %v\n", filename, err)
		os.Exit(1)
	}
}

func run(filename string, makeParams func(projectInfo) (video.Params, error), quiet bool) error {
	project, err := loadProject(filename)
	if err != nil {
		return err
	}
	params, err := makeParams(projectInfo{project})
	if err != nil {
		return err
	}
	prefs := video.MakePreferences()
	if prefs.YmlError != nil {
		fmt.Fprintf(os.Stderr, "ignoring malformed preferences.yml: %v\n", prefs.YmlError)
		prefs = video.DefaultPreferences()
	}
	exporter := video.NewExporter(prefs)
	if !quiet {
		last := -1
		exporter.Progress = func(f float32) {
			if percent := int(f * 100); percent != last {
				last = percent
				fmt.Fprintf(os.Stderr, "\rexporting %v: %3d%%", params.Filename, percent)
			}
		}
		defer fmt.Fprintln(os.Stderr)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return exporter.Export(ctx, project, params)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "famiscope-video renders an oscilloscope video of a .yml/.json project or a .mid file.\nUsage: %s [flags] path\n", os.Args[0])
	flag.PrintDefaults()
}
