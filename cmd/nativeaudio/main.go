// SPDX-License-Identifier: EPL-2.0

// Command nativeaudio plays a sound file through the mixer, with optional
// placement, pitch, echo and reverb. With -render it writes the mix to a
// WAV file instead of the sound card.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/ik5/nativeaudio"
	"github.com/ik5/nativeaudio/config"
	"github.com/ik5/nativeaudio/effects"
	"github.com/ik5/nativeaudio/formats/wav"
)

type tapFlag struct {
	timeMs float32
	volume float32
}

// parseTap reads "ms:volume", e.g. "250:0.5".
func parseTap(s string) (tapFlag, error) {
	ms, vol, ok := strings.Cut(s, ":")
	if !ok {
		return tapFlag{}, fmt.Errorf("tap %q: want ms:volume", s)
	}

	t, err := strconv.ParseFloat(ms, 32)
	if err != nil {
		return tapFlag{}, fmt.Errorf("tap %q: %w", s, err)
	}
	v, err := strconv.ParseFloat(vol, 32)
	if err != nil {
		return tapFlag{}, fmt.Errorf("tap %q: %w", s, err)
	}

	return tapFlag{timeMs: float32(t), volume: float32(v)}, nil
}

type options struct {
	configPath string
	backend    string
	volume     int
	angle      int
	distance   int
	pitch      float64
	taps       []tapFlag
	reverb     bool
	room       float64
	wet        float64
	render     string
	duration   time.Duration
	verbose    bool
	clip       string
}

func parseFlags(args []string) (options, error) {
	var o options

	fs := flag.NewFlagSet("nativeaudio", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: nativeaudio [flags] <clip.{wav|mp3|ogg|aiff}>")
		fs.PrintDefaults()
	}

	fs.StringVar(&o.configPath, "config", "", "YAML config file")
	fs.StringVar(&o.backend, "backend", "", "output backend: auto, oto, null or offline")
	fs.IntVar(&o.volume, "volume", 128, "channel volume, 0..128")
	fs.IntVar(&o.angle, "angle", 0, "direction in degrees, 90 is right")
	fs.IntVar(&o.distance, "distance", 0, "distance, 0 (near) to 255 (far)")
	fs.Float64Var(&o.pitch, "pitch", 1, "playback speed")
	fs.Func("tap", "echo as ms:volume, repeatable", func(s string) error {
		t, err := parseTap(s)
		if err != nil {
			return err
		}
		if len(o.taps) == effects.MaxTaps {
			return fmt.Errorf("at most %d taps", effects.MaxTaps)
		}
		o.taps = append(o.taps, t)
		return nil
	})
	fs.BoolVar(&o.reverb, "reverb", false, "enable reverb")
	fs.Float64Var(&o.room, "room", 0.5, "reverb room size, 0..1")
	fs.Float64Var(&o.wet, "wet", 0.3, "reverb wet level, 0..1")
	fs.StringVar(&o.render, "render", "", "write the mix to this WAV file instead of playing it")
	fs.DurationVar(&o.duration, "duration", 0, "stop after this long (default: clip length plus effect tail)")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return o, errors.New("expected exactly one clip")
	}
	o.clip = fs.Arg(0)

	return o, nil
}

func loadConfig(o options) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return cfg, err
		}
	} else {
		cfg.ApplyEnv()
	}

	if o.backend != "" {
		cfg.Backend = o.backend
	}
	if o.render != "" {
		cfg.Backend = config.BackendOffline
	}
	if o.verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, cfg.Validate()
}

func configure(src *nativeaudio.AudioSource, o options) error {
	if _, err := src.SetVolume(o.volume); err != nil {
		return err
	}
	if err := src.SetPos(o.angle, o.distance); err != nil {
		return err
	}
	if err := src.SetPitch(o.pitch); err != nil {
		return err
	}

	for _, t := range o.taps {
		if _, err := src.AddDelayTap(t.timeMs, t.volume); err != nil {
			return err
		}
	}

	if o.reverb {
		if err := src.EnableReverb(true); err != nil {
			return err
		}
		if err := src.SetReverbRoomSize(float32(o.room)); err != nil {
			return err
		}
		if err := src.SetReverbWet(float32(o.wet)); err != nil {
			return err
		}
	}

	return nil
}

// clipTime is how long a clip of length d sounds at the given pitch, plus
// the effect tail.
func clipTime(d time.Duration, o options) time.Duration {
	d = time.Duration(float64(d) / o.pitch)
	if len(o.taps) > 0 || o.reverb {
		d += effects.MaxDelay
	}
	return d
}

func run(ctx context.Context, args []string) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	level, _ := cfg.Level()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	sys, err := nativeaudio.Init(cfg, nativeaudio.WithLogger(log))
	if err != nil {
		return err
	}
	defer sys.Close()

	clip, err := sys.NewClip(o.clip)
	if err != nil {
		return err
	}
	log.Info("clip loaded", "path", clip.Path(), "duration", clip.Duration())

	src, err := sys.NewAudioSource(clip)
	if err != nil {
		return err
	}
	if err := configure(src, o); err != nil {
		return err
	}

	finished := make(chan struct{}, 1)
	sys.OnFinished(func(*nativeaudio.AudioSource) {
		select {
		case finished <- struct{}{}:
		default:
		}
	})

	if err := src.Play(); err != nil {
		return err
	}

	dur := o.duration
	if dur <= 0 {
		dur = clipTime(clip.Duration(), o)
	}

	if o.render != "" {
		return render(sys, o.render, dur, log)
	}

	timer := time.NewTimer(dur)
	defer timer.Stop()

	// wait for the clip, then for its tail
	select {
	case <-ctx.Done():
		return nil
	case <-finished:
		if o.duration <= 0 && (len(o.taps) > 0 || o.reverb) {
			select {
			case <-ctx.Done():
			case <-time.After(effects.MaxDelay):
			}
		}
	case <-timer.C:
	}

	return src.Stop()
}

func render(sys *nativeaudio.System, path string, dur time.Duration, log *slog.Logger) error {
	samples, err := sys.Render(dur)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := wav.WriteFloat32(f, sys.SampleRate(), 2, samples); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	log.Info("rendered", "path", path, "duration", dur)

	return f.Close()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "nativeaudio:", err)
		stop()
		os.Exit(1)
	}
}
