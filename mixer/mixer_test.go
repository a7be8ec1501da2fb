// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ik5/nativeaudio/audio"
	"github.com/ik5/nativeaudio/effects"
	"github.com/ik5/nativeaudio/formats/wav"
	"github.com/ik5/nativeaudio/internal/audiotest"
)

// testRate makes one millisecond one frame.
const testRate = 1000

func newTestMixer(t testing.TB, channels int) *Mixer {
	t.Helper()

	m, err := New(Options{
		SampleRate:  testRate,
		MaxChannels: channels,
		Logger:      slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func loadConstant(t testing.TB, m *Mixer, frames int, value float32) uuid.UUID {
	t.Helper()

	id, err := m.LoadSource(audiotest.NewConstantSource(testRate, 1, frames, value))
	if err != nil {
		t.Fatalf("LoadSource: %v", err)
	}
	return id
}

func mix(t testing.TB, m *Mixer, frames int) []float32 {
	t.Helper()

	buf := make([]float32, frames*OutputChannels)
	n, err := m.ReadSamples(buf)
	if err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("ReadSamples n = %d, want %d", n, len(buf))
	}
	return buf
}

func approx(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-4 }

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	m, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if m.SampleRate() != DefaultSampleRate || m.NumChannels() != DefaultMaxChannels {
		t.Errorf("defaults = %d Hz, %d channels", m.SampleRate(), m.NumChannels())
	}
	if m.Channels() != 2 {
		t.Errorf("Channels() = %d, want 2", m.Channels())
	}

	if _, err := New(Options{SampleRate: -1}); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("negative rate: error = %v, want ErrInvalidOptions", err)
	}
}

func TestMixer_SilentWhenIdle(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 4)
	for i, v := range mix(t, m, 64) {
		if v != 0 {
			t.Fatalf("sample %d = %f, want 0", i, v)
		}
	}

	if _, err := m.ReadSamples(make([]float32, 3)); !errors.Is(err, audio.ErrInvalidDstSize) {
		t.Errorf("odd buffer: error = %v, want ErrInvalidDstSize", err)
	}
}

func TestMixer_PlayOnce(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 4)
	id := loadConstant(t, m, 10, 0.5)

	var mu sync.Mutex
	var finished []int
	m.OnChannelFinished(func(ch int) {
		// callbacks run unlocked and may query the mixer
		if playing, _ := m.Playing(ch); playing {
			t.Errorf("channel %d still playing in finished callback", ch)
		}
		mu.Lock()
		finished = append(finished, ch)
		mu.Unlock()
	})

	ch, err := m.Play(-1, id)
	if err != nil || ch != 0 {
		t.Fatalf("Play(-1) = (%d, %v), want (0, nil)", ch, err)
	}

	out := mix(t, m, 16)
	for f := range 16 {
		want := float32(0)
		if f < 10 {
			want = 0.5
		}
		if out[f*2] != want || out[f*2+1] != want {
			t.Errorf("frame %d = (%f, %f), want %f", f, out[f*2], out[f*2+1], want)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(finished) != 1 || finished[0] != 0 {
		t.Errorf("finished callbacks = %v, want [0]", finished)
	}
	if m.Active() != 0 {
		t.Errorf("Active() = %d after clip end, want 0", m.Active())
	}
}

func TestMixer_PlayLoop(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 2)
	id := loadConstant(t, m, 4, 0.25)

	if _, err := m.PlayLoop(1, id, 2); err != nil {
		t.Fatal(err)
	}

	out := mix(t, m, 16)
	for f := range 16 {
		want := float32(0)
		if f < 12 {
			want = 0.25
		}
		if out[f*2] != want {
			t.Errorf("frame %d = %f, want %f", f, out[f*2], want)
		}
	}

	if _, err := m.PlayLoop(0, id, -1); err != nil {
		t.Fatal(err)
	}
	mix(t, m, 100)
	if playing, _ := m.Playing(0); !playing {
		t.Error("infinite loop stopped playing")
	}
}

func TestMixer_FreeChannels(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 2)
	id := loadConstant(t, m, 100, 0.1)

	for want := range 2 {
		ch, err := m.Play(-1, id)
		if err != nil || ch != want {
			t.Fatalf("Play(-1) = (%d, %v), want (%d, nil)", ch, err, want)
		}
	}

	if _, err := m.Play(-1, id); !errors.Is(err, ErrNoFreeChannel) {
		t.Errorf("third Play(-1) error = %v, want ErrNoFreeChannel", err)
	}

	if err := m.Stop(0); err != nil {
		t.Fatal(err)
	}
	if ch, err := m.Play(-1, id); err != nil || ch != 0 {
		t.Errorf("Play(-1) after Stop = (%d, %v), want (0, nil)", ch, err)
	}
}

func TestMixer_InvalidArguments(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 2)
	id := loadConstant(t, m, 10, 0.1)

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"play high channel", func() error { _, err := m.Play(2, id); return err }(), ErrInvalidChannel},
		{"play unknown clip", func() error { _, err := m.Play(0, uuid.New()); return err }(), ErrUnknownClip},
		{"stop negative", m.Stop(-2), ErrInvalidChannel},
		{"pause high", m.Pause(5), ErrInvalidChannel},
		{"volume high", func() error { _, err := m.SetVolume(9, 10); return err }(), ErrInvalidChannel},
		{"zero pitch", m.SetPitch(0, 0), ErrInvalidPitch},
		{"nan pitch", m.SetPitch(0, math.NaN()), ErrInvalidPitch},
		{"position high", m.SetPosition(3, 0, 0), ErrInvalidChannel},
		{"tap without delay", m.RemoveTap(0, 0), effects.ErrInvalidTap},
		{"unload unknown", m.Unload(uuid.New()), ErrUnknownClip},
	}

	for _, tt := range tests {
		if !errors.Is(tt.err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, tt.err, tt.want)
		}
	}
}

func TestMixer_SetVolume(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 4)

	prev, err := m.SetVolume(0, 64)
	if err != nil || prev != MaxVolume {
		t.Fatalf("SetVolume(0, 64) = (%d, %v), want (128, nil)", prev, err)
	}

	if got, _ := m.SetVolume(0, -1); got != 64 {
		t.Errorf("query = %d, want 64", got)
	}
	if got, _ := m.SetVolume(0, 500); got != 64 {
		t.Errorf("SetVolume(500) previous = %d, want 64", got)
	}
	if got, _ := m.SetVolume(0, -1); got != MaxVolume {
		t.Errorf("volume after 500 = %d, want clamped to 128", got)
	}

	_, _ = m.SetVolume(1, 0)
	// channels 0..3 hold 128, 0, 128, 128
	if avg, _ := m.SetVolume(-1, 32); avg != 96 {
		t.Errorf("SetVolume(-1) average = %d, want 96", avg)
	}
	if got, _ := m.SetVolume(3, -1); got != 32 {
		t.Errorf("channel 3 after SetVolume(-1, 32) = %d", got)
	}
}

func TestMixer_VolumeAndMaster(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 2)
	id := loadConstant(t, m, 50, 0.8)

	_, _ = m.SetVolume(0, 64)
	if _, err := m.Play(0, id); err != nil {
		t.Fatal(err)
	}

	if out := mix(t, m, 4); !approx(out[0], 0.4) {
		t.Errorf("half volume = %f, want 0.4", out[0])
	}

	if prev := m.SetMasterVolume(32); prev != MaxVolume {
		t.Errorf("SetMasterVolume previous = %d, want 128", prev)
	}
	if out := mix(t, m, 4); !approx(out[0], 0.1) {
		t.Errorf("quarter master = %f, want 0.1", out[0])
	}
	if got := m.SetMasterVolume(-1); got != 32 {
		t.Errorf("master query = %d, want 32", got)
	}
}

func TestMixer_BusClamps(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 4)
	id := loadConstant(t, m, 20, 0.9)

	for range 3 {
		if _, err := m.Play(-1, id); err != nil {
			t.Fatal(err)
		}
	}

	if out := mix(t, m, 4); out[0] != 1 {
		t.Errorf("three summed channels = %f, want clamp at 1", out[0])
	}
}

func TestMixer_SetPosition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		angle, dist int
		left, right float32
	}{
		{"center", 0, 0, 1, 1},
		{"right", 90, 0, 0, 1},
		{"left", 270, 0, 1, 0},
		{"behind", 180, 0, 1, 1},
		{"negative angle wraps", -90, 0, 1, 0},
		{"far", 0, 255, 1.0 / 255, 1.0 / 255},
		{"halfway", 0, 128, 127.0 / 255, 127.0 / 255},
		{"distance clamps", 0, 1000, 1.0 / 255, 1.0 / 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := newTestMixer(t, 1)
			id := loadConstant(t, m, 10, 1)

			if err := m.SetPosition(0, tt.angle, tt.dist); err != nil {
				t.Fatal(err)
			}
			if _, err := m.Play(0, id); err != nil {
				t.Fatal(err)
			}

			out := mix(t, m, 2)
			if !approx(out[0], tt.left) || !approx(out[1], tt.right) {
				t.Errorf("gains = (%f, %f), want (%f, %f)", out[0], out[1], tt.left, tt.right)
			}
		})
	}
}

func TestMixer_Position(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 1)
	_ = m.SetPosition(0, 450, -3)

	angle, dist, err := m.Position(0)
	if err != nil || angle != 90 || dist != 0 {
		t.Errorf("Position() = (%d, %d, %v), want (90, 0, nil)", angle, dist, err)
	}
}

func TestMixer_SetPitch(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 1)
	id, err := m.LoadSource(audiotest.NewRampSource(testRate, 1, 20))
	if err != nil {
		t.Fatal(err)
	}

	if err := m.SetPitch(0, 2); err != nil {
		t.Fatal(err)
	}
	if p, _ := m.Pitch(0); p != 2 {
		t.Errorf("Pitch() = %v, want 2", p)
	}
	if _, err := m.Play(0, id); err != nil {
		t.Fatal(err)
	}

	out := mix(t, m, 12)
	for f := range 10 {
		if want := float32(2*f) / 20; !approx(out[f*2], want) {
			t.Errorf("frame %d = %f, want %f", f, out[f*2], want)
		}
	}
	if out[20] != 0 || out[22] != 0 {
		t.Errorf("double speed clip still sounding after 10 frames: %v", out[20:])
	}

	// half speed lands between source frames
	_ = m.SetPitch(0, 0.5)
	_, _ = m.Play(0, id)
	out = mix(t, m, 4)
	if !approx(out[6], 0.075) {
		t.Errorf("half speed frame 3 = %f, want 0.075", out[6])
	}
}

func TestMixer_PauseResume(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 2)
	id := loadConstant(t, m, 8, 0.5)
	_, _ = m.Play(0, id)

	mix(t, m, 4)
	if err := m.Pause(0); err != nil {
		t.Fatal(err)
	}
	if paused, _ := m.Paused(0); !paused {
		t.Error("Paused() = false after Pause")
	}
	if playing, _ := m.Playing(0); !playing {
		t.Error("paused channel should still count as playing")
	}

	if out := mix(t, m, 4); out[0] != 0 {
		t.Errorf("paused output = %f, want 0", out[0])
	}

	_ = m.Resume(-1)
	out := mix(t, m, 6)
	if out[6] != 0.5 || out[8] != 0 {
		t.Errorf("resumed output = %v, want 4 more frames of 0.5", out)
	}
}

func TestMixer_StopCallsFinished(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 3)
	id := loadConstant(t, m, 100, 0.5)

	var got []int
	m.OnChannelFinished(func(ch int) { got = append(got, ch) })

	_, _ = m.Play(0, id)
	_, _ = m.Play(2, id)

	if err := m.Stop(-1); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("finished = %v, want [0 2]", got)
	}

	// replacing a clip reports the old one as finished
	got = nil
	_, _ = m.Play(1, id)
	_, _ = m.Play(1, id)
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("finished after replace = %v, want [1]", got)
	}
}

func TestMixer_DelayTap(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 1)
	id, err := m.LoadSource(audiotest.NewImpulseSource(testRate, 1, 10))
	if err != nil {
		t.Fatal(err)
	}

	tap, err := m.AddTap(0, 15, 0.5)
	if err != nil || tap != 0 {
		t.Fatalf("AddTap = (%d, %v), want (0, nil)", tap, err)
	}
	_, _ = m.Play(0, id)

	// the echo lands after the clip has ended
	out := mix(t, m, 30)
	if out[0] != 1 || !approx(out[30], 0.5) || !approx(out[31], 0.5) {
		t.Errorf("dry %f, echo (%f, %f); want 1 and 0.5", out[0], out[30], out[31])
	}

	if err := m.SetTapVolume(0, tap, 0.25); err != nil {
		t.Fatal(err)
	}
	if err := m.SetTapTime(0, tap, 5); err != nil {
		t.Fatal(err)
	}
	_, _ = m.Play(0, id)
	out = mix(t, m, 10)
	if !approx(out[10], 0.25) {
		t.Errorf("retimed echo = %f, want 0.25", out[10])
	}

	if err := m.RemoveTap(0, tap); err != nil {
		t.Fatal(err)
	}
	if err := m.RemoveTap(0, tap); !errors.Is(err, effects.ErrInvalidTap) {
		t.Errorf("second RemoveTap error = %v, want ErrInvalidTap", err)
	}
}

func TestMixer_StopCutsTail(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 1)
	id, _ := m.LoadSource(audiotest.NewImpulseSource(testRate, 1, 2))

	_, _ = m.AddTap(0, 20, 1)
	_, _ = m.Play(0, id)
	mix(t, m, 5)

	_ = m.Stop(0)
	for i, v := range mix(t, m, 40) {
		if v != 0 {
			t.Fatalf("sample %d = %f after Stop, want 0", i, v)
		}
	}
}

func TestMixer_Reverb(t *testing.T) {
	t.Parallel()

	m, err := New(Options{SampleRate: 44100, MaxChannels: 1, Logger: slog.New(slog.DiscardHandler)})
	if err != nil {
		t.Fatal(err)
	}
	id, _ := m.LoadSource(audiotest.NewImpulseSource(44100, 1, 100))

	if err := m.EnableReverb(0, true); err != nil {
		t.Fatal(err)
	}
	for _, set := range []func(int, float32) error{
		m.SetReverbRoomSize, m.SetReverbDamping, m.SetReverbWet, m.SetReverbDry,
	} {
		if err := set(0, 0.5); err != nil {
			t.Fatal(err)
		}
	}
	_, _ = m.Play(0, id)

	out := mix(t, m, 4096)
	var energy float64
	for _, v := range out[200:] {
		energy += float64(v * v)
	}
	if energy == 0 {
		t.Error("no reverb tail after the clip ended")
	}

	if err := m.EnableReverb(4, true); !errors.Is(err, ErrInvalidChannel) {
		t.Errorf("EnableReverb(4) error = %v, want ErrInvalidChannel", err)
	}
}

func TestMixer_Duration(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 1)
	id := loadConstant(t, m, 1500, 0)

	d, err := m.Duration(id)
	if err != nil || d != 1500*time.Millisecond {
		t.Errorf("Duration() = (%v, %v), want 1.5s", d, err)
	}
}

func TestMixer_LoadEmpty(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 1)
	if _, err := m.LoadSource(audiotest.NewSilentSource(testRate, 1, 0)); !errors.Is(err, ErrEmptyClip) {
		t.Errorf("empty clip error = %v, want ErrEmptyClip", err)
	}
}

func TestMixer_Unload(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 2)
	id := loadConstant(t, m, 100, 0.5)

	var got []int
	m.OnChannelFinished(func(ch int) { got = append(got, ch) })

	_, _ = m.Play(1, id)
	if err := m.Unload(id); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("finished = %v, want [1]", got)
	}
	if _, err := m.Duration(id); !errors.Is(err, ErrUnknownClip) {
		t.Errorf("Duration after Unload error = %v, want ErrUnknownClip", err)
	}
}

func wavBytes(t *testing.T, rate, channels int, samples []float32) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := wav.WriteFloat32(&buf, rate, channels, samples); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestMixer_LoadDecoded(t *testing.T) {
	t.Parallel()

	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})

	m, err := New(Options{SampleRate: 8000, MaxChannels: 1, Registry: reg, Logger: slog.New(slog.DiscardHandler)})
	if err != nil {
		t.Fatal(err)
	}

	// 0.25 s of mono at 16 kHz becomes 2000 stereo frames at 8 kHz
	samples := make([]float32, 4000)
	for i := range samples {
		samples[i] = 0.5
	}
	data := wavBytes(t, 16000, 1, samples)

	id, err := m.LoadReader("WAV", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if d, _ := m.Duration(id); d < 245*time.Millisecond || d > 255*time.Millisecond {
		t.Errorf("Duration() = %v, want ~250ms", d)
	}

	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := m.Load(filepath.Join(t.TempDir(), "clip.flac")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load(.flac) error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := m.LoadReader("mp3", bytes.NewReader(data)); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("LoadReader(mp3) error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := m.Load(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("Load(missing) error = nil")
	}
}

func TestMixer_ConcurrentControl(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, 8)
	id := loadConstant(t, m, 500, 0.1)

	var wg sync.WaitGroup
	wg.Go(func() {
		buf := make([]float32, 256)
		for range 200 {
			_, _ = m.ReadSamples(buf)
		}
	})
	wg.Go(func() {
		for i := range 200 {
			ch := i % 8
			_, _ = m.Play(ch, id)
			_, _ = m.SetVolume(ch, i%129)
			_ = m.SetPosition(ch, i, i%256)
			_ = m.Stop(ch)
		}
	})
	wg.Wait()

	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if m.Active() != 0 {
		t.Errorf("Active() after Close = %d, want 0", m.Active())
	}
}

func BenchmarkMixer_ReadSamples(b *testing.B) {
	m := newTestMixer(b, 32)
	id, _ := m.LoadSource(audiotest.NewSineSource(testRate, 2, 10000, 110))
	for range 16 {
		_, _ = m.PlayLoop(-1, id, -1)
	}
	buf := make([]float32, 1024)

	b.ResetTimer()
	for b.Loop() {
		_, _ = m.ReadSamples(buf)
	}
}

func TestMixer_ReadSamplesAllocs(t *testing.T) {
	m := newTestMixer(t, 4)
	id := loadConstant(t, m, 10000, 0.1)
	_, _ = m.PlayLoop(0, id, -1)

	buf := make([]float32, 512)
	allocs := testing.AllocsPerRun(100, func() {
		_, _ = m.ReadSamples(buf)
	})
	if allocs != 0 {
		t.Errorf("ReadSamples allocated %v times per call, want 0", allocs)
	}
}
