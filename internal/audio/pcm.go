package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Format describes 16-bit little-endian PCM.
type Format struct {
	SampleRate int
	Channels   int
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch", f.SampleRate, f.Channels)
}

// BytesPerSecond returns the data rate of the format.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * 2
}

// Duration returns how long n bytes of this format play for.
func (f Format) Duration(n int) time.Duration {
	bps := f.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(bps)
}

// Convert turns pcm from src into dst: channels are mixed down to mono,
// resampled linearly and duplicated again if dst is stereo.
func Convert(pcm []byte, src, dst Format) []byte {
	if src == dst {
		return pcm
	}
	mono := ToMono(pcm, src.Channels)
	mono = Resample(mono, src.SampleRate, dst.SampleRate)
	if dst.Channels == 2 {
		return ToStereo(mono)
	}
	return mono
}

// ToMono averages interleaved channels into one.
func ToMono(pcm []byte, channels int) []byte {
	if channels <= 1 {
		return pcm
	}
	frame := channels * 2
	frames := len(pcm) / frame
	out := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		var sum int
		for c := 0; c < channels; c++ {
			sum += int(int16(binary.LittleEndian.Uint16(pcm[i*frame+c*2:])))
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(sum/channels)))
	}
	return out
}

// ToStereo duplicates a mono signal into two channels.
func ToStereo(mono []byte) []byte {
	samples := len(mono) / 2
	out := make([]byte, samples*4)
	for i := 0; i < samples; i++ {
		copy(out[i*4:], mono[i*2:i*2+2])
		copy(out[i*4+2:], mono[i*2:i*2+2])
	}
	return out
}

// Resample converts mono pcm from one sample rate to another with linear
// interpolation.
func Resample(mono []byte, from, to int) []byte {
	if from == to || from <= 0 || to <= 0 {
		return mono
	}
	in := len(mono) / 2
	if in == 0 {
		return nil
	}
	outN := int(math.Round(float64(in) * float64(to) / float64(from)))
	out := make([]byte, outN*2)
	ratio := float64(from) / float64(to)

	sample := func(i int) float64 {
		if i >= in {
			i = in - 1
		}
		return float64(int16(binary.LittleEndian.Uint16(mono[i*2:])))
	}

	for i := 0; i < outN; i++ {
		pos := float64(i) * ratio
		j := int(pos)
		frac := pos - float64(j)
		v := sample(j)*(1-frac) + sample(j+1)*frac
		v = math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(v)))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}
