package reisenmedia

import (
	"errors"

	"github.com/erparts/reisen"
)

// ErrNoAudio is returned by ProbeAudioSampleRate when the file has no
// audio stream, matching the teacher's avebi.ErrNoAudio.
var ErrNoAudio = errors.New("reisenmedia: media contains no audio")

// ProbeAudioSampleRate opens path just far enough to read its first
// audio stream's sample rate, the value an ebitengine audio.Context
// must be created with before Open can attach an AudioRenderer.
// Grounded on the teacher's GetMediaAudioSampleRate.
func ProbeAudioSampleRate(path string) (int, error) {
	container, err := reisen.NewMedia(path)
	if err != nil {
		return 0, err
	}
	defer container.Close()

	audioStreams := container.AudioStreams()
	if len(audioStreams) == 0 {
		return 0, ErrNoAudio
	}
	return audioStreams[0].SampleRate(), nil
}
