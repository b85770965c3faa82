package speech

import "context"

const localProviderName = "local"

const mockTranscript = "This is a mock transcription. Configure a speech provider for real output."

// LocalTranscriber is the terminal STT fallback. It never fails and returns a
// placeholder transcript.
type LocalTranscriber struct{}

func (LocalTranscriber) Name() string { return localProviderName }

func (LocalTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	return mockTranscript, nil
}

// LocalSynthesizer is the terminal TTS fallback. It never fails and returns
// empty audio.
type LocalSynthesizer struct{}

func (LocalSynthesizer) Name() string { return localProviderName }

func (LocalSynthesizer) Synthesize(_ context.Context, _ string, _ SynthesisOptions) ([]byte, error) {
	return []byte{}, nil
}
