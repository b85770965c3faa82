package speech

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/mohammad-safakhou/tutor/config"
	"github.com/mohammad-safakhou/tutor/internal/emotion"
)

func testLogger() *log.Logger {
	return log.New(os.Stderr, "[TEST] ", log.LstdFlags)
}

type failingTranscriber struct{}

func (failingTranscriber) Name() string { return "failing" }
func (failingTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	return "", errors.New("provider unreachable")
}

type failingSynthesizer struct{}

func (failingSynthesizer) Name() string { return "failing" }
func (failingSynthesizer) Synthesize(context.Context, string, SynthesisOptions) ([]byte, error) {
	return nil, errors.New("provider unreachable")
}

type cannedSynthesizer struct{ audio []byte }

func (cannedSynthesizer) Name() string { return "canned" }
func (c cannedSynthesizer) Synthesize(context.Context, string, SynthesisOptions) ([]byte, error) {
	return c.audio, nil
}

func TestUnconfiguredProvidersUseLocal(t *testing.T) {
	// No API keys at all: both chains collapse to the local terminator.
	b := NewBridge(config.SpeechConfig{STTProvider: "openai", TTSProvider: "google"}, "", testLogger())

	stt := b.SpeechToText(context.Background(), []byte{0x00}, "wav")
	if stt.Provider != "local" || !stt.Degraded {
		t.Errorf("expected degraded local STT, got %+v", stt)
	}
	if stt.Text == "" {
		t.Error("local STT must return placeholder text")
	}

	tts := b.TextToSpeech(context.Background(), "hello", SynthesisOptions{})
	if tts.Provider != "local" || !tts.Degraded {
		t.Errorf("expected degraded local TTS, got %+v", tts)
	}
	if tts.Audio == nil {
		t.Error("local TTS must return non-nil (possibly empty) audio")
	}
}

func TestFailingProviderFallsBack(t *testing.T) {
	b := &Bridge{
		stt:    []Transcriber{failingTranscriber{}, LocalTranscriber{}},
		tts:    []Synthesizer{failingSynthesizer{}, LocalSynthesizer{}},
		logger: testLogger(),
	}

	stt := b.SpeechToText(context.Background(), []byte{0x00}, "wav")
	if stt.Provider != "local" || !stt.Degraded {
		t.Errorf("expected fallback to local, got %+v", stt)
	}

	tts := b.TextToSpeech(context.Background(), "hello", SynthesisOptions{Emotion: emotion.Happy})
	if tts.Provider != "local" || !tts.Degraded {
		t.Errorf("expected fallback to local, got %+v", tts)
	}
}

func TestHealthyProviderIsNotDegraded(t *testing.T) {
	b := &Bridge{
		tts:    []Synthesizer{cannedSynthesizer{audio: []byte{1, 2, 3}}, LocalSynthesizer{}},
		logger: testLogger(),
	}
	tts := b.TextToSpeech(context.Background(), "hello", SynthesisOptions{})
	if tts.Degraded {
		t.Errorf("first-choice provider marked degraded: %+v", tts)
	}
	if tts.Provider != "canned" || len(tts.Audio) != 3 {
		t.Errorf("unexpected result %+v", tts)
	}
}

func TestLocalProviderExplicitlyConfigured(t *testing.T) {
	b := NewBridge(config.SpeechConfig{STTProvider: "local", TTSProvider: "local"}, "key", testLogger())
	if len(b.stt) != 1 || len(b.tts) != 1 {
		t.Fatalf("expected bare local chains, got stt=%d tts=%d", len(b.stt), len(b.tts))
	}
}

func TestSynthesisDefaults(t *testing.T) {
	var captured SynthesisOptions
	capture := synthFunc(func(_ context.Context, _ string, opts SynthesisOptions) ([]byte, error) {
		captured = opts
		return []byte{}, nil
	})
	b := &Bridge{tts: []Synthesizer{capture}, logger: testLogger()}

	b.TextToSpeech(context.Background(), "hello", SynthesisOptions{})
	if captured.Speed != 1.0 {
		t.Errorf("default speed = %v, want 1.0", captured.Speed)
	}
	if captured.Emotion != emotion.Neutral {
		t.Errorf("default emotion = %v, want neutral", captured.Emotion)
	}
}

type synthFunc func(context.Context, string, SynthesisOptions) ([]byte, error)

func (synthFunc) Name() string { return "func" }
func (f synthFunc) Synthesize(ctx context.Context, text string, opts SynthesisOptions) ([]byte, error) {
	return f(ctx, text, opts)
}
