package speech

import (
	"context"
	"log"

	"github.com/mohammad-safakhou/tutor/config"
	"github.com/mohammad-safakhou/tutor/internal/emotion"
)

// Transcriber converts audio to text.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audio []byte, format string) (string, error)
}

// SynthesisOptions tune a text-to-speech request.
type SynthesisOptions struct {
	Emotion emotion.Emotion
	Voice   string
	Speed   float64
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text string, opts SynthesisOptions) ([]byte, error)
}

// STTResult carries a transcript plus provenance: Degraded marks output that
// came from a fallback or the local mock rather than the configured provider.
type STTResult struct {
	Text     string
	Provider string
	Degraded bool
}

// TTSResult carries synthesized audio plus provenance.
type TTSResult struct {
	Audio    []byte
	Format   string
	Provider string
	Degraded bool
}

// Bridge routes speech requests through a fixed provider chain built once
// from configuration. The chain always terminates in the local provider,
// which never fails, so neither SpeechToText nor TextToSpeech can error.
type Bridge struct {
	stt    []Transcriber
	tts    []Synthesizer
	logger *log.Logger
}

// NewBridge builds the STT and TTS chains for the configured providers.
// Unknown provider names fall straight through to local.
func NewBridge(cfg config.SpeechConfig, openAIKey string, logger *log.Logger) *Bridge {
	b := &Bridge{logger: logger}

	switch cfg.STTProvider {
	case "openai":
		if openAIKey != "" {
			b.stt = append(b.stt, NewOpenAITranscriber(openAIKey))
		}
	case "google":
		if cfg.GoogleAPIKey != "" {
			b.stt = append(b.stt, NewGoogleTranscriber(cfg.GoogleAPIKey))
		}
	case "huggingface":
		if cfg.HuggingFaceKey != "" {
			b.stt = append(b.stt, NewHuggingFaceTranscriber(cfg.HuggingFaceKey))
		}
	case "local":
	default:
		logger.Printf("unknown STT provider %q, using local fallback", cfg.STTProvider)
	}
	b.stt = append(b.stt, LocalTranscriber{})

	switch cfg.TTSProvider {
	case "google":
		if cfg.GoogleAPIKey != "" {
			b.tts = append(b.tts, NewGoogleSynthesizer(cfg.GoogleAPIKey))
		}
	case "elevenlabs":
		if cfg.ElevenLabsKey != "" {
			b.tts = append(b.tts, NewElevenLabsSynthesizer(cfg.ElevenLabsKey))
		}
	case "openai":
		if openAIKey != "" {
			b.tts = append(b.tts, NewOpenAISynthesizer(openAIKey))
		}
	case "local":
	default:
		logger.Printf("unknown TTS provider %q, using local fallback", cfg.TTSProvider)
	}
	b.tts = append(b.tts, LocalSynthesizer{})

	return b
}

// SpeechToText transcribes audio, walking the fallback chain until a provider
// succeeds. The local terminator guarantees a result.
func (b *Bridge) SpeechToText(ctx context.Context, audio []byte, format string) STTResult {
	for i, p := range b.stt {
		text, err := p.Transcribe(ctx, audio, format)
		if err != nil {
			b.logger.Printf("%s STT failed: %v", p.Name(), err)
			continue
		}
		return STTResult{
			Text:     text,
			Provider: p.Name(),
			Degraded: i > 0 || p.Name() == localProviderName,
		}
	}
	// Unreachable: LocalTranscriber never errors.
	return STTResult{Provider: localProviderName, Degraded: true}
}

// TextToSpeech synthesizes audio, walking the fallback chain. Worst case the
// local provider returns empty audio.
func (b *Bridge) TextToSpeech(ctx context.Context, text string, opts SynthesisOptions) TTSResult {
	if opts.Speed == 0 {
		opts.Speed = 1.0
	}
	if opts.Emotion == "" {
		opts.Emotion = emotion.Neutral
	}
	for i, p := range b.tts {
		audio, err := p.Synthesize(ctx, text, opts)
		if err != nil {
			b.logger.Printf("%s TTS failed: %v", p.Name(), err)
			continue
		}
		return TTSResult{
			Audio:    audio,
			Format:   "mp3",
			Provider: p.Name(),
			Degraded: i > 0 || p.Name() == localProviderName,
		}
	}
	return TTSResult{Audio: []byte{}, Format: "mp3", Provider: localProviderName, Degraded: true}
}
