package call

import (
	"context"
	"fmt"
	"log/slog"
)

// Transcriber turns a chunk of inbound caller audio into text. Partial
// utterances return empty text until a full utterance is available.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Speaker renders agent text as outbound call audio in the call's codec.
type Speaker interface {
	Speak(ctx context.Context, text string) ([]byte, error)
}

// Pipeline bridges the audio channel to the dialogue agent: transcript in,
// speech out. One pipeline serves one call.
type Pipeline struct {
	transcriber Transcriber
	speaker     Speaker
	agent       *Agent
}

// NewPipeline assembles the speech pipeline around an agent.
func NewPipeline(transcriber Transcriber, speaker Speaker, agent *Agent) *Pipeline {
	return &Pipeline{transcriber: transcriber, speaker: speaker, agent: agent}
}

// Greet speaks the opening line.
func (p *Pipeline) Greet(ctx context.Context) ([]byte, error) {
	reply, err := p.agent.Greet(ctx)
	if err != nil {
		return nil, err
	}
	return p.speaker.Speak(ctx, reply)
}

// HandleAudio processes inbound audio. It returns the audio to play back and
// whether the call should end after playback. Nil audio with a nil error
// means the transcriber is still mid-utterance.
func (p *Pipeline) HandleAudio(ctx context.Context, audio []byte) ([]byte, bool, error) {
	utterance, err := p.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return nil, false, fmt.Errorf("transcription failed: %w", err)
	}
	if utterance == "" {
		return nil, false, nil
	}
	slog.Debug("call.HandleAudio: utterance transcribed",
		"sessionID", p.agent.Session().ID, "length", len(utterance))

	reply, done, err := p.agent.HandleUtterance(ctx, utterance)
	if err != nil {
		return nil, false, err
	}
	speech, err := p.speaker.Speak(ctx, reply)
	if err != nil {
		return nil, done, fmt.Errorf("speech synthesis failed: %w", err)
	}
	return speech, done, nil
}
