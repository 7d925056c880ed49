package port

import (
	"context"

	"github.com/bharatbiz/bizagent/internal/domain/intent"
)

// IntentClassifier is the language-understanding collaborator. It turns a raw
// utterance into a classification; the payload is validated by the caller.
type IntentClassifier interface {
	Classify(ctx context.Context, utterance string) (*intent.Classification, error)
}

// Speaker plays response text aloud. Failures are not critical.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}
