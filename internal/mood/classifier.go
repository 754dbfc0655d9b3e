package mood

import (
	"context"
	"io"
	"math/rand"
)

// Classifier detects a mood from an uploaded image. Confidence is a 0-100
// score, or nil when the classifier cannot produce one.
type Classifier interface {
	Classify(ctx context.Context, image io.Reader) (label string, confidence *float64, err error)
}

// RandomClassifier is the placeholder used until a real emotion model is
// wired in. It picks uniformly from the mood vocabulary and reports no
// confidence.
type RandomClassifier struct{}

// Classify implements Classifier.
func (RandomClassifier) Classify(_ context.Context, _ io.Reader) (string, *float64, error) {
	return Vocabulary[rand.Intn(len(Vocabulary))], nil, nil
}
