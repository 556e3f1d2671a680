package moderation

import (
	"context"
	"strings"
	"time"
)

// TextVerdict is the classification of a message body.
type TextVerdict string

// MediaVerdict is the classification of a media reference.
type MediaVerdict string

const (
	VerdictNegative TextVerdict = "negative"
	VerdictNeutral  TextVerdict = "neutral"

	VerdictFlagged MediaVerdict = "flagged"
	VerdictClean   MediaVerdict = "clean"
)

// Classifier is the content-classification capability the engine consumes.
// Implementations may be remote and slow; the engine wraps every call with
// a deadline and degrades to neutral/clean on failure.
type Classifier interface {
	ClassifyText(ctx context.Context, body string) (TextVerdict, error)
	ClassifyMedia(ctx context.Context, ref string) (MediaVerdict, error)
}

// KeywordClassifier is the built-in stand-in implementation: a message is
// negative when it contains any configured toxic word, and a media
// reference is flagged when it contains any configured marker.
type KeywordClassifier struct {
	toxicWords   []string
	flaggedMedia []string
}

// NewKeywordClassifier creates a classifier over lowercased word lists.
func NewKeywordClassifier(toxicWords, flaggedMedia []string) *KeywordClassifier {
	lower := func(words []string) []string {
		out := make([]string, len(words))
		for i, w := range words {
			out[i] = strings.ToLower(w)
		}
		return out
	}
	return &KeywordClassifier{
		toxicWords:   lower(toxicWords),
		flaggedMedia: lower(flaggedMedia),
	}
}

func (kc *KeywordClassifier) ClassifyText(_ context.Context, body string) (TextVerdict, error) {
	lowered := strings.ToLower(body)
	for _, word := range kc.toxicWords {
		if strings.Contains(lowered, word) {
			return VerdictNegative, nil
		}
	}
	return VerdictNeutral, nil
}

func (kc *KeywordClassifier) ClassifyMedia(_ context.Context, ref string) (MediaVerdict, error) {
	lowered := strings.ToLower(ref)
	for _, marker := range kc.flaggedMedia {
		if strings.Contains(lowered, marker) {
			return VerdictFlagged, nil
		}
	}
	return VerdictClean, nil
}

// GuardedClassifier bounds every call to the wrapped classifier with a
// timeout. On timeout or error it fails open: the permissive verdict is
// returned together with the error so callers can log the degradation.
type GuardedClassifier struct {
	inner   Classifier
	timeout time.Duration
}

// NewGuardedClassifier wraps a classifier with a call deadline.
func NewGuardedClassifier(inner Classifier, timeout time.Duration) *GuardedClassifier {
	return &GuardedClassifier{inner: inner, timeout: timeout}
}

func (gc *GuardedClassifier) ClassifyText(ctx context.Context, body string) (TextVerdict, error) {
	cctx, cancel := context.WithTimeout(ctx, gc.timeout)
	defer cancel()

	type result struct {
		verdict TextVerdict
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := gc.inner.ClassifyText(cctx, body)
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return VerdictNeutral, r.err
		}
		return r.verdict, nil
	case <-cctx.Done():
		return VerdictNeutral, ErrClassifierTimeout
	}
}

func (gc *GuardedClassifier) ClassifyMedia(ctx context.Context, ref string) (MediaVerdict, error) {
	cctx, cancel := context.WithTimeout(ctx, gc.timeout)
	defer cancel()

	type result struct {
		verdict MediaVerdict
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := gc.inner.ClassifyMedia(cctx, ref)
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return VerdictClean, r.err
		}
		return r.verdict, nil
	case <-cctx.Done():
		return VerdictClean, ErrClassifierTimeout
	}
}
