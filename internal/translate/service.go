// Package translate wraps the LLM gateway with translation and
// detect-and-translate operations, validating every output with the light
// language detector so an untranslated passthrough is never silently
// stored as a translation.
package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/language"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/llm"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
)

// Gateway is the slice of the LLM gateway this service needs.
type Gateway interface {
	Complete(ctx context.Context, tier llm.Tier, system, prompt string) (string, error)
}

// Service performs translation and language detection through the gateway.
type Service struct {
	gateway Gateway
}

// NewService creates a translation service.
func NewService(gateway Gateway) *Service {
	return &Service{gateway: gateway}
}

var languageNames = map[string]string{
	"pt": "Portuguese",
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
}

func languageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

const translateSystem = "You are a translation engine. Answer with the translated text only: no preamble, no explanation, no quotation marks."

// Translate translates text from sourceLang to targetLang on the free
// tier. Returns nil when the gateway failed or the output did not validate
// as actually translated; callers never receive the original text disguised
// as a translation.
func (s *Service) Translate(ctx context.Context, text, sourceLang, targetLang string) (*string, error) {
	return s.translate(ctx, llm.TierFree, text, sourceLang, targetLang)
}

// TranslateDeep is Translate on the premium tier, for deep-analysis flows.
func (s *Service) TranslateDeep(ctx context.Context, text, sourceLang, targetLang string) (*string, error) {
	return s.translate(ctx, llm.TierPremium, text, sourceLang, targetLang)
}

func (s *Service) translate(ctx context.Context, tier llm.Tier, text, sourceLang, targetLang string) (*string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if strings.EqualFold(sourceLang, targetLang) {
		return &text, nil
	}

	prompt := fmt.Sprintf("Translate the following %s text to %s:\n\n%s",
		languageName(sourceLang), languageName(targetLang), text)

	out, err := s.gateway.Complete(ctx, tier, translateSystem, prompt)
	if err != nil {
		logging.TranslateDebug("Translation %s->%s failed: %v", sourceLang, targetLang, err)
		return nil, err
	}
	out = strings.TrimSpace(out)

	if !s.validate(out, sourceLang) {
		logging.Translate("Discarded passthrough translation %s->%s (%d chars)", sourceLang, targetLang, len(out))
		return nil, nil
	}
	return &out, nil
}

// validate rejects output whose detected language still equals the source
// language, i.e. the model echoed the input. Strings too short for the
// detector are accepted as-is (language.MinDetectLength).
func (s *Service) validate(out, sourceLang string) bool {
	if out == "" {
		return false
	}
	d := language.Detect(out)
	if d.Language == language.Unknown {
		return true
	}
	return !strings.EqualFold(d.Language, sourceLang)
}

// DetectAndTranslate asks the gateway to identify the real source language
// and translate in one call. The detected language is authoritative and
// overrides assumedSource. On gateway failure it falls back to the light
// detector and returns no translation.
func (s *Service) DetectAndTranslate(ctx context.Context, text, assumedSource, target string) (translated *string, detected string, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, assumedSource, nil
	}

	system := "You are a translation engine. First line of your answer: the ISO 639-1 code of the input language. Remaining lines: the translation. Nothing else."
	prompt := fmt.Sprintf("Target language: %s\n\nText:\n%s", languageName(target), text)

	out, err := s.gateway.Complete(ctx, llm.TierFree, system, prompt)
	if err != nil {
		d := language.Detect(text)
		if d.Language != language.Unknown {
			return nil, d.Language, err
		}
		return nil, assumedSource, err
	}

	lines := strings.SplitN(strings.TrimSpace(out), "\n", 2)
	detected = strings.ToLower(strings.TrimSpace(lines[0]))
	if len(detected) != 2 {
		// Model ignored the format; trust the light detector instead.
		d := language.Detect(text)
		detected = d.Language
		if detected == language.Unknown {
			detected = assumedSource
		}
		return nil, detected, nil
	}

	if len(lines) < 2 {
		return nil, detected, nil
	}
	body := strings.TrimSpace(lines[1])
	if !s.validate(body, detected) {
		return nil, detected, nil
	}
	return &body, detected, nil
}
