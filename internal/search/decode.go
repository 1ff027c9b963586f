package search

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/falasearch/fala-search/internal/query"
)

// UnmarshalJSON decodes a response as written by the HTTP API, restoring
// the concrete smart card and result meta types.
func (r *Response) UnmarshalJSON(data []byte) error {
	var raw struct {
		Intent    query.Intent    `json:"intent"`
		SmartCard json.RawMessage `json:"smartCard"`
		Results   []Result        `json:"results"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	card, err := DecodeSmartCard(raw.SmartCard)
	if err != nil {
		return err
	}

	r.Intent = raw.Intent
	r.SmartCard = card
	r.Results = raw.Results
	if r.Results == nil {
		r.Results = []Result{}
	}
	return nil
}

// DecodeSmartCard decodes one card, picking the concrete type from its
// "type" field. Empty input and null decode to a nil card.
func DecodeSmartCard(data []byte) (SmartCard, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var head struct {
		Type query.IntentType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	var card SmartCard
	switch head.Type {
	case query.IntentTranslation:
		card = &TranslationCard{}
	case query.IntentDefinition:
		card = &DefinitionCard{}
	case query.IntentConjugation:
		card = &ConjugationCard{}
	case query.IntentTense:
		card = &TenseCard{}
	case query.IntentComparison:
		card = &ComparisonCard{}
	case query.IntentGrammar:
		card = &GrammarCard{}
	default:
		return nil, fmt.Errorf("unknown smart card type %q", head.Type)
	}

	if err := json.Unmarshal(data, card); err != nil {
		return nil, err
	}
	return card, nil
}

// UnmarshalJSON decodes a result, choosing the Meta type from Type.
func (r *Result) UnmarshalJSON(data []byte) error {
	type plain Result
	var raw struct {
		plain
		Meta json.RawMessage `json:"meta,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Result(raw.plain)
	r.Meta = nil

	meta := bytes.TrimSpace(raw.Meta)
	if len(meta) == 0 || bytes.Equal(meta, []byte("null")) {
		return nil
	}

	switch r.Type {
	case TypeVocabulary:
		var m VocabularyMeta
		if err := json.Unmarshal(meta, &m); err != nil {
			return err
		}
		r.Meta = m
	case TypeVerb:
		var m VerbMeta
		if err := json.Unmarshal(meta, &m); err != nil {
			return err
		}
		r.Meta = m
	case TypeConjugation:
		var m ConjugationMeta
		if err := json.Unmarshal(meta, &m); err != nil {
			return err
		}
		r.Meta = m
	case TypeGrammar:
		var m GrammarMeta
		if err := json.Unmarshal(meta, &m); err != nil {
			return err
		}
		r.Meta = m
	default:
		return fmt.Errorf("unknown result type %q", r.Type)
	}
	return nil
}
