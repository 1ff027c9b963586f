package search

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestResponse_UnmarshalJSON(t *testing.T) {
	svc := newDefaultService(t)

	for _, q := range []string{
		"how do you say house",
		"what does casa mean",
		"conjugate falar",
		"past tense of falar",
		"ser vs estar",
		"casa",
		"zzqqnonexistentword",
	} {
		t.Run(q, func(t *testing.T) {
			want := svc.Search(q)
			data, err := json.Marshal(want)
			if err != nil {
				t.Fatalf("Marshal() error: %v", err)
			}

			var got Response
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Unmarshal() error: %v", err)
			}

			if got.Intent.Type != want.Intent.Type ||
				got.Intent.ExtractedQuery != want.Intent.ExtractedQuery ||
				got.Intent.Tense != want.Intent.Tense ||
				len(got.Intent.ComparisonTerms) != len(want.Intent.ComparisonTerms) {
				t.Errorf("Intent = %+v, want %+v", got.Intent, want.Intent)
			}
			if (got.SmartCard == nil) != (want.SmartCard == nil) {
				t.Fatalf("SmartCard = %#v, want %#v", got.SmartCard, want.SmartCard)
			}
			if want.SmartCard != nil {
				if reflect.TypeOf(got.SmartCard) != reflect.TypeOf(want.SmartCard) {
					t.Errorf("card type %T, want %T", got.SmartCard, want.SmartCard)
				}
				if got.SmartCard.Target() != want.SmartCard.Target() {
					t.Errorf("Target() = %q, want %q", got.SmartCard.Target(), want.SmartCard.Target())
				}
			}
			if len(got.Results) != len(want.Results) {
				t.Fatalf("got %d results, want %d", len(got.Results), len(want.Results))
			}
			for i := range want.Results {
				if got.Results[i].Href != want.Results[i].Href || got.Results[i].Score != want.Results[i].Score {
					t.Errorf("result %d = %+v, want %+v", i, got.Results[i], want.Results[i])
				}
				if !reflect.DeepEqual(got.Results[i].Meta, want.Results[i].Meta) {
					t.Errorf("result %d meta = %#v, want %#v", i, got.Results[i].Meta, want.Results[i].Meta)
				}
			}
		})
	}
}

func TestDecodeSmartCard_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown type", `{"type":"weather"}`},
		{"no type", `{"href":"/x"}`},
		{"malformed", `{"type":`},
		{"wrong field type", `{"type":"grammar","title":7}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeSmartCard([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}

	for _, empty := range []string{"", "null", "  null "} {
		card, err := DecodeSmartCard([]byte(empty))
		if card != nil || err != nil {
			t.Errorf("DecodeSmartCard(%q) = %v, %v; want nil, nil", empty, card, err)
		}
	}
}

func TestResult_UnmarshalJSON_UnknownType(t *testing.T) {
	var r Result
	if err := json.Unmarshal([]byte(`{"type":"idiom","title":"x","meta":{"a":1}}`), &r); err == nil {
		t.Error("expected error for unknown result type")
	}
	if err := json.Unmarshal([]byte(`{"type":"idiom","title":"x"}`), &r); err != nil || r.Title != "x" {
		t.Errorf("Unmarshal without meta = %+v, %v", r, err)
	}
}
