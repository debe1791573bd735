package ingest

import (
	"fmt"
	"strconv"

	"github.com/c360studio/semsurvey/mapping"
)

// applyTransform converts a raw answer into a normalized value under the
// question's transform rules. It returns the value, an optional unit name,
// and transform metadata to attach to the observation. Pure: no registry
// access, no side effects. Every failure is a *MappingError.
func applyTransform(q *mapping.QuestionInfo, answer any) (any, string, map[string]any, error) {
	transforms := q.Transforms

	switch q.Kind() {
	case mapping.KindLikert:
		key := stringify(answer)
		score, ok := transforms.ScoreMapping[key]
		if !ok {
			return nil, "", nil, mappingErrorf(
				"answer %q not present in score mapping for question %q", key, q.Prompt)
		}
		metadata := map[string]any{"score": score}
		if transforms.StoreRaw {
			metadata["raw_value"] = answer
		}
		return score, "", metadata, nil

	case mapping.KindMultipleChoice:
		key := stringify(answer)
		score, ok := transforms.OptionScores[key]
		if !ok {
			return nil, "", nil, mappingErrorf(
				"answer %q not present in option scores for question %q", key, q.Prompt)
		}
		metadata := map[string]any{
			"selected_option": key,
			"score":           score,
		}
		return score, "", metadata, nil

	case mapping.KindNumeric:
		value, ok := toFloat(answer)
		if !ok {
			return nil, "", nil, mappingErrorf("expected numeric answer, received %v", answer)
		}

		units := transforms.OutputUnit
		if units == "" {
			units = transforms.InputUnit
		}

		metadata := map[string]any{}
		if transforms.ConversionFactor != nil {
			value *= *transforms.ConversionFactor
			metadata["conversion_factor"] = *transforms.ConversionFactor
			if transforms.InputUnit != "" {
				metadata["input_unit"] = transforms.InputUnit
			}
		}
		if transforms.StoreRaw {
			metadata["raw_value"] = answer
		}
		return value, units, metadata, nil

	case mapping.KindFreeText:
		text := stringify(answer)
		metadata := map[string]any{"raw_text": text}
		for k, v := range transforms.Static {
			metadata[k] = v
		}
		return text, "", metadata, nil

	default:
		return nil, "", nil, mappingErrorf("unsupported response type %q", q.ResponseType)
	}
}

// stringify renders an answer the way registry keys are written: integral
// floats (the usual JSON number decoding) print without a decimal point.
func stringify(answer any) string {
	switch v := answer.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", answer)
	}
}

// toFloat coerces an answer to a float64 if possible.
func toFloat(answer any) (float64, bool) {
	switch v := answer.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case fmt.Stringer:
		f, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
