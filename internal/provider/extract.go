package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/edgard/dictant/internal/logger"
	"github.com/edgard/dictant/internal/sentence"
)

// ErrMalformed is returned when no structured record can be recovered from
// generated text.
var ErrMalformed = errors.New("malformed generation output")

var (
	fencedBlock   = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	openingSingle = regexp.MustCompile(`([{\[,:]\s*)'`)
	closingSingle = regexp.MustCompile(`'(\s*[}\]:,])`)
)

// fieldAliases maps accepted keys to record fields.
var fieldAliases = map[string]string{
	"en":                  "en",
	"english":             "en",
	"source":              "en",
	"ru":                  "ru",
	"russian":             "ru",
	"translation":         "ru",
	"topic":               "topic",
	"theme":               "topic",
	"difficulty":          "difficulty",
	"level":               "difficulty",
	"explanation":         "explanation",
	"grammar":             "explanation",
	"grammar_explanation": "explanation",
}

// normalizations are applied in order until one parses as JSON.
var normalizations = []func(string) string{
	func(s string) string { return s },
	func(s string) string { return trailingComma.ReplaceAllString(s, "$1") },
	func(s string) string {
		s = trailingComma.ReplaceAllString(s, "$1")
		s = openingSingle.ReplaceAllString(s, `$1"`)
		return closingSingle.ReplaceAllString(s, `"$1`)
	},
}

// Extract recovers a sentence record from free-form generated text. It
// strips markdown fences, isolates the outermost object and tries several
// textual normalizations before a final lenient YAML parse. The returned
// record is not validated and never carries an id.
func Extract(text string) (sentence.Sentence, error) {
	body := stripFences(text)
	obj, ok := outermostObject(body)
	if !ok {
		return sentence.Sentence{}, fmt.Errorf("%w: no object found", ErrMalformed)
	}

	for _, normalize := range normalizations {
		var fields map[string]any
		if err := json.Unmarshal([]byte(normalize(obj)), &fields); err == nil {
			return fromFields(fields), nil
		}
	}

	var fields map[string]any
	if err := yaml.Unmarshal([]byte(obj), &fields); err == nil && len(fields) > 0 {
		return fromFields(fields), nil
	}

	return sentence.Sentence{}, fmt.Errorf("%w: could not parse %q", ErrMalformed, logger.Truncate(obj, 80))
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	// Unterminated fence.
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if i := strings.IndexAny(text, "{\n"); i >= 0 {
			text = text[i:]
		}
	}
	return strings.TrimSpace(text)
}

func outermostObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func fromFields(fields map[string]any) sentence.Sentence {
	var s sentence.Sentence
	for key, value := range fields {
		str, ok := value.(string)
		if !ok {
			continue
		}
		switch fieldAliases[strings.ToLower(strings.TrimSpace(key))] {
		case "en":
			s.EN = str
		case "ru":
			s.RU = str
		case "topic":
			s.Topic = str
		case "difficulty":
			s.Difficulty = str
		case "explanation":
			s.Explanation = str
		}
	}
	return s
}
