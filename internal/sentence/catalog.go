package sentence

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk shape of a catalog document.
type catalogFile struct {
	Sentences []Sentence `json:"sentences" yaml:"sentences"`
}

// LoadCatalog reads the catalog at path. Any read or parse failure, or an
// empty document, yields the built-in Fallback list instead of an error.
func LoadCatalog(path string, logger *slog.Logger) []Sentence {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log := logger.With("component", "catalog", "path", path)

	sentences, err := ReadCatalog(path)
	if err != nil {
		log.Warn("Failed to load catalog, using built-in sentences", "error", err)
		return Fallback()
	}
	if len(sentences) == 0 {
		log.Warn("Catalog is empty, using built-in sentences")
		return Fallback()
	}

	log.Info("Catalog loaded", "count", len(sentences))
	return sentences
}

// ReadCatalog parses the catalog at path without any fallback. YAML is used
// for .yaml/.yml files and JSON otherwise. Records lacking an id receive a
// derived one; records failing validation are dropped.
func ReadCatalog(path string) ([]Sentence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	raw, err := decodeCatalog(path, data)
	if err != nil {
		return nil, err
	}

	out := make([]Sentence, 0, len(raw))
	for _, s := range raw {
		s.Normalize()
		if s.Validate() != nil {
			continue
		}
		s.EnsureID()
		out = append(out, s)
	}
	return out, nil
}

func decodeCatalog(path string, data []byte) ([]Sentence, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		var doc catalogFile
		if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Sentences) > 0 {
			return doc.Sentences, nil
		}
		var list []Sentence
		if err := yaml.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to parse YAML catalog: %w", err)
		}
		return list, nil
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []Sentence
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to parse JSON catalog: %w", err)
		}
		return list, nil
	}

	var doc catalogFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON catalog: %w", err)
	}
	return doc.Sentences, nil
}

// Fallback returns the small built-in catalog.
func Fallback() []Sentence {
	return []Sentence{
		{
			ID:         1,
			EN:         "I bought a new car yesterday",
			RU:         "Я вчера купил новую машину",
			Topic:      "🚗 Покупки",
			Difficulty: "легко",
			Explanation: "Past Simple (bought) описывает завершённое действие в прошлом. " +
				"Yesterday обычно ставится в конец предложения.",
		},
		{
			ID:          2,
			EN:          "She has been working here for five years",
			RU:          "Она работает здесь уже пять лет",
			Topic:       "💼 Работа",
			Difficulty:  "средне",
			Explanation: "Present Perfect Continuous: действие началось в прошлом и продолжается сейчас. В русском языке используется настоящее время.",
		},
		{
			ID:          3,
			EN:          "If it rains tomorrow, we will stay at home",
			RU:          "Если завтра пойдёт дождь, мы останемся дома",
			Topic:       "🌦 Погода",
			Difficulty:  "средне",
			Explanation: "First Conditional: в части с if используется Present Simple, хотя речь идёт о будущем.",
		},
	}
}
