package usecase

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// optionsFile is the on-disk shape of a parser override file:
//
//	synonyms:
//	  - from: "vw"
//	    to: "volkswagen"
//	stop_words: [el, la, filtro]
//	model_whitelist: ["12", "208", "f100"]
type optionsFile struct {
	Synonyms []struct {
		From string `yaml:"from"`
		To   string `yaml:"to"`
	} `yaml:"synonyms"`
	StopWords      []string `yaml:"stop_words"`
	ModelWhitelist []string `yaml:"model_whitelist"`
}

// LoadParserOptions reads a YAML override file. An empty path returns
// zero options (parser defaults apply).
func LoadParserOptions(path string) (ParserOptions, error) {
	var opts ParserOptions
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read parser options: %w", err)
	}
	var file optionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return opts, fmt.Errorf("parse parser options: %w", err)
	}

	for _, s := range file.Synonyms {
		if s.From == "" || s.To == "" {
			return opts, fmt.Errorf("parser options: synonym with empty from/to")
		}
		opts.Synonyms = append(opts.Synonyms, SynonymPair{From: s.From, To: s.To})
	}
	opts.StopWords = file.StopWords
	opts.ModelWhitelist = file.ModelWhitelist
	return opts, nil
}
