package query

import (
	"strings"

	prose "github.com/jdkato/prose/v2"
)

// maxPhraseTokens bounds candidate noun phrases to 1-4 tokens
const maxPhraseTokens = 4

// nounPhrases extracts lowercase candidate noun phrases from the text using
// part-of-speech tagging. Maximal runs of adjectives and nouns are chunked,
// then every sub-span of a run that ends in a noun (up to maxPhraseTokens
// long) becomes a candidate, so "llm alignment" yields "llm", "alignment"
// and "llm alignment". Returns a deduplicated set.
func nounPhrases(text string) (map[string]struct{}, error) {
	doc, err := prose.NewDocument(
		strings.ToLower(text),
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return nil, err
	}

	phrases := make(map[string]struct{})

	var run []prose.Token
	flush := func() {
		emitSubSpans(run, phrases)
		run = nil
	}

	for _, tok := range doc.Tokens() {
		if isNounTag(tok.Tag) || isAdjectiveTag(tok.Tag) {
			run = append(run, tok)
			continue
		}
		flush()
	}
	flush()

	return phrases, nil
}

// emitSubSpans adds every contiguous sub-span of the run that ends in a noun
func emitSubSpans(run []prose.Token, out map[string]struct{}) {
	for end := 0; end < len(run); end++ {
		if !isNounTag(run[end].Tag) {
			continue
		}
		for start := end; start >= 0 && end-start < maxPhraseTokens; start-- {
			words := make([]string, 0, end-start+1)
			for i := start; i <= end; i++ {
				words = append(words, run[i].Text)
			}
			phrase := strings.TrimSpace(strings.Join(words, " "))
			if phrase != "" {
				out[phrase] = struct{}{}
			}
		}
	}
}

func isNounTag(tag string) bool {
	return strings.HasPrefix(tag, "NN")
}

func isAdjectiveTag(tag string) bool {
	return strings.HasPrefix(tag, "JJ")
}

// expandSynonyms adds known synonyms so they participate in the search
func expandSynonyms(phrases map[string]struct{}) map[string]struct{} {
	expanded := make(map[string]struct{}, len(phrases))
	for p := range phrases {
		expanded[p] = struct{}{}
		if syn, ok := SynonymMap[p]; ok {
			expanded[syn] = struct{}{}
		}
	}
	return expanded
}
