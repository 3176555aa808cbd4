package vocab

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Provider supplies the universe of candidate words for a language and tier.
type Provider interface {
	WordsFor(ctx context.Context, language string, tier Difficulty) ([]string, error)
}

// Sink accepts imported vocabulary. It returns how many words were new.
type Sink interface {
	AddWords(ctx context.Context, language string, tier Difficulty, words []string) (int, error)
}

// StaticProvider is an in-memory Provider, usually loaded from a YAML file.
type StaticProvider struct {
	mu    sync.RWMutex
	pools map[string]map[Difficulty][]string
}

// NewStaticProvider creates an empty provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{pools: make(map[string]map[Difficulty][]string)}
}

// WordsFor returns a copy of the pool for language and tier.
func (p *StaticProvider) WordsFor(_ context.Context, language string, tier Difficulty) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	words := p.pools[language][tier]
	out := make([]string, len(words))
	copy(out, words)
	return out, nil
}

// AddWords appends words not already present in the pool.
func (p *StaticProvider) AddWords(_ context.Context, language string, tier Difficulty, words []string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tiers, ok := p.pools[language]
	if !ok {
		tiers = make(map[Difficulty][]string)
		p.pools[language] = tiers
	}
	seen := make(map[string]bool, len(tiers[tier]))
	for _, w := range tiers[tier] {
		seen[w] = true
	}
	added := 0
	for _, w := range words {
		w = Normalize(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		tiers[tier] = append(tiers[tier], w)
		added++
	}
	return added, nil
}

// Languages returns the languages with at least one pool, sorted.
func (p *StaticProvider) Languages() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	langs := make([]string, 0, len(p.pools))
	for l := range p.pools {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Each calls fn for every (language, tier) pool, in language then tier order.
func (p *StaticProvider) Each(fn func(language string, tier Difficulty, words []string) error) error {
	for _, lang := range p.Languages() {
		p.mu.RLock()
		tiers := make([]Difficulty, 0, len(p.pools[lang]))
		for d := range p.pools[lang] {
			tiers = append(tiers, d)
		}
		p.mu.RUnlock()
		sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })
		for _, d := range tiers {
			words, _ := p.WordsFor(context.Background(), lang, d)
			if err := fn(lang, d, words); err != nil {
				return err
			}
		}
	}
	return nil
}

// yamlVocabulary is the on-disk layout:
//
//	languages:
//	  de:
//	    beginner: [Haus, Katze]
//	    intermediate: [Gewohnheit]
type yamlVocabulary struct {
	Languages map[string]map[string][]string `yaml:"languages"`
}

// LoadYAML parses a tiered vocabulary document into a StaticProvider.
func LoadYAML(r io.Reader) (*StaticProvider, error) {
	var doc yamlVocabulary
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}
	p := NewStaticProvider()
	for lang, tiers := range doc.Languages {
		for tierName, words := range tiers {
			tier, err := ParseDifficulty(tierName)
			if err != nil {
				return nil, fmt.Errorf("language %s: %w", lang, err)
			}
			if _, err := p.AddWords(context.Background(), lang, tier, words); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}
