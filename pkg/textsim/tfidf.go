// Package textsim scores short documents against each other using TF-IDF
// weighted unigrams and bigrams compared by cosine similarity.
package textsim

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

// ErrEmptyVocabulary is returned when no term survives tokenization and pruning.
var ErrEmptyVocabulary = errors.New("empty vocabulary")

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Config tunes vocabulary construction.
type Config struct {
	MaxFeatures int
	MinDF       int
	// MaxDF is a document frequency ratio; terms above it are pruned.
	MaxDF float64
	// MaxDFMinDocs is the corpus size below which MaxDF is not applied.
	MaxDFMinDocs int
}

// DefaultConfig mirrors the duplicate detector settings.
func DefaultConfig() Config {
	return Config{MaxFeatures: 1000, MinDF: 1, MaxDF: 0.95, MaxDFMinDocs: 3}
}

// Vector is a sparse L2 normalised term weight map.
type Vector map[string]float64

// Vectorizer builds a vocabulary over a corpus and projects every document onto it.
type Vectorizer struct {
	cfg Config
}

// NewVectorizer returns a vectorizer, filling unset fields from DefaultConfig.
func NewVectorizer(cfg Config) *Vectorizer {
	def := DefaultConfig()
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = def.MaxFeatures
	}
	if cfg.MinDF <= 0 {
		cfg.MinDF = def.MinDF
	}
	if cfg.MaxDF <= 0 || cfg.MaxDF > 1 {
		cfg.MaxDF = def.MaxDF
	}
	if cfg.MaxDFMinDocs <= 0 {
		cfg.MaxDFMinDocs = def.MaxDFMinDocs
	}
	return &Vectorizer{cfg: cfg}
}

// Terms lowercases text, drops stop words and emits unigrams followed by bigrams.
func Terms(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if !IsStopWord(tok) {
			tokens = append(tokens, tok)
		}
	}
	terms := make([]string, 0, len(tokens)*2)
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

// FitTransform learns the vocabulary of docs and returns one vector per document
// along with the retained vocabulary in sorted order.
func (v *Vectorizer) FitTransform(docs []string) ([]Vector, []string, error) {
	n := len(docs)
	counts := make([]map[string]int, n)
	df := make(map[string]int)
	total := make(map[string]int)

	for i, doc := range docs {
		tf := make(map[string]int)
		for _, term := range Terms(doc) {
			tf[term]++
			total[term]++
		}
		for term := range tf {
			df[term]++
		}
		counts[i] = tf
	}

	vocab := v.prune(df, total, n)
	if len(vocab) == 0 {
		return nil, nil, ErrEmptyVocabulary
	}

	idf := make(map[string]float64, len(vocab))
	for _, term := range vocab {
		idf[term] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	vectors := make([]Vector, n)
	for i, tf := range counts {
		vec := make(Vector)
		var norm float64
		for term, c := range tf {
			w, ok := idf[term]
			if !ok {
				continue
			}
			val := float64(c) * w
			vec[term] = val
			norm += val * val
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for term := range vec {
				vec[term] /= norm
			}
		}
		vectors[i] = vec
	}
	return vectors, vocab, nil
}

func (v *Vectorizer) prune(df, total map[string]int, n int) []string {
	keep := func(applyMax bool) []string {
		limit := v.cfg.MaxDF * float64(n)
		out := make([]string, 0, len(df))
		for term, d := range df {
			if d < v.cfg.MinDF {
				continue
			}
			if applyMax && float64(d) > limit {
				continue
			}
			out = append(out, term)
		}
		return out
	}

	terms := keep(n >= v.cfg.MaxDFMinDocs)
	if len(terms) == 0 {
		// every term is shared across the corpus; score on the unpruned set
		terms = keep(false)
	}

	sort.Slice(terms, func(i, j int) bool {
		if total[terms[i]] != total[terms[j]] {
			return total[terms[i]] > total[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > v.cfg.MaxFeatures {
		terms = terms[:v.cfg.MaxFeatures]
	}
	sort.Strings(terms)
	return terms
}

// Cosine returns the cosine similarity of two vectors. Normalised inputs make
// this the dot product; zero vectors score 0.
func Cosine(a, b Vector) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	var dot, na, nb float64
	for term, w := range a {
		dot += w * b[term]
	}
	for _, w := range a {
		na += w * w
	}
	for _, w := range b {
		nb += w * w
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Score holds a corpus index and its similarity to the candidate.
type Score struct {
	Index int
	Value float64
}

// RankAgainst vectorizes candidate with corpus and returns the similarity of
// every corpus entry to the candidate, in corpus order.
func (v *Vectorizer) RankAgainst(candidate string, corpus []string) ([]Score, error) {
	if len(corpus) == 0 {
		return nil, nil
	}
	docs := make([]string, 0, len(corpus)+1)
	docs = append(docs, candidate)
	docs = append(docs, corpus...)

	vectors, _, err := v.FitTransform(docs)
	if err != nil {
		return nil, err
	}
	scores := make([]Score, len(corpus))
	for i := range corpus {
		scores[i] = Score{Index: i, Value: Cosine(vectors[0], vectors[i+1])}
	}
	return scores, nil
}
