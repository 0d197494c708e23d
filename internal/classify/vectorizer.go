package classify

import (
	"math"
	"sort"
)

// sparseVector is a feature vector with sorted indices
type sparseVector struct {
	idx []int
	val []float64
}

// vectorizer maps n-gram features to L2-normalized TF-IDF vectors
type vectorizer struct {
	terms []string       // Index -> term, sorted
	index map[string]int // Term -> index
	idf   []float64
}

// fitVectorizer builds the vocabulary and smoothed IDF weights from training documents.
// idf(t) = ln((1+n)/(1+df(t))) + 1
func fitVectorizer(docs [][]string) *vectorizer {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool, len(doc))
		for _, term := range doc {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(docs))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	return newVectorizer(terms, idf)
}

func newVectorizer(terms []string, idf []float64) *vectorizer {
	index := make(map[string]int, len(terms))
	for i, term := range terms {
		index[term] = i
	}
	return &vectorizer{terms: terms, index: index, idf: idf}
}

// size returns the vocabulary size
func (v *vectorizer) size() int {
	return len(v.terms)
}

// transform converts features to a TF-IDF vector. Unknown features are ignored,
// so the result may be empty.
func (v *vectorizer) transform(features []string) sparseVector {
	counts := make(map[int]float64)
	for _, f := range features {
		if i, ok := v.index[f]; ok {
			counts[i]++
		}
	}

	vec := sparseVector{
		idx: make([]int, 0, len(counts)),
		val: make([]float64, 0, len(counts)),
	}
	for i := range counts {
		vec.idx = append(vec.idx, i)
	}
	sort.Ints(vec.idx)

	var norm float64
	for _, i := range vec.idx {
		w := counts[i] * v.idf[i]
		vec.val = append(vec.val, w)
		norm += w * w
	}

	if norm > 0 {
		norm = math.Sqrt(norm)
		for k := range vec.val {
			vec.val[k] /= norm
		}
	}

	return vec
}
