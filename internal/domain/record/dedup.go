package record

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Recommendation is the advisory resolution for a duplicate group.
type Recommendation string

const (
	RecommendKeepFirst Recommendation = "keep_first"
	RecommendMerge     Recommendation = "merge"
	RecommendReview    Recommendation = "review"
)

// DuplicateGroup is a transitively merged cluster of probable duplicates.
// RecordIndices refer to positions in the input slice and are ascending;
// groups never share an index.
type DuplicateGroup struct {
	Key            string
	RecordIndices  []int
	Similarity     float64
	MatchingFields []MatchField
	Recommendation Recommendation
}

// Detector clusters records into duplicate groups. The cutoffs are
// heuristics carried over from the product, kept configurable rather than
// baked in.
type Detector struct {
	Weights         SimilarityWeights
	Threshold       float64
	KeepFirstCutoff float64
	MergeCutoff     float64
	MergeFieldCount int
}

// NewDetector returns a Detector with the stock cutoffs. A zero threshold
// falls back to 0.85.
func NewDetector(weights SimilarityWeights, threshold float64) Detector {
	if threshold <= 0 {
		threshold = 0.85
	}
	return Detector{
		Weights:         weights,
		Threshold:       threshold,
		KeepFirstCutoff: 0.95,
		MergeCutoff:     0.9,
		MergeFieldCount: 3,
	}
}

// DetectDuplicates clusters records with the stock detector cutoffs.
func DetectDuplicates(records []CanonicalRecord, weights SimilarityWeights, threshold float64) []DuplicateGroup {
	return NewDetector(weights, threshold).Detect(records)
}

type groupStats struct {
	simSum   float64
	simCount int
	fields   map[MatchField]bool
}

// Detect compares every unordered pair, merges pairs at or above the
// threshold into transitive groups via union-find, and returns the finished
// groups sorted by descending similarity. Output is deterministic for a
// fixed input order.
func (d Detector) Detect(records []CanonicalRecord) []DuplicateGroup {
	uf := newUnionFind(len(records))
	stats := make(map[int]*groupStats)

	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			pair := compareRecords(records[i], records[j], d.Weights)
			if pair.similarity < d.Threshold {
				continue
			}

			ri, rj := uf.find(i), uf.find(j)
			merged := takeStats(stats, ri)
			if rj != ri {
				if other := takeStats(stats, rj); other != nil {
					merged = combineStats(merged, other)
				}
			}
			if merged == nil {
				merged = &groupStats{fields: make(map[MatchField]bool)}
			}

			merged.simSum += pair.similarity
			merged.simCount++
			for _, f := range pair.matched {
				merged.fields[f] = true
			}
			stats[uf.union(i, j)] = merged
		}
	}

	return d.buildGroups(len(records), uf, stats)
}

func (d Detector) buildGroups(n int, uf *unionFind, stats map[int]*groupStats) []DuplicateGroup {
	members := make(map[int][]int)
	var roots []int
	for i := 0; i < n; i++ {
		root := uf.find(i)
		if stats[root] == nil {
			continue
		}
		if len(members[root]) == 0 {
			roots = append(roots, root)
		}
		members[root] = append(members[root], i)
	}

	groups := make([]DuplicateGroup, 0, len(roots))
	for _, root := range roots {
		st := stats[root]
		indices := members[root]
		similarity := st.simSum / float64(st.simCount)
		groups = append(groups, DuplicateGroup{
			Key:            groupKey(indices[0]),
			RecordIndices:  indices,
			Similarity:     similarity,
			MatchingFields: orderedFields(st.fields),
			Recommendation: d.recommend(similarity, st.fields),
		})
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Similarity > groups[b].Similarity
	})
	return groups
}

// recommend applies the resolution ladder in priority order.
func (d Detector) recommend(similarity float64, fields map[MatchField]bool) Recommendation {
	switch {
	case similarity > d.KeepFirstCutoff && fields[MatchEmail]:
		return RecommendKeepFirst
	case similarity > d.MergeCutoff && len(fields) >= d.MergeFieldCount:
		return RecommendMerge
	case similarity > d.Threshold && similarity <= d.MergeCutoff:
		return RecommendReview
	default:
		return RecommendKeepFirst
	}
}

// groupKey derives a stable opaque id from the group's lowest member index.
func groupKey(minIndex int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("duplicate-group:%d", minIndex))).String()
}

func orderedFields(fields map[MatchField]bool) []MatchField {
	out := make([]MatchField, 0, len(fields))
	for _, f := range matchFieldOrder {
		if fields[f] {
			out = append(out, f)
		}
	}
	return out
}

func takeStats(stats map[int]*groupStats, root int) *groupStats {
	st := stats[root]
	delete(stats, root)
	return st
}

func combineStats(a, b *groupStats) *groupStats {
	if a == nil {
		return b
	}
	a.simSum += b.simSum
	a.simCount += b.simCount
	for f := range b.fields {
		a.fields[f] = true
	}
	return a
}

// unionFind tracks transitive group membership by record index.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

// union attaches the larger root to the smaller so that group roots stay
// stable as the lowest member index.
func (u *unionFind) union(i, j int) int {
	ri, rj := u.find(i), u.find(j)
	if ri == rj {
		return ri
	}
	if rj < ri {
		ri, rj = rj, ri
	}
	u.parent[rj] = ri
	return ri
}
