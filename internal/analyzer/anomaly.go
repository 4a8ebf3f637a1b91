package analyzer

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/vigia-platform/vigia/internal/ingest"
)

const (
	anomalyMinEvents = 10
	isoTrees         = 100
	isoSubsample     = 256
)

// isoNode is one node of an isolation tree over repair durations. Leaves
// keep the size of the partition that reached them.
type isoNode struct {
	split       float64
	left, right *isoNode
	size        int
}

func buildIsoTree(values []float64, depth, limit int, rng *rand.Rand) *isoNode {
	if depth >= limit || len(values) <= 1 {
		return &isoNode{size: len(values)}
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return &isoNode{size: len(values)}
	}
	split := lo + rng.Float64()*(hi-lo)
	var left, right []float64
	for _, v := range values {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}
	return &isoNode{
		split: split,
		left:  buildIsoTree(left, depth+1, limit, rng),
		right: buildIsoTree(right, depth+1, limit, rng),
	}
}

func (n *isoNode) pathLength(v float64, depth int) float64 {
	if n.left == nil {
		return float64(depth) + avgPathLength(n.size)
	}
	if v < n.split {
		return n.left.pathLength(v, depth+1)
	}
	return n.right.pathLength(v, depth+1)
}

// avgPathLength is c(n), the expected path length of an unsuccessful BST
// search over n points. Normalizes raw path lengths into scores.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	h := math.Log(float64(n-1)) + 0.5772156649015329
	return 2*h - 2*float64(n-1)/float64(n)
}

// DetectAnomalies flags repair durations that isolate unusually fast in a
// random forest of isolation trees. The seed makes runs reproducible; the
// contamination fraction fixes how many events come back flagged. Needs at
// least 10 events.
func DetectAnomalies(events []ingest.FailureEvent, contamination float64, seed int64) ([]AnomalyMark, error) {
	if len(events) < anomalyMinEvents {
		return nil, fmt.Errorf("anomaly detection needs at least %d events, got %d: %w",
			anomalyMinEvents, len(events), ErrInsufficientData)
	}
	if contamination <= 0 || contamination >= 0.5 {
		contamination = 0.1
	}

	values := make([]float64, len(events))
	for i, ev := range events {
		values[i] = ev.DurationHours
	}

	rng := rand.New(rand.NewSource(seed))
	sample := len(values)
	if sample > isoSubsample {
		sample = isoSubsample
	}
	limit := int(math.Ceil(math.Log2(float64(sample))))

	trees := make([]*isoNode, isoTrees)
	for t := range trees {
		sub := make([]float64, sample)
		for i := range sub {
			sub[i] = values[rng.Intn(len(values))]
		}
		trees[t] = buildIsoTree(sub, 0, limit, rng)
	}

	norm := avgPathLength(sample)
	marks := make([]AnomalyMark, len(events))
	for i, ev := range events {
		var total float64
		for _, tree := range trees {
			total += tree.pathLength(values[i], 0)
		}
		score := math.Pow(2, -total/float64(isoTrees)/norm)
		marks[i] = AnomalyMark{
			Index:         i,
			Equipment:     ev.Equipment,
			Start:         ev.Start,
			DurationHours: ev.DurationHours,
			Score:         score,
		}
	}

	// Flag the contamination share with the highest scores.
	flag := int(math.Round(contamination * float64(len(events))))
	if flag < 1 {
		flag = 1
	}
	byScore := make([]int, len(marks))
	for i := range byScore {
		byScore[i] = i
	}
	sort.SliceStable(byScore, func(a, b int) bool {
		return marks[byScore[a]].Score > marks[byScore[b]].Score
	})
	for _, idx := range byScore[:flag] {
		marks[idx].Anomalous = true
	}
	return marks, nil
}
