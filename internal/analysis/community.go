package analysis

import (
	"sort"

	"github.com/nexusmind/nexusmind/internal/model"
)

// LabelPropagationDetector groups nodes into communities by propagating
// labels over the edge structure until they stabilize.
type LabelPropagationDetector struct {
	MaxIterations int
}

func NewLabelPropagationDetector() *LabelPropagationDetector {
	return &LabelPropagationDetector{MaxIterations: 20}
}

func (d *LabelPropagationDetector) Detect(nodes []*model.Node, edges []*model.Edge) [][]*model.Node {
	if len(nodes) == 0 {
		return nil
	}

	// Undirected adjacency; parallel edges strengthen the connection.
	adj := make(map[string]map[string]int)
	nodeMap := make(map[string]*model.Node)
	for _, n := range nodes {
		nodeMap[n.ID] = n
		adj[n.ID] = make(map[string]int)
	}
	for _, e := range edges {
		if _, ok := nodeMap[e.SourceID]; !ok {
			continue
		}
		if _, ok := nodeMap[e.TargetID]; !ok {
			continue
		}
		adj[e.SourceID][e.TargetID]++
		adj[e.TargetID][e.SourceID]++
	}

	labels := make(map[string]string)
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		labels[n.ID] = n.ID
		ids[i] = n.ID
	}
	// Fixed processing order keeps runs deterministic.
	sort.Strings(ids)

	for iter := 0; iter < d.MaxIterations; iter++ {
		changed := 0
		for _, u := range ids {
			neighbors := adj[u]
			if len(neighbors) == 0 {
				continue
			}

			counts := make(map[string]int)
			maxCount := 0
			for v, weight := range neighbors {
				label := labels[v]
				counts[label] += weight
				if counts[label] > maxCount {
					maxCount = counts[label]
				}
			}

			var candidates []string
			for label, count := range counts {
				if count == maxCount {
					candidates = append(candidates, label)
				}
			}
			// Lexicographically largest wins ties.
			sort.Strings(candidates)
			best := candidates[len(candidates)-1]

			if labels[u] != best {
				labels[u] = best
				changed++
			}
		}
		if changed == 0 {
			break
		}
	}

	clusters := make(map[string][]*model.Node)
	for _, id := range ids {
		clusters[labels[id]] = append(clusters[labels[id]], nodeMap[id])
	}

	var clusterLabels []string
	for label, cluster := range clusters {
		if len(cluster) >= 2 {
			clusterLabels = append(clusterLabels, label)
		}
	}
	sort.Strings(clusterLabels)

	communities := make([][]*model.Node, 0, len(clusterLabels))
	for _, label := range clusterLabels {
		communities = append(communities, clusters[label])
	}
	return communities
}
