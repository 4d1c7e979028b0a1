package isochrone

import (
	"container/heap"

	"github.com/katalvlaran/lvlath/core"
)

// egoGraph computes every vertex reachable from start within budgetSec
// seconds of cumulative edge weight — the same node set
// networkx.ego_graph(..., distance='travel_time') produces for a
// radius in travel time rather than hop count. Returns the reachable
// vertex IDs (start included).
func egoGraph(g *core.Graph, start string, budgetSec int64) []string {
	dist := map[string]int64{start: 0}
	pq := &distPQ{{id: start, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(distItem)
		if cur.dist > dist[cur.id] {
			continue // stale entry
		}

		edges, err := g.Neighbors(cur.id)
		if err != nil {
			continue
		}
		for _, e := range edges {
			next := e.To
			if next == cur.id {
				next = e.From
			}
			newDist := cur.dist + e.Weight
			if newDist > budgetSec {
				continue
			}
			if known, ok := dist[next]; !ok || newDist < known {
				dist[next] = newDist
				heap.Push(pq, distItem{id: next, dist: newDist})
			}
		}
	}

	nodes := make([]string, 0, len(dist))
	for id := range dist {
		nodes = append(nodes, id)
	}
	return nodes
}

type distItem struct {
	id   string
	dist int64
}

type distPQ []distItem

func (pq distPQ) Len() int            { return len(pq) }
func (pq distPQ) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq distPQ) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *distPQ) Push(x interface{}) { *pq = append(*pq, x.(distItem)) }
func (pq *distPQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
