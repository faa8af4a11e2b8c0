package bvh

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Stats summarizes the shape and estimated quality of a tree.
type Stats struct {
	Primitives int
	Nodes      int
	Leafs      int
	MaxDepth   int

	MinLeafSize int
	MaxLeafSize int
	AvgLeafSize float32

	// Expected traversal cost relative to a single leaf holding every
	// primitive: (sum of internal node areas + sum of leaf area*count) / root area.
	SAHCost float32

	BuildTime time.Duration
}

// Stats walks the tree and collects statistics. The SAH cost reflects the
// current node bboxes so it can be used to track quality loss after Refit.
func (t *BVH[V]) Stats() Stats {
	stats := Stats{
		Primitives: len(t.indices),
		Nodes:      int(t.nodesUsed),
		MaxDepth:   t.maxDepth,
		BuildTime:  t.buildTime,
	}
	if len(t.indices) == 0 {
		return stats
	}

	var internalArea, leafArea float32
	totalLeafItems := 0
	for i := uint32(0); i < t.nodesUsed; i++ {
		node := &t.nodes[i]
		if !node.IsLeaf() {
			internalArea += node.BBox.Area()
			continue
		}

		count := int(node.Count)
		if stats.Leafs == 0 || count < stats.MinLeafSize {
			stats.MinLeafSize = count
		}
		if count > stats.MaxLeafSize {
			stats.MaxLeafSize = count
		}
		stats.Leafs++
		totalLeafItems += count
		leafArea += node.Cost()
	}

	stats.AvgLeafSize = float32(totalLeafItems) / float32(stats.Leafs)
	if rootArea := t.nodes[0].BBox.Area(); rootArea > 0 {
		stats.SAHCost = (internalArea + leafArea) / rootArea
	}
	return stats
}

// Build a tabular representation of the tree statistics.
func (s Stats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Primitives", fmt.Sprintf("%d", s.Primitives)})
	table.Append([]string{"Nodes", fmt.Sprintf("%d", s.Nodes)})
	table.Append([]string{"Leafs", fmt.Sprintf("%d", s.Leafs)})
	table.Append([]string{"Max depth", fmt.Sprintf("%d", s.MaxDepth)})
	table.Append([]string{"Leaf size (min/avg/max)", fmt.Sprintf("%d / %.1f / %d", s.MinLeafSize, s.AvgLeafSize, s.MaxLeafSize)})
	table.Append([]string{"SAH cost", fmt.Sprintf("%.3f", s.SAHCost)})
	table.SetFooter([]string{"Build time", s.BuildTime.String()})

	table.Render()
	return buf.String()
}
