package pde

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/graph"
)

// Coordinates is the set of per-axis coordinate columns of one batch of
// points, plus their re-concatenation. The network must be fed Points()
// (not the original input node) so that gradients taken with respect to
// each Axis flow through the graph.
//
// By convention, when the problem carries an initial condition the last
// axis is time and the leading axes are spatial.
type Coordinates struct {
	axes   []*graph.Node
	points *graph.Node
}

// SplitPoints slices a rank-2 [batch, n] points node into n [batch, 1]
// coordinate columns.
func SplitPoints(points *graph.Node) *Coordinates {
	if points.Rank() != 2 {
		exceptions.Panicf("pde: points must be rank-2 [batch, numDims], got %s", points.Shape())
	}
	n := points.Shape().Dimensions[1]
	axes := make([]*graph.Node, n)
	for i := range axes {
		axes[i] = graph.Slice(points, graph.AxisRange(), graph.AxisElem(i))
	}
	return &Coordinates{axes: axes, points: graph.Concatenate(axes, -1)}
}

// Len returns the number of coordinates.
func (c *Coordinates) Len() int { return len(c.axes) }

// Axis returns the [batch, 1] column of coordinate i.
func (c *Coordinates) Axis(i int) *graph.Node { return c.axes[i] }

// Time returns the last coordinate column.
func (c *Coordinates) Time() *graph.Node { return c.axes[len(c.axes)-1] }

// Points returns the [batch, n] concatenation of all coordinate columns.
func (c *Coordinates) Points() *graph.Node { return c.points }

// Spatial returns the [batch, n-1] concatenation of the leading (spatial)
// columns, or nil for a purely temporal problem (n == 1) with an initial
// condition. hasTime tells whether the last axis is the time coordinate.
func (c *Coordinates) Spatial(hasTime bool) *graph.Node {
	if !hasTime {
		return c.points
	}
	if len(c.axes) == 1 {
		return nil
	}
	return graph.Concatenate(c.axes[:len(c.axes)-1], -1)
}
