package prober

import (
	"sort"
)

// JamOrder selects the order in which channels are isolated.
type JamOrder int

const (
	OrderRoundRobin JamOrder = iota
	OrderLargestFirst
)

// JamPlanner decides which channels to isolate and in what order. An empty
// plan means the session probes the fully enabled hop and only learns the
// aggregate split.
type JamPlanner interface {
	PlanOrder(h *Hop) []int
}

// NoJamming never disables a channel.
type NoJamming struct{}

func (NoJamming) PlanOrder(*Hop) []int {
	return nil
}

// IsolationPlanner isolates every channel in turn: all other channels are
// jammed while the single-channel protocol runs against the target. The
// order is deterministic; ties on capacity break by channel index.
type IsolationPlanner struct {
	Order JamOrder
}

func (p IsolationPlanner) PlanOrder(h *Hop) []int {
	order := make([]int, h.NumChannels())
	for i := range order {
		order[i] = i
	}
	if p.Order == OrderLargestFirst {
		sort.SliceStable(order, func(a, b int) bool {
			return h.Channels[order[a]].Capacity > h.Channels[order[b]].Capacity
		})
	}
	return order
}
