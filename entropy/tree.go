package entropy

import "container/heap"

// noChild marks an absent child index in the node arena.
const noChild int32 = -1

// node is one arena entry. Leaves carry a symbol; internal nodes carry children.
type node struct {
	left   int32
	right  int32
	symbol uint8
	leaf   bool
}

// tree is an index-addressed Huffman tree, read-only after buildTree returns.
type tree struct {
	nodes []node
	root  int32
}

// symbolFreq is one frequency table entry.
type symbolFreq struct {
	symbol uint8
	freq   uint32
}

// heapItem orders candidate subtrees by (weight, smallest symbol).
type heapItem struct {
	weight uint64
	minSym uint8
	index  int32
}

type nodeHeap []heapItem

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight < h[j].weight
	}

	return h[i].minSym < h[j].minSym
}

func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x any) { *h = append(*h, x.(heapItem)) }

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]

	return item
}

// buildTree builds the tree for a non-empty frequency table.
func buildTree(table []symbolFreq) tree {
	t := tree{nodes: make([]node, 0, 2*len(table)), root: noChild}
	if len(table) == 0 {
		return t
	}

	h := make(nodeHeap, 0, len(table))
	for _, e := range table {
		idx := int32(len(t.nodes))
		t.nodes = append(t.nodes, node{left: noChild, right: noChild, symbol: e.symbol, leaf: true})
		h = append(h, heapItem{weight: uint64(e.freq), minSym: e.symbol, index: idx})
	}
	heap.Init(&h)

	if h.Len() == 1 {
		only := heap.Pop(&h).(heapItem)
		t.root = int32(len(t.nodes))
		t.nodes = append(t.nodes, node{left: only.index, right: noChild})

		return t
	}

	for h.Len() > 1 {
		first := heap.Pop(&h).(heapItem)
		second := heap.Pop(&h).(heapItem)

		idx := int32(len(t.nodes))
		t.nodes = append(t.nodes, node{left: first.index, right: second.index})
		heap.Push(&h, heapItem{
			weight: first.weight + second.weight,
			minSym: min(first.minSym, second.minSym),
			index:  idx,
		})
	}
	t.root = h[0].index

	return t
}

// code is a symbol's path from the root, right-aligned in bits.
type code struct {
	bits   uint64
	length uint8
}

// codes derives the code of every leaf by walking the arena iteratively.
func (t tree) codes() [256]code {
	var out [256]code
	if t.root == noChild {
		return out
	}

	type frame struct {
		index int32
		bits  uint64
		depth uint8
	}
	stack := []frame{{index: t.root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := t.nodes[f.index]
		if n.leaf {
			out[n.symbol] = code{bits: f.bits, length: f.depth}
			continue
		}
		if n.right != noChild {
			stack = append(stack, frame{index: n.right, bits: f.bits<<1 | 1, depth: f.depth + 1})
		}
		if n.left != noChild {
			stack = append(stack, frame{index: n.left, bits: f.bits << 1, depth: f.depth + 1})
		}
	}

	return out
}
