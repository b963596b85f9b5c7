package model

import "sort"

// Batch is the ordered set of transactions produced by one run.
type Batch []Transaction

// NewBatch copies txns and sorts the copy by date. Equal dates keep their
// insertion order.
func NewBatch(txns []Transaction) Batch {
	b := make(Batch, len(txns))
	copy(b, txns)
	b.Sort()
	return b
}

// Sort orders the batch by date ascending. The sort is stable.
func (b Batch) Sort() {
	sort.SliceStable(b, func(i, j int) bool {
		return b[i].Date.Before(b[j].Date)
	})
}

// Rows flattens the batch for delivery.
func (b Batch) Rows() [][]string {
	rows := make([][]string, len(b))
	for i, t := range b {
		rows[i] = t.Row()
	}
	return rows
}
