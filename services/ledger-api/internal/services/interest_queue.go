package services

import (
	"container/heap"
	"time"
)

// workItem is the in-memory accrual schedule of one time-deposit account.
type workItem struct {
	AccountID int64
	DueAt     time.Time
	MaturesAt *time.Time
	seq       uint64
}

// maturedAt reports whether the account has reached maturity at now.
func (w workItem) maturedAt(now time.Time) bool {
	return w.MaturesAt != nil && !now.Before(*w.MaturesAt)
}

// accrualQueue orders items by due time, then by insertion.
type accrualQueue []workItem

func (q accrualQueue) Len() int { return len(q) }
func (q accrualQueue) Less(i, j int) bool {
	if q[i].DueAt.Equal(q[j].DueAt) {
		return q[i].seq < q[j].seq
	}
	return q[i].DueAt.Before(q[j].DueAt)
}
func (q accrualQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *accrualQueue) Push(x any)   { *q = append(*q, x.(workItem)) }
func (q *accrualQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

func (q *accrualQueue) peek() workItem  { return (*q)[0] }
func (q *accrualQueue) push(w workItem) { heap.Push(q, w) }
func (q *accrualQueue) pop() workItem   { return heap.Pop(q).(workItem) }
