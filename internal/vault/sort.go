package vault

import "time"

// SortOrder selects the direction of a timestamp sort
type SortOrder int

const (
	Ascending  SortOrder = iota // earliest first
	Descending                  // latest first
)

func (o SortOrder) String() string {
	if o == Descending {
		return "descending"
	}
	return "ascending"
}

// InsertionSort orders entries by timestamp in place. Elements only move past
// strictly greater (or, descending, strictly smaller) neighbours, so entries
// with equal timestamps keep their relative order.
func InsertionSort(entries []Entry, order SortOrder) {
	for i := 1; i < len(entries); i++ {
		key := entries[i]
		j := i - 1
		for j >= 0 && outOfOrder(entries[j].Timestamp, key.Timestamp, order) {
			entries[j+1] = entries[j]
			j--
		}
		entries[j+1] = key
	}
}

func outOfOrder(prev, key time.Time, order SortOrder) bool {
	if order == Descending {
		return prev.Before(key)
	}
	return prev.After(key)
}
