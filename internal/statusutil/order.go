package statusutil

import "todolists/internal/model"

// Indexed pairs a value with its position in the unsorted sequence.
// Links and forms address lists and todos by that position.
type Indexed[T any] struct {
	Value T
	Index int
}

// SortListsForDisplay puts incomplete lists before complete ones.
// Relative order within each group is the original order.
func SortListsForDisplay(lists []model.List) []Indexed[model.List] {
	return partition(lists, IsListComplete)
}

// SortTodosForDisplay puts incomplete todos before completed ones.
func SortTodosForDisplay(todos []model.Todo) []Indexed[model.Todo] {
	return partition(todos, func(t model.Todo) bool { return t.Completed })
}

func partition[T any](xs []T, done func(T) bool) []Indexed[T] {
	out := make([]Indexed[T], 0, len(xs))
	var tail []Indexed[T]
	for i, x := range xs {
		if done(x) {
			tail = append(tail, Indexed[T]{Value: x, Index: i})
			continue
		}
		out = append(out, Indexed[T]{Value: x, Index: i})
	}
	return append(out, tail...)
}

// Values strips the indices from a sorted view.
func Values[T any](xs []Indexed[T]) []T {
	out := make([]T, len(xs))
	for i, x := range xs {
		out[i] = x.Value
	}
	return out
}
