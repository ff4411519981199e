package statusutil

import "todolists/internal/model"

func TodosCount(list model.List) int {
	return len(list.Todos)
}

func TodosRemainingCount(list model.List) int {
	n := 0
	for _, t := range list.Todos {
		if !t.Completed {
			n++
		}
	}
	return n
}

// IsListComplete reports whether list has todos and all of them are completed.
// An empty list is never complete.
func IsListComplete(list model.List) bool {
	return TodosCount(list) > 0 && TodosRemainingCount(list) == 0
}

// ListClass is the CSS class views attach to a list.
func ListClass(list model.List) string {
	if IsListComplete(list) {
		return "complete"
	}
	return ""
}
