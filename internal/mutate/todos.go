package mutate

import "todolists/internal/model"

func getTodo(sess *model.Session, listIndex, todoIndex int) (*model.List, *model.Todo, error) {
	l, err := GetList(sess, listIndex)
	if err != nil {
		return nil, nil, err
	}
	if todoIndex < 0 || todoIndex >= len(l.Todos) {
		return l, nil, NotFoundError{Kind: "todo", Index: todoIndex}
	}
	return l, &l.Todos[todoIndex], nil
}

func AddTodo(sess *model.Session, listIndex int, name string) error {
	l, err := GetList(sess, listIndex)
	if err != nil {
		return err
	}
	if err := ValidateTodoName(name); err != nil {
		return err
	}
	l.Todos = append(l.Todos, model.Todo{Name: name})
	return nil
}

func DeleteTodo(sess *model.Session, listIndex, todoIndex int) error {
	l, _, err := getTodo(sess, listIndex, todoIndex)
	if err != nil {
		return err
	}
	l.Todos = append(l.Todos[:todoIndex], l.Todos[todoIndex+1:]...)
	return nil
}

func SetTodoCompleted(sess *model.Session, listIndex, todoIndex int, completed bool) error {
	_, t, err := getTodo(sess, listIndex, todoIndex)
	if err != nil {
		return err
	}
	t.Completed = completed
	return nil
}

// CompleteAll marks every todo in the list completed.
func CompleteAll(sess *model.Session, listIndex int) error {
	l, err := GetList(sess, listIndex)
	if err != nil {
		return err
	}
	for i := range l.Todos {
		l.Todos[i].Completed = true
	}
	return nil
}
