package mutate

import "todolists/internal/model"

func GetList(sess *model.Session, index int) (*model.List, error) {
	if sess == nil || index < 0 || index >= len(sess.Lists) {
		return nil, NotFoundError{Kind: "list", Index: index}
	}
	return &sess.Lists[index], nil
}

// CreateList appends a new empty list when name is valid.
func CreateList(sess *model.Session, name string) error {
	if err := ValidateListName(name, sess.Lists); err != nil {
		return err
	}
	sess.Lists = append(sess.Lists, model.List{Name: name, Todos: []model.Todo{}})
	return nil
}

// RenameList renames the list at index. The duplicate check includes the
// list's own current name, so renaming a list to itself is rejected.
func RenameList(sess *model.Session, index int, name string) error {
	l, err := GetList(sess, index)
	if err != nil {
		return err
	}
	if err := ValidateListName(name, sess.Lists); err != nil {
		return err
	}
	l.Name = name
	return nil
}

func DeleteList(sess *model.Session, index int) error {
	if _, err := GetList(sess, index); err != nil {
		return err
	}
	sess.Lists = append(sess.Lists[:index], sess.Lists[index+1:]...)
	return nil
}
