package web

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	"todolists/internal/model"
	"todolists/internal/mutate"
	"todolists/internal/statusutil"
)

const (
	msgListCreated  = "The list has been created."
	msgListRenamed  = "The list name has been modified."
	msgListDeleted  = "The list has been deleted."
	msgTodoAdded    = "The todo was added."
	msgTodoDeleted  = "The todo has been deleted."
	msgTodoUpdated  = "The todo has been updated."
	msgAllCompleted = "All todos have been completed."
	msgListNotFound = "The specified list was not found."
	msgTodoNotFound = "The specified todo was not found."
)

type baseVM struct {
	Title     string
	Notices   []model.Notice
	CSRFField template.HTML
}

// base consumes the session's pending notices; call it after any notice for
// this response has been set.
func base(r *http.Request, sess *model.Session, title string) baseVM {
	return baseVM{
		Title:     title,
		Notices:   sess.TakeNotices(),
		CSRFField: csrf.TemplateField(r),
	}
}

type listRowVM struct {
	Index     int
	Name      string
	Class     string
	Count     int
	Remaining int
}

type listsVM struct {
	baseVM
	Lists []listRowVM
}

type todoRowVM struct {
	Index     int
	Name      string
	Completed bool
}

type listVM struct {
	baseVM
	Index     int
	Name      string
	Class     string
	Count     int
	Remaining int
	Todos     []todoRowVM
	// Todo holds rejected input for the new-todo field.
	Todo string
}

type listFormVM struct {
	baseVM
	Index    int
	Name     string
	ListName string
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

func errorMessage(err error) string {
	var ve mutate.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}

// notFound sets the error notice for a missing list or todo and redirects to
// the closest page that still exists.
func notFound(sess *model.Session, listIndex int, err error) page {
	var nf mutate.NotFoundError
	if errors.As(err, &nf) && nf.Kind == "todo" {
		sess.Error(msgTodoNotFound)
		return redirectTo(listPath(listIndex))
	}
	sess.Error(msgListNotFound)
	return redirectTo("/lists")
}

func (s *Server) handleLists(r *http.Request, sess *model.Session) page {
	sorted := statusutil.SortListsForDisplay(sess.Lists)
	rows := make([]listRowVM, 0, len(sorted))
	for _, it := range sorted {
		rows = append(rows, listRowVM{
			Index:     it.Index,
			Name:      it.Value.Name,
			Class:     statusutil.ListClass(it.Value),
			Count:     statusutil.TodosCount(it.Value),
			Remaining: statusutil.TodosRemainingCount(it.Value),
		})
	}
	return render(http.StatusOK, "lists.html", listsVM{
		baseVM: base(r, sess, "Todo Lists"),
		Lists:  rows,
	})
}

func (s *Server) handleNewList(r *http.Request, sess *model.Session) page {
	return render(http.StatusOK, "new_list.html", listFormVM{
		baseVM: base(r, sess, "New List"),
		Index:  -1,
	})
}

func (s *Server) handleCreateList(r *http.Request, sess *model.Session) page {
	name := formValue(r, "list_name")
	if err := mutate.CreateList(sess, name); err != nil {
		sess.Error(errorMessage(err))
		return render(http.StatusUnprocessableEntity, "new_list.html", listFormVM{
			baseVM:   base(r, sess, "New List"),
			Index:    -1,
			ListName: name,
		})
	}
	sess.Success(msgListCreated)
	return redirectTo("/lists")
}

func (s *Server) listView(r *http.Request, sess *model.Session, index int, l *model.List, todoInput string) listVM {
	sorted := statusutil.SortTodosForDisplay(l.Todos)
	todos := make([]todoRowVM, 0, len(sorted))
	for _, it := range sorted {
		todos = append(todos, todoRowVM{Index: it.Index, Name: it.Value.Name, Completed: it.Value.Completed})
	}
	return listVM{
		baseVM:    base(r, sess, l.Name),
		Index:     index,
		Name:      l.Name,
		Class:     statusutil.ListClass(*l),
		Count:     statusutil.TodosCount(*l),
		Remaining: statusutil.TodosRemainingCount(*l),
		Todos:     todos,
		Todo:      todoInput,
	}
}

func (s *Server) handleList(r *http.Request, sess *model.Session) page {
	idx := pathIndex(r, "index")
	l, err := mutate.GetList(sess, idx)
	if err != nil {
		return notFound(sess, idx, err)
	}
	return render(http.StatusOK, "list.html", s.listView(r, sess, idx, l, ""))
}

func (s *Server) handleEditList(r *http.Request, sess *model.Session) page {
	idx := pathIndex(r, "index")
	l, err := mutate.GetList(sess, idx)
	if err != nil {
		return notFound(sess, idx, err)
	}
	return render(http.StatusOK, "edit_list.html", listFormVM{
		baseVM:   base(r, sess, "Edit "+l.Name),
		Index:    idx,
		Name:     l.Name,
		ListName: l.Name,
	})
}

func (s *Server) handleRenameList(r *http.Request, sess *model.Session) page {
	idx := pathIndex(r, "index")
	name := formValue(r, "list_name")
	err := mutate.RenameList(sess, idx, name)
	switch {
	case errors.Is(err, mutate.ErrNotFound):
		return notFound(sess, idx, err)
	case err != nil:
		sess.Error(errorMessage(err))
		current := sess.Lists[idx].Name
		return render(http.StatusUnprocessableEntity, "edit_list.html", listFormVM{
			baseVM:   base(r, sess, "Edit "+current),
			Index:    idx,
			Name:     current,
			ListName: name,
		})
	}
	sess.Success(msgListRenamed)
	return redirectTo(listPath(idx))
}

func (s *Server) handleDeleteList(r *http.Request, sess *model.Session) page {
	idx := pathIndex(r, "index")
	if err := mutate.DeleteList(sess, idx); err != nil {
		return notFound(sess, idx, err)
	}
	sess.Success(msgListDeleted)
	return redirectTo("/lists")
}

func (s *Server) handleAddTodo(r *http.Request, sess *model.Session) page {
	idx := pathIndex(r, "list_index")
	text := formValue(r, "todo")
	err := mutate.AddTodo(sess, idx, text)
	switch {
	case errors.Is(err, mutate.ErrNotFound):
		return notFound(sess, idx, err)
	case err != nil:
		sess.Error(errorMessage(err))
		return render(http.StatusUnprocessableEntity, "list.html", s.listView(r, sess, idx, &sess.Lists[idx], text))
	}
	sess.Success(msgTodoAdded)
	return redirectTo(listPath(idx))
}

func (s *Server) handleDeleteTodo(r *http.Request, sess *model.Session) page {
	idx := pathIndex(r, "list_index")
	if err := mutate.DeleteTodo(sess, idx, pathIndex(r, "todo_index")); err != nil {
		return notFound(sess, idx, err)
	}
	sess.Success(msgTodoDeleted)
	return redirectTo(listPath(idx))
}

func (s *Server) handleUpdateTodo(r *http.Request, sess *model.Session) page {
	idx := pathIndex(r, "list_index")
	completed := formValue(r, "completed") == "true"
	if err := mutate.SetTodoCompleted(sess, idx, pathIndex(r, "todo_index"), completed); err != nil {
		return notFound(sess, idx, err)
	}
	sess.Success(msgTodoUpdated)
	return redirectTo(listPath(idx))
}

func (s *Server) handleCompleteAll(r *http.Request, sess *model.Session) page {
	idx := pathIndex(r, "list_index")
	if err := mutate.CompleteAll(sess, idx); err != nil {
		return notFound(sess, idx, err)
	}
	sess.Success(msgAllCompleted)
	return redirectTo(listPath(idx))
}
