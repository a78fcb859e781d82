package crud

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"smartmob-dashboard/internal/backend"
	"smartmob-dashboard/internal/datastore"
	"smartmob-dashboard/internal/table"

	"github.com/gin-gonic/gin"
)

// Input is a create/update body that can be checked against form rules.
type Input interface {
	Values() map[string]string
}

type Messages struct {
	Loaded  string
	Created string
	Updated string
	Deleted string
}

// Resource serves list, detail and delete for one backend entity cached in a
// datastore.Store. Create and update go through Write.
type Resource[T any] struct {
	Scope    string
	Store    *datastore.Store[T]
	Columns  []table.Column[T]
	Rules    []table.Rule
	ID       func(T) int
	Values   func(T) map[string]string
	Confirm  *table.Confirmations
	Messages Messages
	Remove   func(ctx context.Context, id int) error
}

func ParseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(c.Param("id")))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "valid id is required"})
		return 0, false
	}
	return id, true
}

func (res *Resource[T]) List(c *gin.Context) {
	q, err := table.ParseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := res.Store.Records(c.Request.Context())
	if err != nil {
		c.JSON(backend.HTTPStatus(err), gin.H{"error": backend.ErrorMessage(err)})
		return
	}

	snap := res.Store.Snapshot()
	body := gin.H{
		"message":   res.Messages.Loaded,
		"data":      table.Apply(rows, res.Columns, q),
		"loaded_at": snap.LoadedAt,
	}
	if snap.Error != "" {
		body["refresh_error"] = snap.Error
	}
	c.JSON(http.StatusOK, body)
}

func (res *Resource[T]) find(ctx context.Context, id int) (T, bool, error) {
	var zero T
	rows, err := res.Store.Records(ctx)
	if err != nil {
		return zero, false, err
	}
	for _, r := range rows {
		if res.ID(r) == id {
			return r, true, nil
		}
	}
	return zero, false, nil
}

// Detail returns one record with its live form counters.
func (res *Resource[T]) Detail(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}
	rec, found, err := res.find(c.Request.Context(), id)
	if err != nil {
		c.JSON(backend.HTTPStatus(err), gin.H{"error": backend.ErrorMessage(err)})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "record non trovato"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     rec,
		"counters": table.Counters(res.Rules, res.Values(rec)),
		"limits":   res.Rules,
	})
}

func (res *Resource[T]) Refresh(c *gin.Context) {
	if err := res.Store.Invalidate(c.Request.Context()); err != nil {
		c.JSON(backend.HTTPStatus(err), gin.H{"error": backend.ErrorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": res.Messages.Loaded, "data": res.Store.Snapshot()})
}

// RequestDelete issues the token the following DELETE has to present.
func (res *Resource[T]) RequestDelete(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}
	token, expires := res.Confirm.Request(res.Scope, strconv.Itoa(id))
	c.JSON(http.StatusOK, gin.H{
		"message":    "Confermare l'eliminazione",
		"token":      token,
		"expires_at": expires,
	})
}

func (res *Resource[T]) Delete(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}
	token, key := c.Query("confirm"), strconv.Itoa(id)
	if !res.Confirm.Valid(token, res.Scope, key) {
		c.JSON(http.StatusPreconditionRequired, gin.H{"error": "conferma eliminazione mancante o scaduta"})
		return
	}

	// The token is spent only by a delete that went through, so a failed
	// attempt can be retried with the same confirmation.
	result, err := res.Store.Mutate(c.Request.Context(), "delete:"+key, res.Messages.Deleted,
		func(ctx context.Context) (any, error) {
			return nil, res.Remove(ctx, id)
		})
	if err == nil {
		res.Confirm.Confirm(token, res.Scope, key)
	}
	respond(c, http.StatusOK, result, err)
}

// Write binds an In body and runs do as a store mutation under key. Binding
// tag violations answer 422 without calling the backend; rules label the
// details and drive the counters.
func Write[T any, In Input](c *gin.Context, res *Resource[T], status int, key, message string, rules []table.Rule, do func(ctx context.Context, in In) (any, error)) {
	table.RegisterValidators()

	var in In
	if err := c.ShouldBindJSON(&in); err != nil {
		if errs, ok := table.ToFieldErrors(err, rules); ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":    errs.Error(),
				"details":  errs,
				"counters": table.Counters(rules, in.Values()),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := res.Store.Mutate(c.Request.Context(), key, message, func(ctx context.Context) (any, error) {
		return do(ctx, in)
	})
	respond(c, status, result, err)
}

func respond(c *gin.Context, okStatus int, result backend.Result[any], err error) {
	switch {
	case err == nil:
		c.JSON(okStatus, result)
	case errors.Is(err, datastore.ErrBusy):
		c.JSON(http.StatusConflict, result)
	default:
		c.JSON(backend.HTTPStatus(err), result)
	}
}
