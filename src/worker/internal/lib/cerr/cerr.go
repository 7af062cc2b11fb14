// Package cerr builds errors that carry structured log fields, so the place that finally
// logs an error can report the context collected on the way up.
package cerr

import (
	"maps"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
)

type F = log.Fields

type Context struct {
	fields F
	cause  error
}

func Field(key string, value any) Context {
	return Context{}.Field(key, value)
}

func Fields(fields F) Context {
	return Context{}.Fields(fields)
}

func Wrap(err error) Context {
	return Context{}.Wrap(err)
}

func Error(msg string) error {
	return Context{}.errorWithDepth(1, msg)
}

func (c Context) Field(key string, value any) Context {
	return c.Fields(F{key: value})
}

func (c Context) Fields(fields F) Context {
	merged := F{}
	maps.Copy(merged, c.fields)
	maps.Copy(merged, fields)
	c.fields = merged
	return c
}

func (c Context) Wrap(err error) Context {
	c.cause = err
	return c
}

func (c Context) Error(msg string) error {
	return c.errorWithDepth(1, msg)
}

func (c Context) errorWithDepth(depth int, msg string) error {
	var err error
	if c.cause == nil {
		err = errors.NewWithDepth(depth+1, msg)
	} else {
		err = errors.WrapWithDepth(depth+1, c.cause, msg)
	}

	if len(c.fields) == 0 {
		return err
	}

	return &fieldError{cause: err, fields: c.fields}
}

type fieldError struct {
	cause  error
	fields F
}

func (f *fieldError) Error() string {
	return f.cause.Error()
}

func (f *fieldError) Unwrap() error {
	return f.cause
}

// CollectFields merges the fields of every cerr error in the chain. Outer fields win.
func CollectFields(err error) F {
	collected := F{}
	for current := err; current != nil; current = errors.UnwrapOnce(current) {
		fe, ok := current.(*fieldError)
		if !ok {
			continue
		}

		for key, value := range fe.fields {
			if _, exists := collected[key]; !exists {
				collected[key] = value
			}
		}
	}

	return collected
}

func Log(err error) {
	if err == nil {
		return
	}

	log.WithFields(CollectFields(err)).
		WithError(err).
		Error("Error occurred")
}
