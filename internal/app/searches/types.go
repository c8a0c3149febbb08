package searches

import (
	"encoding/json"

	"github.com/cafescout/cafe-scout-api/internal/domain"
)

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

type InitializeInput struct {
	SearchID domain.SearchID
	Params   domain.SearchParams
}

type FailInput struct {
	Stage   domain.FailureStage
	Message string
}

type SuccessInput struct {
	Results       json.RawMessage
	AllResults    json.RawMessage
	HasMorePages  bool
	NextPageToken string
}

// UpdateInput carries the continuation fields a client may adjust while
// paging through results. Null clears the field; unspecified leaves it alone.
type UpdateInput struct {
	Results       Optional[json.RawMessage]
	AllResults    Optional[json.RawMessage]
	HasMorePages  Optional[bool]
	NextPageToken Optional[string]
}
