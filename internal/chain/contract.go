package chain

import (
	"fmt"
	"time"
)

// Kind names a contract implementation, e.g. "registry".
type Kind string

// Contract is the behaviour shared by every instance of a kind. Instances
// carry no Go state: everything lives under the namespace of ctx.Contract.
type Contract interface {
	Instantiate(ctx *Context, msg any) error
	Execute(ctx *Context, msg any) (*Response, error)
	Query(ctx *QueryContext, msg any) (any, error)
}

// EndBlocker is implemented by contracts that need a callback every time
// the chain advances a block.
type EndBlocker interface {
	EndBlock(ctx *Context) (*Response, error)
}

// Env is the block the current message executes in.
type Env struct {
	Height uint64
	Time   time.Time
}

type Attribute struct {
	Key   string
	Value string
}

// Response is what a successfully executed message reports back.
type Response struct {
	Attributes []Attribute
	Data       any
}

// NewResponse starts a response with an "action" attribute.
func NewResponse(action string) *Response {
	return &Response{Attributes: []Attribute{{Key: "action", Value: action}}}
}

// Add appends an attribute and returns r for chaining.
func (r *Response) Add(key string, value any) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: fmt.Sprint(value)})
	return r
}

// Attr returns the value of the first attribute with the given key.
func (r *Response) Attr(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// UnknownMessage is the error contracts return for a message type they do
// not handle.
func UnknownMessage(kind Kind, msg any) error {
	return fmt.Errorf("%w: %s does not handle %T", ErrUnknownMessage, kind, msg)
}
