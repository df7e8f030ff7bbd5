package catalog

import (
	"errors"

	"github.com/getkin/kin-openapi/openapi3"
)

var (
	// ErrMissingParam means a required path, query or body argument was absent.
	ErrMissingParam = errors.New("missing required parameter")
	// ErrUnknownOperation means no operation has the requested id.
	ErrUnknownOperation = errors.New("unknown operation")
)

// Parameter is a path or query parameter declared by an operation.
type Parameter struct {
	Name        string
	Description string
	Required    bool
	Schema      *openapi3.SchemaRef
}

// Operation is one callable method+path pair of the document.
type Operation struct {
	ID          string
	Method      string
	Path        string
	Description string
	PathParams  []Parameter
	// QueryParams are kept in declaration order.
	QueryParams []Parameter
	HasBody     bool
	// BodySchema is the request body schema, merged when several content
	// types are declared.
	BodySchema   *openapi3.SchemaRef
	BodyRequired bool
	// Accept is the first response content type, if any.
	Accept string
}

// Catalog holds the operations of a loaded OpenAPI document.
type Catalog struct {
	doc      *openapi3.T
	ops      []*Operation
	byID     map[string]*Operation
	adjuster *Adjuster
}
