// Package catalog turns an OpenAPI/Swagger document into a set of operations
// that can be issued through the xhr adapter.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/brizzai/auto-xhr/internal/logger"
	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// NewCatalog creates an empty Catalog filtered by adjuster.
func NewCatalog(adjuster *Adjuster) *Catalog {
	if adjuster == nil {
		adjuster = NewAdjuster()
	}
	return &Catalog{
		byID:     make(map[string]*Operation),
		adjuster: adjuster,
	}
}

// Init loads the document at specFile and, when given, the adjustments file.
func (c *Catalog) Init(specFile, adjustmentsFile string) error {
	data, err := os.ReadFile(specFile)
	if err != nil {
		return fmt.Errorf("failed to read spec file: %w", err)
	}
	if adjustmentsFile != "" {
		if err := c.adjuster.Load(adjustmentsFile); err != nil {
			return fmt.Errorf("failed to load adjustments file: %w", err)
		}
	}

	if err := c.parse(data); err != nil {
		return err
	}
	return c.processOperations()
}

// ParseReader loads a document from reader.
func (c *Catalog) ParseReader(reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read spec: %w", err)
	}
	if err := c.parse(data); err != nil {
		return err
	}
	return c.processOperations()
}

// Operations returns every operation sorted by id.
func (c *Catalog) Operations() []*Operation {
	return c.ops
}

// Lookup returns the operation with the given id.
func (c *Catalog) Lookup(id string) (*Operation, bool) {
	op, ok := c.byID[id]
	return op, ok
}

// Document returns the parsed OpenAPI 3 document, nil before loading.
func (c *Catalog) Document() *openapi3.T {
	return c.doc
}

// parse detects the document version. JSON and YAML are both accepted for
// OpenAPI 3; Swagger 2 documents must be JSON.
func (c *Catalog) parse(data []byte) error {
	var header struct {
		Swagger string `yaml:"swagger"`
		OpenAPI string `yaml:"openapi"`
	}
	if err := yaml.Unmarshal(data, &header); err != nil {
		return fmt.Errorf("invalid OpenAPI document: %w", err)
	}

	switch {
	case header.Swagger != "":
		doc, err := convertOpenAPI2to3(data, header.Swagger)
		if err != nil {
			return err
		}
		c.doc = doc
		return nil
	case header.OpenAPI != "":
		if !strings.HasPrefix(header.OpenAPI, "3.") {
			return fmt.Errorf("unsupported OpenAPI version: %s", header.OpenAPI)
		}
	default:
		return fmt.Errorf("document is missing 'swagger' or 'openapi' version field")
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		logger.Error("Failed to parse OpenAPI 3 document", zap.Error(err))
		return fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}
	logger.Info("Parsed OpenAPI 3 document", zap.String("version", header.OpenAPI))
	c.doc = doc
	return nil
}

func convertOpenAPI2to3(data []byte, version string) (*openapi3.T, error) {
	if version != "2.0" {
		return nil, fmt.Errorf("unsupported Swagger version: %s", version)
	}

	var doc2 openapi2.T
	if err := json.Unmarshal(data, &doc2); err != nil {
		return nil, fmt.Errorf("failed to parse Swagger 2.0 document: %w", err)
	}

	logger.Info("Detected Swagger 2.0 document, converting to OpenAPI 3")
	doc, err := openapi2conv.ToV3(&doc2)
	if err != nil {
		logger.Error("Failed to convert Swagger 2.0 document", zap.Error(err))
		return nil, fmt.Errorf("failed to convert Swagger 2.0 document: %w", err)
	}
	return doc, nil
}

func (c *Catalog) processOperations() error {
	c.ops = c.ops[:0]
	clear(c.byID)

	for path, pathItem := range c.doc.Paths.Map() {
		methods := []struct {
			method string
			op     *openapi3.Operation
		}{
			{"GET", pathItem.Get},
			{"POST", pathItem.Post},
			{"PUT", pathItem.Put},
			{"DELETE", pathItem.Delete},
			{"PATCH", pathItem.Patch},
		}

		for _, m := range methods {
			if m.op == nil || !c.adjuster.ExistsInCatalog(path, m.method) {
				continue
			}
			op := newOperation(path, m.method, pathItem, m.op)
			op.Description = c.adjuster.GetDescription(path, m.method, op.Description)
			if _, dup := c.byID[op.ID]; dup {
				return fmt.Errorf("duplicate operation id %q (%s %s)", op.ID, m.method, path)
			}
			c.byID[op.ID] = op
			c.ops = append(c.ops, op)
		}
	}

	slices.SortFunc(c.ops, func(a, b *Operation) int {
		return strings.Compare(a.ID, b.ID)
	})
	logger.Info("Loaded catalog", zap.Int("operations", len(c.ops)))
	return nil
}

func newOperation(path, method string, item *openapi3.PathItem, op *openapi3.Operation) *Operation {
	o := &Operation{
		ID:          op.OperationID,
		Method:      method,
		Path:        path,
		Description: op.Description,
	}
	if o.ID == "" {
		o.ID = deriveID(method, path)
	}
	if o.Description == "" {
		o.Description = op.Summary
	}

	declared := mergeParameters(item.Parameters, op.Parameters)
	for _, name := range extractPathParams(path) {
		p := Parameter{Name: name, Required: true}
		for _, d := range declared {
			if d.In == openapi3.ParameterInPath && d.Name == name {
				p.Description = d.Description
				p.Schema = d.Schema
			}
		}
		o.PathParams = append(o.PathParams, p)
	}
	for _, d := range declared {
		if d.In == openapi3.ParameterInQuery {
			o.QueryParams = append(o.QueryParams, Parameter{
				Name:        d.Name,
				Description: d.Description,
				Required:    d.Required,
				Schema:      d.Schema,
			})
		}
	}

	o.BodySchema, o.BodyRequired = firstBodySchema(op)
	o.HasBody = op.RequestBody != nil && op.RequestBody.Value != nil

	if op.Responses != nil {
		for _, code := range slices.Sorted(maps.Keys(op.Responses.Map())) {
			resp := op.Responses.Value(code)
			if resp == nil || resp.Value == nil || len(resp.Value.Content) == 0 {
				continue
			}
			o.Accept = slices.Sorted(maps.Keys(resp.Value.Content))[0]
			break
		}
	}
	return o
}

// mergeParameters returns path-level parameters overridden by operation-level
// ones with the same name and location, in declaration order.
func mergeParameters(pathLevel, opLevel openapi3.Parameters) []*openapi3.Parameter {
	var out []*openapi3.Parameter
	index := map[string]int{}
	for _, list := range []openapi3.Parameters{pathLevel, opLevel} {
		for _, ref := range list {
			if ref == nil || ref.Value == nil {
				continue
			}
			key := ref.Value.In + ":" + ref.Value.Name
			if i, ok := index[key]; ok {
				out[i] = ref.Value
				continue
			}
			index[key] = len(out)
			out = append(out, ref.Value)
		}
	}
	return out
}

func firstBodySchema(op *openapi3.Operation) (*openapi3.SchemaRef, bool) {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil, false
	}
	body := op.RequestBody.Value
	switch len(body.Content) {
	case 0:
		return nil, body.Required
	case 1:
		for _, mt := range body.Content {
			return mt.Schema, body.Required
		}
	}

	merged := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:       &openapi3.Types{openapi3.TypeObject},
			Properties: make(openapi3.Schemas),
		},
	}
	for _, mt := range body.Content {
		if mt.Schema != nil && mt.Schema.Value != nil {
			for name, prop := range mt.Schema.Value.Properties {
				merged.Value.Properties[name] = prop
			}
		}
	}
	return merged, body.Required
}

// deriveID builds an id such as get_users_id from a method and path.
func deriveID(method, path string) string {
	p := strings.TrimPrefix(path, "/")
	p = strings.ReplaceAll(p, "/", "_")
	p = strings.ReplaceAll(p, "{", "")
	p = strings.ReplaceAll(p, "}", "")
	return strings.ToLower(method + "_" + p)
}

func extractPathParams(path string) []string {
	var params []string
	for _, part := range strings.Split(path, "/") {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			params = append(params, strings.TrimSuffix(strings.TrimPrefix(part, "{"), "}"))
		}
	}
	return params
}
