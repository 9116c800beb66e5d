package graphql

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/fermi-controls/extapi-acsys/errors"
)

//go:embed schema.graphql
var schemaSource string

// LoadSchema parses and validates the gateway schema
func LoadSchema() (*ast.Schema, error) {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: schemaSource})
	if err != nil {
		return nil, errors.WrapFatal(err, "ExecutableSchema", "LoadSchema", "schema load")
	}
	return schema, nil
}

// ExecutableSchema resolves operations on the gateway schema. It is the
// graphql.ExecutableSchema served by gqlgen's handler and transports.
type ExecutableSchema struct {
	schema   *ast.Schema
	resolver *Resolver
}

var _ graphql.ExecutableSchema = (*ExecutableSchema)(nil)

// NewExecutableSchema creates an executable schema over resolver
func NewExecutableSchema(resolver *Resolver) (*ExecutableSchema, error) {
	schema, err := LoadSchema()
	if err != nil {
		return nil, err
	}
	return &ExecutableSchema{schema: schema, resolver: resolver}, nil
}

// Schema returns the parsed gateway schema
func (e *ExecutableSchema) Schema() *ast.Schema {
	return e.schema
}

// Complexity leaves every field at the default cost of one plus its children
func (e *ExecutableSchema) Complexity(_, _ string, _ int, _ map[string]any) (int, bool) {
	return 0, false
}

// Exec runs the operation held by ctx. A query yields one response. A
// subscription yields one response per event until its source ends or the
// operation is cancelled.
func (e *ExecutableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)
	ec := &executionContext{opCtx: opCtx}

	switch opCtx.Operation.Operation {
	case ast.Query:
		var once sync.Once
		return func(ctx context.Context) *graphql.Response {
			var resp *graphql.Response
			once.Do(func() {
				resp = &graphql.Response{Data: e.executeQuery(ctx, ec)}
			})
			return resp
		}
	case ast.Subscription:
		return e.subscribe(ctx, ec)
	default:
		return graphql.OneShot(graphql.ErrorResponse(ctx, "%s operations are not supported", opCtx.Operation.Operation))
	}
}

// executeQuery resolves every root field. Root fields are non-null, so a
// failed field nulls the whole result.
func (e *ExecutableSchema) executeQuery(ctx context.Context, ec *executionContext) []byte {
	fields := graphql.CollectFields(ec.opCtx, ec.opCtx.Operation.SelectionSet, []string{"Query"})

	values := make([]graphql.Marshaler, len(fields))
	failed := false
	for i, field := range fields {
		v, err := e.resolveQueryField(ctx, ec, field)
		if err != nil {
			graphql.AddError(ctx, fieldError(err, field.Field))
			failed = true
			continue
		}
		values[i] = v
	}

	if failed {
		return nil
	}
	return rootData(fields, values)
}

func (e *ExecutableSchema) resolveQueryField(ctx context.Context, ec *executionContext, field graphql.CollectedField) (graphql.Marshaler, error) {
	args, err := argumentMap(field, ec.opCtx.Variables)
	if err != nil {
		return nil, err
	}

	switch field.Name {
	case "__typename":
		return graphql.MarshalString("Query"), nil

	case "__schema", "__type":
		return nil, introspectionDisabled()

	case "deviceInfo":
		devices, err := stringsArg(args, field.Name, "devices")
		if err != nil {
			return nil, err
		}
		results, err := e.resolver.DeviceInfo(ctx, devices)
		if err != nil {
			return nil, err
		}
		return ec.deviceInfoReply(field.Selections, results), nil

	case "acceleratorData":
		drfs, err := stringsArg(args, field.Name, "drfs")
		if err != nil {
			return nil, err
		}
		readings, err := e.resolver.AcceleratorData(ctx, drfs)
		if err != nil {
			return nil, err
		}
		return ec.dataReplies(field.Selections, readings), nil
	}

	return nil, fmt.Errorf("unknown query field %q", field.Name)
}

// subscribe opens the source of the single root field. Setup errors are
// added to ctx, which makes the executor answer with them instead.
func (e *ExecutableSchema) subscribe(ctx context.Context, ec *executionContext) graphql.ResponseHandler {
	fields := graphql.CollectFields(ec.opCtx, ec.opCtx.Operation.SelectionSet, []string{"Subscription"})
	if len(fields) != 1 {
		graphql.AddError(ctx, newError(codeValidation, "", "a subscription must select exactly one field"))
		return noResponses
	}
	field := fields[0]

	fail := func(err error) graphql.ResponseHandler {
		graphql.AddError(ctx, fieldError(err, field.Field))
		return noResponses
	}

	args, err := argumentMap(field, ec.opCtx.Variables)
	if err != nil {
		return fail(err)
	}

	switch field.Name {
	case "acceleratorData":
		drfs, err := stringsArg(args, field.Name, "drfs")
		if err != nil {
			return fail(err)
		}
		src, err := e.resolver.SubscribeAcceleratorData(ctx, drfs)
		if err != nil {
			return fail(err)
		}
		return stream(ctx, e.resolver.trackSubscription(field.Name), field, src, ec.dataReply)

	case "reportEvents":
		events, err := int32sArg(args, field.Name, "events")
		if err != nil {
			return fail(err)
		}
		src, err := e.resolver.ReportEvents(ctx, events)
		if err != nil {
			return fail(err)
		}
		return stream(ctx, e.resolver.trackSubscription(field.Name), field, src, ec.eventInfo)
	}

	graphql.AddError(ctx, newError(codeValidation, field.Name, "unknown subscription field %q", field.Name))
	return noResponses
}

// stream answers each call with the next item of src as a response holding
// field, and nil once src is drained or the call's context ends. done runs
// once, when the stream ends or ctx is cancelled.
func stream[T any](ctx context.Context, done func(), field graphql.CollectedField, src <-chan T,
	marshal func(ast.SelectionSet, T) graphql.Marshaler,
) graphql.ResponseHandler {
	var once sync.Once
	finish := func() { once.Do(done) }
	context.AfterFunc(ctx, finish)

	return func(ctx context.Context) *graphql.Response {
		select {
		case item, ok := <-src:
			if !ok {
				finish()
				return nil
			}
			return &graphql.Response{Data: rootData([]graphql.CollectedField{field},
				[]graphql.Marshaler{marshal(field.Selections, item)})}
		case <-ctx.Done():
			finish()
			return nil
		}
	}
}

func noResponses(context.Context) *graphql.Response {
	return nil
}

// rootData marshals the top level object of a response
func rootData(fields []graphql.CollectedField, values []graphql.Marshaler) []byte {
	out := graphql.NewFieldSet(fields)
	for i, v := range values {
		if v == nil {
			v = graphql.Null
		}
		out.Values[i] = v
	}
	var buf bytes.Buffer
	out.MarshalGQL(&buf)
	return buf.Bytes()
}

// argumentMap is field.ArgumentMap, reporting literal conversion failures
// as invalid input instead of panicking
func argumentMap(field graphql.CollectedField, vars map[string]interface{}) (args map[string]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Mark(errors.ErrorInvalid, fmt.Errorf("%v", r), "ExecutableSchema", field.Name)
		}
	}()
	return field.ArgumentMap(vars), nil
}
