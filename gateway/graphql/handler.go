package graphql

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/lru"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/gorilla/websocket"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

const (
	// maxRequestBytes bounds the body of a GraphQL POST
	maxRequestBytes = 1 << 20

	// queryCacheSize is the number of parsed documents kept
	queryCacheSize = 1000

	// wsInitTimeout bounds the wait for connection_init
	wsInitTimeout = 10 * time.Second
)

// operationExecutor is the part of gqlgen's handler.Server and
// executor.Executor the gateway configures
type operationExecutor interface {
	Use(graphql.HandlerExtension)
	SetQueryCache(graphql.Cache)
	SetRecoverFunc(graphql.RecoverFunc)
}

// configureExecutor installs the operation limits and panic handling.
// Introspection stays off because extension.Introspection is never added.
func configureExecutor(exec operationExecutor, config Config, logger *slog.Logger) {
	exec.SetQueryCache(lru.New(queryCacheSize))
	exec.Use(depthLimit{limit: config.MaxQueryDepth})
	exec.Use(extension.FixedComplexityLimit(config.MaxComplexity))
	exec.SetRecoverFunc(func(_ context.Context, err any) error {
		logger.Error("GraphQL resolver panic", "panic", err)
		return newError(codeInternal, "", "internal server error")
	})
}

// newHandler serves the schema over websocket, GET and POST
func (s *Server) newHandler() *handler.Server {
	srv := handler.New(s.schema)

	srv.AddTransport(transport.Websocket{
		Upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      s.checkOrigin,
		},
		InitTimeout:           wsInitTimeout,
		KeepAlivePingInterval: s.config.KeepAlive(),
		PingPongInterval:      s.config.KeepAlive(),
		MissingPongOk:         true,
		ErrorFunc: func(_ context.Context, err error) {
			s.logger.Debug("websocket error", "error", err)
		},
		CloseFunc: func(_ context.Context, code int) {
			s.logger.Debug("websocket closed", "code", code)
		},
	})
	srv.AddTransport(transport.Options{AllowedMethods: []string{"GET", "POST", "OPTIONS"}})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(queryPOST{})

	configureExecutor(srv, s.config, s.logger)
	return srv
}

// depthLimit rejects operations whose fields nest deeper than limit
type depthLimit struct {
	limit int
}

var _ interface {
	graphql.HandlerExtension
	graphql.OperationContextMutator
} = depthLimit{}

func (depthLimit) ExtensionName() string {
	return "DepthLimit"
}

func (d depthLimit) Validate(graphql.ExecutableSchema) error {
	if d.limit < 1 {
		return fmt.Errorf("depth limit must be positive, got %d", d.limit)
	}
	return nil
}

func (d depthLimit) MutateOperationContext(_ context.Context, rc *graphql.OperationContext) *gqlerror.Error {
	if depth := selectionDepth(rc.Doc, rc.Operation.SelectionSet, 0); depth > d.limit {
		return newError(codeValidation, "", "query depth %d exceeds the limit of %d", depth, d.limit)
	}
	return nil
}

// selectionDepth returns the deepest field nesting of sel, following fragments
func selectionDepth(doc *ast.QueryDocument, sel ast.SelectionSet, depth int) int {
	deepest := depth
	for _, s := range sel {
		var d int
		switch s := s.(type) {
		case *ast.Field:
			d = selectionDepth(doc, s.SelectionSet, depth+1)
		case *ast.InlineFragment:
			d = selectionDepth(doc, s.SelectionSet, depth)
		case *ast.FragmentSpread:
			if frag := doc.Fragments.ForName(s.Name); frag != nil {
				d = selectionDepth(doc, frag.SelectionSet, depth)
			}
		}
		if d > deepest {
			deepest = d
		}
	}
	return deepest
}

// queryPOST is transport.POST with a bounded body. Subscriptions are
// refused; they are served over websocket.
type queryPOST struct {
	transport.POST
}

func (t queryPOST) Do(w http.ResponseWriter, r *http.Request, exec graphql.GraphExecutor) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	t.POST.Do(w, r, queryOnly{exec})
}

type queryOnly struct {
	graphql.GraphExecutor
}

func (q queryOnly) DispatchOperation(ctx context.Context, rc *graphql.OperationContext) (graphql.ResponseHandler, context.Context) {
	if rc.Operation.Operation == ast.Subscription {
		resp := q.DispatchError(ctx, gqlerror.List{
			newError(codeValidation, "", "subscriptions are only served over websocket"),
		})
		return graphql.OneShot(resp), ctx
	}
	return q.GraphExecutor.DispatchOperation(ctx, rc)
}
