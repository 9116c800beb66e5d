// Package graphql provides the GraphQL gateway of the ACSys bridge.
//
// The gateway republishes the control system backends (DPM acquisition,
// the device database and the clock service) through one GraphQL schema.
// Queries are answered over HTTP; subscriptions stream over websocket.
//
// # Architecture
//
//	HTTP / websocket ──► Server ──► handler.Server ──► ExecutableSchema ──► Resolver ──► bridge.*Bridge ──► gRPC backends
//
//   - Server: HTTP routes, CORS, GraphQL Playground and /health, which
//     reports the check installed with SetHealthCheck and answers 503 while
//     it is unhealthy
//   - handler.Server: gqlgen's handler with the websocket, GET and POST
//     transports, a parsed query cache and the depth and complexity limits
//   - ExecutableSchema: resolves operations on the embedded schema.graphql
//     and marshals results field by field
//   - Resolver: maps root fields onto the bridges with timeouts and metrics
//   - Gateway: owns the lifecycle and the request counters
//
// # Schema
//
//	type Query {
//	  deviceInfo(devices: [String!]!): DeviceInfoReply!
//	  acceleratorData(drfs: [String!]!): [DataReply!]!
//	}
//
//	type Subscription {
//	  acceleratorData(drfs: [String!]!): DataReply!
//	  reportEvents(events: [Int!]!): EventInfo!
//	}
//
// Item-level failures never fail the operation: a device the database
// cannot describe is an ErrorReply in DeviceInfoReply.result, and a reading
// that cannot be translated is an ErrorReply in DataInfo.result. A Scalar
// or ScalarArray holding NaN or an infinity is sent as an ErrorReply with
// the message "non-finite value".
// Introspection (__schema, __type) is disabled; __typename is available on
// every object.
//
// # Usage
//
// Configuration example:
//
//	{
//	  "bind_address": "127.0.0.1:8000",
//	  "path": "/acsys",
//	  "subscription_path": "/acsys/s",
//	  "enable_playground": true,
//	  "enable_cors": true,
//	  "timeout": "30s",
//	  "snapshot_timeout": "2s",
//	  "max_query_depth": 10,
//	  "max_complexity": 200,
//	  "keep_alive": "15s"
//	}
//
// Example query:
//
//	query {
//	  deviceInfo(devices: ["M:OUTTMP"]) {
//	    result {
//	      ... on DeviceInfo { description reading { commonUnits } }
//	      ... on ErrorReply { message }
//	    }
//	  }
//	}
//
// Example subscription:
//
//	subscription {
//	  acceleratorData(drfs: ["M:OUTTMP@p,1000"]) {
//	    refId
//	    data { timestamp result { ... on Scalar { scalarValue } } }
//	  }
//	}
//
// # Websocket Protocols
//
// Both graphql-transport-ws and the older graphql-ws (subscriptions-transport-ws)
// subprotocols are accepted; a client that names neither is served graphql-ws.
// Subscriptions are accepted on subscription_path and on path. POST
// requests must be application/json and carry queries only.
//
// # HTTP Status
//
// Executed operations answer 200, field errors included. Documents that fail
// to parse or validate, or exceed max_query_depth, answer 422. An unreadable
// body or an unsupported method answers 400.
//
// # Error Codes
//
// Errors carry a "code" extension:
//
//	BACKEND_UNAVAILABLE        backend could not be reached (retryable)
//	TIMEOUT                    the operation exceeded its timeout
//	CANCELLED                  the client went away
//	INVALID_INPUT              argument or variable values are unusable
//	GRAPHQL_PARSE_FAILED       the document is not valid GraphQL
//	GRAPHQL_VALIDATION_FAILED  the document does not match the schema
//	COMPLEXITY_LIMIT_EXCEEDED  the operation selects more than max_complexity fields
//	INTERNAL_ERROR             server misconfiguration
//	QUERY_ERROR                any other failure
package graphql
