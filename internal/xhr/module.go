package xhr

import "go.uber.org/fx"

// Module provides the request adapter dependencies
var Module = fx.Module("xhr",
	fx.Provide(
		NewClient,
		fx.Annotate(
			NewEndpointAuthorizer,
			fx.As(new(Authorizer)),
		),
	),
)
