package channel

import "github.com/cloudwego/hertz/pkg/app"

// Route is an HTTP endpoint a channel mounts on the gateway server.
type Route struct {
	Method  string
	Path    string
	Handler app.HandlerFunc
}

// RouteProvider is implemented by channels that receive messages over the
// gateway's HTTP server.
type RouteProvider interface {
	Routes() []Route
}
