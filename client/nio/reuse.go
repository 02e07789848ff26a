package nio

import (
	"context"
	"strings"

	"github.com/indigo-web/indigo/client"
	"github.com/indigo-web/indigo/http/proto"
)

// DefaultReuseStrategy implements the ordinary HTTP/1.x persistence rules,
// judged from the response headers only (the request's are not consulted):
// HTTP/1.1 connections are kept alive unless the response carries
// Connection: close; HTTP/1.0 connections are closed unless it carries
// Connection: keep-alive.
var DefaultReuseStrategy ReuseStrategy = ReuseStrategyFunc(defaultKeepAlive)

func defaultKeepAlive(resp client.Response, _ context.Context) bool {
	if hasConnectionToken(resp.Headers.Values("Connection"), "close") {
		return false
	}

	switch resp.Proto {
	case proto.HTTP10:
		return hasConnectionToken(resp.Headers.Values("Connection"), "keep-alive")
	default:
		return true
	}
}

func hasConnectionToken(values []string, token string) bool {
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}

	return false
}
