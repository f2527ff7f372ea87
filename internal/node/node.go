// Package node names the HTTP-facing processes of the module.
package node

import "github.com/gin-gonic/gin"

// KindReplay is the replay inspection service.
const KindReplay = "replay"

type Node interface {
	NodeID() string
	Kind() string
	HTTPRouter() *gin.Engine
}
