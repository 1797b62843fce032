package http

import (
	"github.com/gin-gonic/gin"

	"github.com/yanqian/userauth/internal/domain/auth"
)

const (
	identityKey  = "auth_identity"
	directoryKey = "auth_directory"
)

func setIdentity(c *gin.Context, identity auth.Identity) {
	c.Set(identityKey, identity)
}

func getIdentity(c *gin.Context) (auth.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := value.(auth.Identity)
	return identity, ok
}

// injectDirectory makes the shared user directory available to the
// identity middleware of every request.
func injectDirectory(directory auth.UserDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(directoryKey, directory)
		c.Next()
	}
}

func getDirectory(c *gin.Context) auth.UserDirectory {
	value, ok := c.Get(directoryKey)
	if !ok {
		return nil
	}
	directory, _ := value.(auth.UserDirectory)
	return directory
}
