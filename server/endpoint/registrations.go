package endpoint

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/injectkit/di"
	"github.com/kbukum/injectkit/errors"
)

// Registrations lists every key registered in reg.
func Registrations(reg *di.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		infos := reg.Registrations()
		RespondOKWithMeta(c, infos, &Meta{RegistryID: reg.ID(), Total: len(infos)})
	}
}

// Registration describes one key. The key is the type name as listed by
// Registrations, e.g. /registrations/*app.Engine.
func Registration(reg *di.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimPrefix(c.Param("key"), "/")
		entry, ok := reg.LookupName(name)
		if !ok {
			RespondWithError(c, errors.NotFound("registration", name))
			return
		}
		RespondOK(c, di.RegistrationInfo{
			Key:         entry.Key().String(),
			Strategy:    entry.Strategy(),
			Initialized: entry.Initialized(),
		})
	}
}
