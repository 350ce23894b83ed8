package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ContextActorID = "actor_id"

// ExtractActor parses the authenticated employee id once so handlers can read
// it with ActorID.
func ExtractActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetString(ContextEmployeeID)
		if raw == "" {
			abort(c, ErrMissingActor, nil)
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			abort(c, ErrMissingActor, "employee_id is not a valid uuid")
			return
		}
		c.Set(ContextActorID, id)
		c.Next()
	}
}

func ActorID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextActorID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
