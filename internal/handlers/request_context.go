package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/issaclevi/wayzx-backend/internal/middleware"
	"github.com/issaclevi/wayzx-backend/internal/services"
	"github.com/issaclevi/wayzx-backend/internal/utils"
)

// TimezoneHeader lets clients name the IANA zone their dates are meant in
const TimezoneHeader = "X-Timezone"

// actorFrom builds the audit actor of the current request
func actorFrom(c *gin.Context) services.Actor {
	actor := services.Actor{
		IPAddress: utils.GetRealIP(c),
		UserAgent: utils.GetUserAgent(c),
	}
	if userCtx, ok := middleware.GetUserContext(c); ok {
		actor.UserID = userCtx.UserID
	}
	return actor
}

func locationFrom(c *gin.Context, fallback string) *time.Location {
	return services.LoadLocation(c.GetHeader(TimezoneHeader), fallback)
}

// uuidParam parses a UUID path parameter, answering 400 when it is malformed
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondBadParam(c, name)
		return uuid.Nil, false
	}
	return id, true
}

// optionalUUIDQuery parses an optional UUID query parameter
func optionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondBadParam(c, name)
		return nil, false
	}
	return &id, true
}

// pagination reads page and limit with defaults; out-of-range values fall back to them
func pagination(c *gin.Context, defaultLimit, maxLimit int) (page, limit int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	return page, limit
}
