package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gatherly/gatherly/internal/locations"
	"github.com/gatherly/gatherly/internal/services"
	"github.com/gatherly/gatherly/pkg/response"
)

// SearchHandler backs the autocomplete surfaces: the location catalog for
// itinerary planning and active users for the invite picker.
type SearchHandler struct {
	catalog locations.Catalog
	users   *services.UserService
}

func NewSearchHandler(catalog locations.Catalog, users *services.UserService) *SearchHandler {
	return &SearchHandler{catalog: catalog, users: users}
}

// GET /api/locations
func (h *SearchHandler) Locations(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	results, err := h.catalog.Search(requestContext(c), strings.TrimSpace(c.Query("q")), parseIntQuery(c, "limit", 0))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"locations": results})
}

// GET /api/users
func (h *SearchHandler) Users(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	users, err := h.users.Search(requestContext(c), strings.TrimSpace(c.Query("q")), parseIntQuery(c, "limit", 0))
	if err != nil {
		response.Error(c, err)
		return
	}

	results := make([]gin.H, 0, len(users))
	for i := range users {
		results = append(results, gin.H{
			"id":           users[i].ID,
			"username":     users[i].Username,
			"display_name": users[i].DisplayName,
		})
	}
	response.Success(c, http.StatusOK, gin.H{"users": results})
}
