package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) dashboard(c *gin.Context) {
	d, err := h.admin.Dashboard(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboardJSON{
		Day:          toStats(d.Today),
		Week:         toStats(d.Week),
		RecentOrders: toOrders(d.RecentOrders),
		RecentUsers:  toUsers(d.RecentUsers),
	})
}

func (h *Handler) logs(c *gin.Context) {
	lines, err := intValue(c, "lines", 0)
	if err != nil {
		fail(c, err)
		return
	}
	out, err := h.admin.Logs(lines, c.Query("level"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": out})
}

func (h *Handler) settings(c *gin.Context) {
	values, err := h.admin.Settings(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, values)
}

func (h *Handler) updateSettings(c *gin.Context) {
	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		fail(c, badRequest("settings must be a JSON object of strings"))
		return
	}
	if err := h.admin.UpdateSettings(c.Request.Context(), values); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ok{OK: true})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), c.Query("query"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUsers(users))
}

func (h *Handler) setUserActive(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	active, err := optBool(c, "active")
	if err != nil {
		fail(c, err)
		return
	}
	if active == nil {
		fail(c, badRequest("active required"))
		return
	}
	if err := h.users.SetActive(c.Request.Context(), id, *active); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ok{OK: true})
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ok{OK: true})
}
