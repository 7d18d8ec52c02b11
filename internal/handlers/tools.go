package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-sidebar/internal/toolbar"
)

// ToolsHandler serves the tool and model catalog.
type ToolsHandler struct {
	catalog toolbar.Catalog
}

func NewToolsHandler(catalog toolbar.Catalog) *ToolsHandler {
	return &ToolsHandler{catalog: catalog}
}

// ListTools returns every tool in its default state.
func (h *ToolsHandler) ListTools(c *gin.Context) {
	bar := toolbar.NewBar(h.catalog.Tools)
	c.JSON(http.StatusOK, gin.H{"tools": bar.States()})
}

// ListModels returns the selectable models and the default selection.
func (h *ToolsHandler) ListModels(c *gin.Context) {
	selector := toolbar.NewModelSelector(h.catalog.Models, h.catalog.DefaultModel)
	resp := gin.H{
		"models": selector.Models(),
		"label":  selector.Label(),
	}
	if selected, ok := selector.Selected(); ok {
		resp["default_model"] = selected.ID
	}
	c.JSON(http.StatusOK, resp)
}
