package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "twitch-giveaway-backend/internal/common/errors"
	"twitch-giveaway-backend/internal/common/middleware"
	"twitch-giveaway-backend/internal/features/giveaway/models"
	giveawayservice "twitch-giveaway-backend/internal/features/giveaway/service"
)

type GiveawayHandler struct {
	service  giveawayservice.GiveawayService
	autoDraw *giveawayservice.AutoDrawService
}

func NewGiveawayHandler(service giveawayservice.GiveawayService, autoDraw *giveawayservice.AutoDrawService) *GiveawayHandler {
	return &GiveawayHandler{
		service:  service,
		autoDraw: autoDraw,
	}
}

func (h *GiveawayHandler) RegisterRoutes(router *gin.RouterGroup) {
	giveaways := router.Group("/giveaways")
	{
		giveaways.GET("", h.list)
		giveaways.GET("/:id", h.getByID)

		giveaways.POST("/:id/participate", middleware.RequireAuth(), h.participate)
		giveaways.DELETE("/:id/participate", middleware.RequireAuth(), h.leave)

		admin := giveaways.Group("", middleware.RequireAdmin())
		{
			admin.POST("", h.create)
			admin.PUT("/:id", h.update)
			admin.DELETE("/:id", h.delete)
			admin.PUT("/:id/close", h.close)
			admin.POST("/:id/draw-winner", h.drawWinner)
			admin.POST("/:id/reroll-winner", h.rerollWinner)
			admin.GET("/:id/participants", h.getParticipants)
			admin.POST("/check-auto-draw", h.checkAutoDraw)
		}
	}
}

// @Summary List giveaways
// @Description Open giveaways for everyone, all giveaways for admins
// @Tags giveaways
// @Produce json
// @Success 200 {array} models.GiveawayResponse
// @Router /giveaways [get]
func (h *GiveawayHandler) list(c *gin.Context) {
	viewerID := ""
	isAdmin := false
	if identity := middleware.GetIdentity(c); identity != nil {
		viewerID = identity.UserID
		isAdmin = identity.IsAdmin
	}

	giveaways, err := h.service.List(c.Request.Context(), viewerID, isAdmin)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, giveaways)
}

// @Summary Get a giveaway
// @Tags giveaways
// @Produce json
// @Param id path int true "Giveaway ID"
// @Success 200 {object} models.GiveawayResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /giveaways/{id} [get]
func (h *GiveawayHandler) getByID(c *gin.Context) {
	id, ok := h.giveawayID(c)
	if !ok {
		return
	}

	viewerID := ""
	if identity := middleware.GetIdentity(c); identity != nil {
		viewerID = identity.UserID
	}

	giveaway, err := h.service.GetByID(c.Request.Context(), id, viewerID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, giveaway)
}

// @Summary Create a giveaway
// @Tags giveaways
// @Accept json
// @Produce json
// @Param giveaway body models.GiveawayCreate true "Giveaway"
// @Success 201 {object} models.Giveaway
// @Failure 400 {object} middleware.ErrorResponse
// @Router /giveaways [post]
func (h *GiveawayHandler) create(c *gin.Context) {
	var input models.GiveawayCreate
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.RespondError(c, appErrors.NewValidationError("body", err.Error()))
		return
	}

	giveaway, err := h.service.Create(c.Request.Context(), &input)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, giveaway)
}

// @Summary Update a giveaway
// @Description Only open giveaways can be edited
// @Tags giveaways
// @Accept json
// @Produce json
// @Param id path int true "Giveaway ID"
// @Param giveaway body models.GiveawayUpdate true "Fields to update"
// @Success 200 {object} models.Giveaway
// @Router /giveaways/{id} [put]
func (h *GiveawayHandler) update(c *gin.Context) {
	id, ok := h.giveawayID(c)
	if !ok {
		return
	}

	var input models.GiveawayUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.RespondError(c, appErrors.NewValidationError("body", err.Error()))
		return
	}

	giveaway, err := h.service.Update(c.Request.Context(), id, &input)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, giveaway)
}

// @Summary Delete a giveaway
// @Tags giveaways
// @Param id path int true "Giveaway ID"
// @Success 204
// @Router /giveaways/{id} [delete]
func (h *GiveawayHandler) delete(c *gin.Context) {
	id, ok := h.giveawayID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Join a giveaway
// @Tags participation
// @Param id path int true "Giveaway ID"
// @Success 200 {object} gin.H
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /giveaways/{id}/participate [post]
func (h *GiveawayHandler) participate(c *gin.Context) {
	id, ok := h.giveawayID(c)
	if !ok {
		return
	}
	identity := middleware.GetIdentity(c)

	err := h.service.Join(c.Request.Context(), id, identity.UserID, identity.DisplayName)
	if err != nil {
		// Closed giveaways are not joinable and read as absent to joiners.
		if appErr, ok := appErrors.AsAppError(err); ok && appErr.Code == appErrors.ErrCodeInvalidState {
			err = appErrors.NewGiveawayNotFoundError(id)
		}
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary Leave a giveaway
// @Tags participation
// @Param id path int true "Giveaway ID"
// @Success 200 {object} gin.H
// @Failure 404 {object} middleware.ErrorResponse
// @Router /giveaways/{id}/participate [delete]
func (h *GiveawayHandler) leave(c *gin.Context) {
	id, ok := h.giveawayID(c)
	if !ok {
		return
	}
	identity := middleware.GetIdentity(c)

	if err := h.service.Leave(c.Request.Context(), id, identity.UserID); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary Close a giveaway
// @Tags giveaways
// @Param id path int true "Giveaway ID"
// @Success 200 {object} gin.H
// @Failure 409 {object} middleware.ErrorResponse
// @Router /giveaways/{id}/close [put]
func (h *GiveawayHandler) close(c *gin.Context) {
	id, ok := h.giveawayID(c)
	if !ok {
		return
	}

	if err := h.service.Close(c.Request.Context(), id); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary Draw a winner
// @Tags giveaways
// @Param id path int true "Giveaway ID"
// @Success 200 {object} models.WinnerInfo
// @Failure 400 {object} middleware.ErrorResponse
// @Router /giveaways/{id}/draw-winner [post]
func (h *GiveawayHandler) drawWinner(c *gin.Context) {
	id, ok := h.giveawayID(c)
	if !ok {
		return
	}

	winner, err := h.service.DrawWinner(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, winner)
}

// @Summary Reroll the winner
// @Description Replaces the winner of a closed giveaway
// @Tags giveaways
// @Param id path int true "Giveaway ID"
// @Success 200 {object} models.WinnerInfo
// @Failure 400 {object} middleware.ErrorResponse
// @Router /giveaways/{id}/reroll-winner [post]
func (h *GiveawayHandler) rerollWinner(c *gin.Context) {
	id, ok := h.giveawayID(c)
	if !ok {
		return
	}

	winner, err := h.service.RerollWinner(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, winner)
}

// @Summary List participants
// @Tags participation
// @Param id path int true "Giveaway ID"
// @Success 200 {array} models.User
// @Router /giveaways/{id}/participants [get]
func (h *GiveawayHandler) getParticipants(c *gin.Context) {
	id, ok := h.giveawayID(c)
	if !ok {
		return
	}

	participants, err := h.service.Participants(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, participants)
}

// @Summary Run an auto-draw pass now
// @Description Processes every giveaway whose scheduled draw time has elapsed
// @Tags giveaways
// @Success 200 {object} gin.H
// @Router /giveaways/check-auto-draw [post]
func (h *GiveawayHandler) checkAutoDraw(c *gin.Context) {
	if err := h.autoDraw.RunOnce(c.Request.Context()); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *GiveawayHandler) giveawayID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondError(c, appErrors.NewValidationError("id", "must be a positive integer"))
		return 0, false
	}
	return id, true
}
