package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "gharkharcha/internal/errors"
	"gharkharcha/internal/models"
	"gharkharcha/internal/services"
)

// FamilyMemberHandler handles family member requests.
type FamilyMemberHandler struct {
	session services.SessionServicer
	members services.FamilyMemberServicer
}

// NewFamilyMemberHandler creates a new FamilyMemberHandler.
func NewFamilyMemberHandler(session services.SessionServicer, members services.FamilyMemberServicer) *FamilyMemberHandler {
	return &FamilyMemberHandler{session: session, members: members}
}

// CreateFamilyMemberRequest represents the request payload for adding a member.
type CreateFamilyMemberRequest struct {
	Name      string            `json:"name" binding:"required,min=1,max=100"`
	Role      models.MemberRole `json:"role" binding:"required,member_role"`
	AvatarURL string            `json:"avatar_url" binding:"omitempty,url,max=2048"`
}

// UpdateFamilyMemberRequest represents a partial member update. An empty
// avatar_url removes the avatar.
type UpdateFamilyMemberRequest struct {
	Name      *string            `json:"name" binding:"omitempty,min=1,max=100"`
	Role      *models.MemberRole `json:"role" binding:"omitempty,member_role"`
	AvatarURL *string            `json:"avatar_url" binding:"omitempty,max=2048"`
}

// CreateFamilyMember handles adding a household member.
// @Summary     Add a family member
// @Tags        family-members
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body CreateFamilyMemberRequest true "Member details"
// @Success     201 {object} IDResponse "Member created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Failure     502 {object} ErrorResponse "Store rejected the write"
// @Router      /family-members [post]
func (h *FamilyMemberHandler) CreateFamilyMember(c *gin.Context) {
	if _, ok := requireIdentity(c, h.session); !ok {
		return
	}

	var req CreateFamilyMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	id, err := h.members.AddFamilyMember(c.Request.Context(), models.FamilyMemberInput{
		Name:      req.Name,
		Role:      req.Role,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, IDResponse{ID: id})
}

// GetFamilyMembers handles listing the household.
// @Summary     Get family members
// @Tags        family-members
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {array}  models.FamilyMember "Family members"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Router      /family-members [get]
func (h *FamilyMemberHandler) GetFamilyMembers(c *gin.Context) {
	if _, ok := requireIdentity(c, h.session); !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"family_members": h.members.FamilyMembers()})
}

// UpdateFamilyMember handles a partial member update.
// @Summary     Update family member
// @Tags        family-members
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id      path string                    true "Member ID"
// @Param       request body UpdateFamilyMemberRequest true "Fields to change"
// @Success     200 {object} MessageResponse "Member updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Failure     404 {object} ErrorResponse "Member not found"
// @Router      /family-members/{id} [patch]
func (h *FamilyMemberHandler) UpdateFamilyMember(c *gin.Context) {
	if _, ok := requireIdentity(c, h.session); !ok {
		return
	}

	var req UpdateFamilyMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	u := models.FamilyMemberUpdate{Name: req.Name, Role: req.Role, AvatarURL: req.AvatarURL}
	if err := h.members.UpdateFamilyMember(c.Request.Context(), c.Param("id"), u); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Family member updated"})
}

// DeleteFamilyMember handles removing a member. Their expenses are kept.
// @Summary     Delete family member
// @Description Remove a member; expenses attributed to them are kept and shown as Unknown Member
// @Tags        family-members
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path string true "Member ID"
// @Success     200 {object} MessageResponse "Member deleted"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Failure     404 {object} ErrorResponse "Member not found"
// @Router      /family-members/{id} [delete]
func (h *FamilyMemberHandler) DeleteFamilyMember(c *gin.Context) {
	if _, ok := requireIdentity(c, h.session); !ok {
		return
	}

	if err := h.members.DeleteFamilyMember(c.Request.Context(), c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Family member deleted"})
}
