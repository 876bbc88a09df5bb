package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amoylab/taskflow/internal/apiserver/middleware"
	"github.com/amoylab/taskflow/internal/common/dto"
	"github.com/amoylab/taskflow/internal/i18n"
	"github.com/amoylab/taskflow/internal/tenancy"
)

// AdminListCompanies lists every company, active or not
func (h *Handler) AdminListCompanies(c *gin.Context) {
	companies, err := h.catalog.ListCompanies(c.Request.Context(), middleware.RequestContext(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

// UpsertCompany creates a company or renames an existing one
func (h *Handler) UpsertCompany(c *gin.Context) {
	var req dto.UpsertCompanyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	company, created, err := h.catalog.UpsertCompany(c.Request.Context(), middleware.RequestContext(c), req.Slug, req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"company": company, "created": created})
}

// SetCompanyActive activates or deactivates a company
func (h *Handler) SetCompanyActive(c *gin.Context) {
	var req dto.SetActiveRequest
	if !h.bindJSON(c, &req) {
		return
	}
	company, err := h.catalog.SetCompanyActive(c.Request.Context(), middleware.RequestContext(c), c.Param("slug"), *req.Active)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"company": company})
}

// ListCategories lists the categories of a company
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context(), middleware.RequestContext(c), c.Param("slug"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// CreateCategory adds a category to a company
func (h *Handler) CreateCategory(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	category, err := h.catalog.CreateCategory(c.Request.Context(), middleware.RequestContext(c), c.Param("slug"), req.Name, req.SortOrder)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// UpdateCategory renames or reorders a category
func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	category, err := h.catalog.UpdateCategory(c.Request.Context(), middleware.RequestContext(c), id, tenancy.CategoryUpdate{
		Name:      req.Name,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

// ListPatients lists the patients of a company
func (h *Handler) ListPatients(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"
	patients, err := h.catalog.ListPatients(c.Request.Context(), middleware.RequestContext(c), c.Param("slug"), includeInactive)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patients": patients})
}

// CreatePatient adds a patient to a company
func (h *Handler) CreatePatient(c *gin.Context) {
	var req dto.PatientRequest
	if !h.bindJSON(c, &req) {
		return
	}
	patient, err := h.catalog.CreatePatient(c.Request.Context(), middleware.RequestContext(c), c.Param("slug"), tenancy.PatientInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		MapsURL: req.MapsURL,
		Notes:   req.Notes,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"patient": patient})
}

// UpdatePatient changes a patient
func (h *Handler) UpdatePatient(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdatePatientRequest
	if !h.bindJSON(c, &req) {
		return
	}
	patient, err := h.catalog.UpdatePatient(c.Request.Context(), middleware.RequestContext(c), id, tenancy.PatientUpdate{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		MapsURL: req.MapsURL,
		Notes:   req.Notes,
		Active:  req.Active,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	i18n.RespondOK(c, i18n.MsgOperationComplete, nil, gin.H{"patient": patient})
}
