package dto

// CreateUserRequest represents a request to create a new user
type CreateUserRequest struct {
	Username     string   `json:"username" binding:"required"`
	DisplayName  string   `json:"displayName"`
	ExternalID   string   `json:"externalId"`
	Password     string   `json:"password" binding:"required"`
	Role         string   `json:"role"`
	CompanySlugs []string `json:"companySlugs"`
}

// UpdateUserRequest changes the profile of a user. Omitted fields stay.
type UpdateUserRequest struct {
	DisplayName *string `json:"displayName"`
	ExternalID  *string `json:"externalId"`
}

// SetRoleRequest grants a role
type SetRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetDisabledRequest disables or re-enables a user
type SetDisabledRequest struct {
	Disabled *bool `json:"disabled" binding:"required"`
}

// SetCompaniesRequest replaces the companies of a user
type SetCompaniesRequest struct {
	CompanySlugs []string `json:"companySlugs"`
}

// UpsertCompanyRequest creates or renames a company
type UpsertCompanyRequest struct {
	Slug string `json:"slug" binding:"required"`
	Name string `json:"name" binding:"required"`
}

// SetActiveRequest activates or deactivates a company
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// CreateCategoryRequest adds a category to a company
type CreateCategoryRequest struct {
	Name      string `json:"name" binding:"required"`
	SortOrder int    `json:"sortOrder"`
}

// UpdateCategoryRequest renames or reorders a category
type UpdateCategoryRequest struct {
	Name      *string `json:"name"`
	SortOrder *int    `json:"sortOrder"`
}

// PatientRequest creates a patient
type PatientRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	MapsURL string `json:"mapsUrl"`
	Notes   string `json:"notes"`
}

// UpdatePatientRequest changes a patient. Omitted fields stay.
type UpdatePatientRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	MapsURL *string `json:"mapsUrl"`
	Notes   *string `json:"notes"`
	Active  *bool   `json:"active"`
}
