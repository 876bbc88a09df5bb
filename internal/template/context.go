package template

import "os"

// Context is the data a notification template is rendered with
type Context struct {
	AppName     string              `json:"appName"`
	BaseURL     string              `json:"baseUrl"`
	Kind        string              `json:"kind"`
	CompanySlug string              `json:"companySlug"`
	TaskCount   int                 `json:"taskCount"`
	Env         func(string) string `json:"-"` // Function to get environment variables
}

// NewContext creates a new template context
func NewContext(appName, baseURL string) *Context {
	return &Context{
		AppName: appName,
		BaseURL: baseURL,
		Env:     os.Getenv,
	}
}
