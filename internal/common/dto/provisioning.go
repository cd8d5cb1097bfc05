package dto

// CreateNetworkUserRequest represents a request to provision a subscriber
type CreateNetworkUserRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	FullName        string `json:"fullName"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Service         string `json:"service" binding:"required,oneof=pppoe hotspot"`
	PackageID       string `json:"packageId"`
	SimultaneousUse int    `json:"simultaneousUse"`
}

// CreateNetworkUserResponse carries the credential back exactly once
type CreateNetworkUserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateNetworkUserRequest represents a partial subscriber update
type UpdateNetworkUserRequest struct {
	Password        *string `json:"password,omitempty"`
	FullName        *string `json:"fullName,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	Email           *string `json:"email,omitempty"`
	PackageID       *string `json:"packageId,omitempty"`
	SimultaneousUse *int    `json:"simultaneousUse,omitempty"`
}

// CreatePackageRequest represents a new service plan
type CreatePackageRequest struct {
	Name            string `json:"name" binding:"required"`
	Type            string `json:"type" binding:"omitempty,oneof=pppoe hotspot"`
	Validity        string `json:"validity"`
	DownloadSpeed   string `json:"downloadSpeed"`
	UploadSpeed     string `json:"uploadSpeed"`
	SimultaneousUse int    `json:"simultaneousUse"`
}

// RegisterRouterRequest represents a device being onboarded
type RegisterRouterRequest struct {
	Name      string `json:"name" binding:"required"`
	IPAddress string `json:"ipAddress" binding:"required"`
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	APIPort   int    `json:"apiPort"`
	DNSName   string `json:"dnsName"`
}

// ConfigureServiceRequest represents a router service rollout request
type ConfigureServiceRequest struct {
	RouterID    string   `json:"routerId" binding:"required"`
	ServiceType string   `json:"serviceType" binding:"required,oneof=pppoe hotspot"`
	Interfaces  []string `json:"interfaces" binding:"required,min=1"`
}

// DeployServiceRequest represents a redeploy trigger
type DeployServiceRequest struct {
	Synchronous bool `json:"synchronous"`
}

// CreateTenantRequest represents a tenant being provisioned
type CreateTenantRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
}

// IssueTokenRequest represents a platform admin minting a tenant token
type IssueTokenRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username" binding:"required"`
	TenantID string `json:"tenantId"`
	Role     string `json:"role" binding:"required,oneof=admin operator"`
}

// IssueTokenResponse carries the signed token
type IssueTokenResponse struct {
	Token string `json:"token"`
}
