// Package types defines the portfolio records exchanged between the store,
// the tool handlers and the HTTP transport.
package types

import "time"

// Company statuses.
const (
	CompanyDiscovery = "discovery"
	CompanyActive    = "active"
	CompanyPilot     = "pilot"
	CompanyDeployed  = "deployed"
)

// Milestone statuses.
const (
	MilestonePending    = "pending"
	MilestoneInProgress = "in_progress"
	MilestoneDone       = "done"
	MilestoneBlocked    = "blocked"
)

// Requirement statuses.
const (
	RequirementNeeded    = "needed"
	RequirementRequested = "requested"
	RequirementReceived  = "received"
)

// Activity types.
const (
	ActivityNote      = "note"
	ActivityMilestone = "milestone"
	ActivityDocument  = "document"
	ActivityMeeting   = "meeting"
	ActivityCall      = "call"
	ActivityEmail     = "email"
)

// Task priorities and statuses.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"

	TaskTodo       = "todo"
	TaskInProgress = "in_progress"
	TaskBlocked    = "blocked"
	TaskDone       = "done"
)

// Deployment statuses.
const (
	DeploymentActive    = "active"
	DeploymentDeploying = "deploying"
	DeploymentFailed    = "failed"
	DeploymentStopped   = "stopped"
)

// Component types. Every deployment owns exactly one of each.
const (
	ComponentGitHub    = "github"
	ComponentFrontend  = "frontend"
	ComponentMCPServer = "mcp_server"
	ComponentDatabase  = "database"
)

// ComponentTypes lists the fixed component kinds in creation order.
var ComponentTypes = []string{ComponentGitHub, ComponentFrontend, ComponentMCPServer, ComponentDatabase}

// Component health statuses.
const (
	HealthHealthy       = "healthy"
	HealthDegraded      = "degraded"
	HealthDown          = "down"
	HealthUnknown       = "unknown"
	HealthNotConfigured = "not_configured"
)

// Enumerations used for argument schemas and store validation.
var (
	CompanyStatuses     = []string{CompanyDiscovery, CompanyActive, CompanyPilot, CompanyDeployed}
	MilestoneStatuses   = []string{MilestonePending, MilestoneInProgress, MilestoneDone, MilestoneBlocked}
	RequirementStatuses = []string{RequirementNeeded, RequirementRequested, RequirementReceived}
	ActivityTypes       = []string{ActivityNote, ActivityMilestone, ActivityDocument, ActivityMeeting, ActivityCall, ActivityEmail}
	Priorities          = []string{PriorityHigh, PriorityMedium, PriorityLow}
	TaskStatuses        = []string{TaskTodo, TaskInProgress, TaskBlocked, TaskDone}
	DeploymentStatuses  = []string{DeploymentActive, DeploymentDeploying, DeploymentFailed, DeploymentStopped}
	HealthStatuses      = []string{HealthHealthy, HealthDegraded, HealthDown, HealthUnknown, HealthNotConfigured}
)

// Company is a portfolio company.
type Company struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Tools       []string  `json:"tools"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CompanyDetail is a company with its owned records.
type CompanyDetail struct {
	Company
	Contacts     []Contact     `json:"contacts"`
	Milestones   []Milestone   `json:"milestones"`
	Requirements []Requirement `json:"requirements"`
	Documents    []Document    `json:"documents"`
	Activity     []Activity    `json:"recent_activity"`
}

// Milestone is an ordered step in a company's rollout.
type Milestone struct {
	ID          string     `json:"id"`
	CompanyID   string     `json:"company_id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	OrderIndex  int        `json:"order_index"`
	DueDate     string     `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Requirement is something a company must provide.
type Requirement struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Item      string    `json:"item"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Activity is an append-only log entry. CompanyID is empty for global rows.
type Activity struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id,omitempty"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Document is a stored file. CompanyID is empty for platform documents.
type Document struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id,omitempty"`
	Name        string    `json:"name"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	StoragePath string    `json:"storage_path,omitempty"`
	URL         string    `json:"url,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	FileType    string    `json:"file_type,omitempty"`
	SizeBytes   int64     `json:"size_bytes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Contact is a person at a company.
type Contact struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DevTask is an engineering task, optionally linked to a company.
type DevTask struct {
	ID          string     `json:"id"`
	CompanyID   string     `json:"company_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	Steps       []string   `json:"steps"`
	DueDate     string     `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Deployment is a deployed service made of four fixed components.
type Deployment struct {
	ID          string                `json:"id"`
	Slug        string                `json:"slug"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Status      string                `json:"status"`
	Components  []DeploymentComponent `json:"components"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// DeploymentComponent is one probed part of a deployment.
type DeploymentComponent struct {
	ID            string         `json:"id"`
	DeploymentID  string         `json:"deployment_id"`
	ComponentType string         `json:"component_type"`
	Status        string         `json:"status"`
	URL           string         `json:"url,omitempty"`
	LastChecked   *time.Time     `json:"last_checked"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	Config        map[string]any `json:"config"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// CompanyProgress is one row of the portfolio summary.
type CompanyProgress struct {
	Slug                    string `json:"slug"`
	Name                    string `json:"name"`
	Status                  string `json:"status"`
	TotalMilestones         int    `json:"total_milestones"`
	DoneMilestones          int    `json:"done_milestones"`
	Progress                int    `json:"progress"`
	OutstandingRequirements int    `json:"outstanding_requirements"`
}

// PortfolioSummary aggregates progress across all companies.
type PortfolioSummary struct {
	Companies       []CompanyProgress `json:"companies"`
	TotalCompanies  int               `json:"total_companies"`
	ByStatus        map[string]int    `json:"by_status"`
	TotalMilestones int               `json:"total_milestones"`
	DoneMilestones  int               `json:"done_milestones"`
	Progress        int               `json:"progress"`
}
