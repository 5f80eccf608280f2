package models

import (
	"time"

	"cybercrime-portal/pkg/catalog"
)

type Coordinates struct {
	Lat float64 `bson:"lat" json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `bson:"lng" json:"lng" validate:"gte=-180,lte=180"`
}

type Location struct {
	Country     string       `bson:"country" json:"country" validate:"required,max=100"`
	State       string       `bson:"state" json:"state" validate:"required,max=100"`
	City        string       `bson:"city" json:"city" validate:"required,max=100"`
	ZipCode     string       `bson:"zip_code,omitempty" json:"zip_code,omitempty" validate:"omitempty,max=20"`
	Address     string       `bson:"address,omitempty" json:"address,omitempty" validate:"omitempty,max=300"`
	Coordinates *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty" validate:"omitempty"`
}

// ChainOfCustodyEntry is one permanent audit record. Hash covers PrevHash and
// every recorded field, linking the entry to its predecessor.
type ChainOfCustodyEntry struct {
	ID        string                `bson:"id" json:"id"`
	UserID    string                `bson:"user_id" json:"user_id"`
	Action    catalog.CustodyAction `bson:"action" json:"action"`
	Timestamp time.Time             `bson:"timestamp" json:"timestamp"`
	IPAddress string                `bson:"ip_address" json:"ip_address"`
	Notes     string                `bson:"notes,omitempty" json:"notes,omitempty"`
	PrevHash  string                `bson:"prev_hash" json:"prev_hash"`
	Hash      string                `bson:"hash" json:"hash"`
}

type Evidence struct {
	ID             string                `bson:"id" json:"id"`
	CaseID         string                `bson:"case_id" json:"case_id"`
	Type           catalog.EvidenceType  `bson:"type" json:"type"`
	FileName       string                `bson:"file_name" json:"file_name"`
	FileSize       int64                 `bson:"file_size" json:"file_size"`
	ContentType    string                `bson:"content_type,omitempty" json:"content_type,omitempty"`
	StorageKey     string                `bson:"storage_key,omitempty" json:"storage_key,omitempty"`
	UploadedBy     string                `bson:"uploaded_by" json:"uploaded_by"`
	UploadedAt     time.Time             `bson:"uploaded_at" json:"uploaded_at"`
	Description    string                `bson:"description,omitempty" json:"description,omitempty"`
	Hash           string                `bson:"hash" json:"hash"`
	IsVerified     bool                  `bson:"is_verified" json:"is_verified"`
	VerifiedBy     string                `bson:"verified_by,omitempty" json:"verified_by,omitempty"`
	VerifiedAt     *time.Time            `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
	DuplicateOf    string                `bson:"duplicate_of,omitempty" json:"duplicate_of,omitempty"`
	ChainOfCustody []ChainOfCustodyEntry `bson:"chain_of_custody" json:"chain_of_custody"`
}

type Communication struct {
	ID          string                    `bson:"id" json:"id"`
	CaseID      string                    `bson:"case_id" json:"case_id"`
	FromUserID  string                    `bson:"from_user_id" json:"from_user_id"`
	ToUserID    string                    `bson:"to_user_id" json:"to_user_id"`
	Message     string                    `bson:"message" json:"message"`
	Timestamp   time.Time                 `bson:"timestamp" json:"timestamp"`
	Type        catalog.CommunicationType `bson:"type" json:"type"`
	IsRead      bool                      `bson:"is_read" json:"is_read"`
	Attachments []string                  `bson:"attachments,omitempty" json:"attachments,omitempty"`
}

// Suspect is unverified identity data supplied about a case. It is not a
// portal account.
type Suspect struct {
	ID             string   `bson:"id" json:"id"`
	Name           string   `bson:"name,omitempty" json:"name,omitempty"`
	Alias          string   `bson:"alias,omitempty" json:"alias,omitempty"`
	Email          string   `bson:"email,omitempty" json:"email,omitempty"`
	Phone          string   `bson:"phone,omitempty" json:"phone,omitempty"`
	SocialMedia    []string `bson:"social_media,omitempty" json:"social_media,omitempty"`
	KnownAddresses []string `bson:"known_addresses,omitempty" json:"known_addresses,omitempty"`
	Description    string   `bson:"description" json:"description"`
	IsVerified     bool     `bson:"is_verified" json:"is_verified"`
}

type StatusChange struct {
	From      catalog.CaseStatus `bson:"from" json:"from"`
	To        catalog.CaseStatus `bson:"to" json:"to"`
	ChangedBy string             `bson:"changed_by" json:"changed_by"`
	ChangedAt time.Time          `bson:"changed_at" json:"changed_at"`
	Note      string             `bson:"note,omitempty" json:"note,omitempty"`
}

type CrimeCase struct {
	ID                string                `bson:"_id" json:"id"`
	ReporterID        string                `bson:"reporter_id" json:"reporter_id"`
	AssignedOfficerID string                `bson:"assigned_officer_id,omitempty" json:"assigned_officer_id,omitempty"`
	Title             string                `bson:"title" json:"title"`
	Description       string                `bson:"description" json:"description"`
	Category          catalog.CrimeCategory `bson:"category" json:"category"`
	SubCategory       string                `bson:"sub_category" json:"sub_category"`
	Severity          catalog.Severity      `bson:"severity" json:"severity"`
	Priority          catalog.Priority      `bson:"priority" json:"priority"`
	Status            catalog.CaseStatus    `bson:"status" json:"status"`
	Location          Location              `bson:"location" json:"location"`
	IncidentDate      time.Time             `bson:"incident_date" json:"incident_date"`
	ReportedDate      time.Time             `bson:"reported_date" json:"reported_date"`
	LastUpdated       time.Time             `bson:"last_updated" json:"last_updated"`
	Evidence          []Evidence            `bson:"evidence" json:"evidence"`
	Communications    []Communication       `bson:"communications" json:"communications"`
	Tags              []string              `bson:"tags" json:"tags"`
	EstimatedLoss     *float64              `bson:"estimated_loss,omitempty" json:"estimated_loss,omitempty"`
	IPAddress         string                `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	Websites          []string              `bson:"websites,omitempty" json:"websites,omitempty"`
	Suspects          []Suspect             `bson:"suspects,omitempty" json:"suspects,omitempty"`
	IsPublic          bool                  `bson:"is_public" json:"is_public"`
	StatusHistory     []StatusChange        `bson:"status_history" json:"status_history"`
}

// CaseFormData is the citizen submission a case is created from.
type CaseFormData struct {
	Title         string                `json:"title" validate:"required,min=10,max=200"`
	Description   string                `json:"description" validate:"required,min=50,max=2000"`
	Category      catalog.CrimeCategory `json:"category" validate:"required,crime_category"`
	SubCategory   string                `json:"sub_category" validate:"required"`
	Severity      catalog.Severity      `json:"severity" validate:"required,severity"`
	Priority      catalog.Priority      `json:"priority,omitempty" validate:"omitempty,priority"`
	Location      Location              `json:"location"`
	IncidentDate  time.Time             `json:"incident_date" validate:"required"`
	EstimatedLoss *float64              `json:"estimated_loss,omitempty" validate:"omitempty,gte=0"`
	IPAddress     string                `json:"ip_address,omitempty" validate:"omitempty,ip"`
	Websites      []string              `json:"websites,omitempty" validate:"max=50,dive,required,url|fqdn"`
	Tags          []string              `json:"tags,omitempty" validate:"max=20,dive,max=50"`
	IsPublic      bool                  `json:"is_public"`
}

// EvidenceByID returns a pointer into c.Evidence, or nil.
func (c *CrimeCase) EvidenceByID(id string) *Evidence {
	for i := range c.Evidence {
		if c.Evidence[i].ID == id {
			return &c.Evidence[i]
		}
	}
	return nil
}

// Clone returns a deep copy so callers can never alias stored state.
func (c *CrimeCase) Clone() *CrimeCase {
	if c == nil {
		return nil
	}
	out := *c
	if c.Location.Coordinates != nil {
		coords := *c.Location.Coordinates
		out.Location.Coordinates = &coords
	}
	if c.EstimatedLoss != nil {
		loss := *c.EstimatedLoss
		out.EstimatedLoss = &loss
	}
	out.Tags = cloneStrings(c.Tags)
	out.Websites = cloneStrings(c.Websites)
	if c.StatusHistory != nil {
		out.StatusHistory = make([]StatusChange, len(c.StatusHistory))
		copy(out.StatusHistory, c.StatusHistory)
	}

	if c.Evidence != nil {
		out.Evidence = make([]Evidence, len(c.Evidence))
		for i := range c.Evidence {
			out.Evidence[i] = c.Evidence[i].Clone()
		}
	}
	if c.Communications != nil {
		out.Communications = make([]Communication, len(c.Communications))
		for i, m := range c.Communications {
			m.Attachments = cloneStrings(m.Attachments)
			out.Communications[i] = m
		}
	}
	if c.Suspects != nil {
		out.Suspects = make([]Suspect, len(c.Suspects))
		for i, s := range c.Suspects {
			s.SocialMedia = cloneStrings(s.SocialMedia)
			s.KnownAddresses = cloneStrings(s.KnownAddresses)
			out.Suspects[i] = s
		}
	}
	return &out
}

func (e Evidence) Clone() Evidence {
	out := e
	if e.VerifiedAt != nil {
		t := *e.VerifiedAt
		out.VerifiedAt = &t
	}
	if e.ChainOfCustody != nil {
		out.ChainOfCustody = make([]ChainOfCustodyEntry, len(e.ChainOfCustody))
		copy(out.ChainOfCustody, e.ChainOfCustody)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
