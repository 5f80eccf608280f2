package catalog

import (
	"github.com/dustin/go-humanize"
)

// EvidenceType is the declared kind of an uploaded artifact.
type EvidenceType string

const (
	EvidenceScreenshot      EvidenceType = "screenshot"
	EvidenceDocument        EvidenceType = "document"
	EvidenceVideo           EvidenceType = "video"
	EvidenceAudio           EvidenceType = "audio"
	EvidenceLogFile         EvidenceType = "log_file"
	EvidenceEmail           EvidenceType = "email"
	EvidenceChatLog         EvidenceType = "chat_log"
	EvidenceFinancialRecord EvidenceType = "financial_record"
	EvidenceOther           EvidenceType = "other"
)

// EvidenceTypeInfo holds the label and upload bound of an evidence type.
// MaxSize is in bytes (SI megabytes).
type EvidenceTypeInfo struct {
	Label   string
	MaxSize uint64
}

var evidenceTypes = map[EvidenceType]EvidenceTypeInfo{
	EvidenceScreenshot:      {Label: "Screenshot", MaxSize: 10 * humanize.MByte},
	EvidenceDocument:        {Label: "Document", MaxSize: 25 * humanize.MByte},
	EvidenceVideo:           {Label: "Video", MaxSize: 100 * humanize.MByte},
	EvidenceAudio:           {Label: "Audio", MaxSize: 50 * humanize.MByte},
	EvidenceLogFile:         {Label: "Log File", MaxSize: 10 * humanize.MByte},
	EvidenceEmail:           {Label: "Email", MaxSize: 5 * humanize.MByte},
	EvidenceChatLog:         {Label: "Chat Log", MaxSize: 5 * humanize.MByte},
	EvidenceFinancialRecord: {Label: "Financial Record", MaxSize: 10 * humanize.MByte},
	EvidenceOther:           {Label: "Other", MaxSize: 25 * humanize.MByte},
}

func (t EvidenceType) Valid() bool {
	_, ok := evidenceTypes[t]
	return ok
}

func (t EvidenceType) Info() EvidenceTypeInfo { return evidenceTypes[t] }

// MaxSize returns the upload bound in bytes, or 0 for unknown types.
func (t EvidenceType) MaxSize() uint64 { return evidenceTypes[t].MaxSize }

// MaxSizeHuman renders the bound the way it is shown to reporters, e.g. "10 MB".
func (t EvidenceType) MaxSizeHuman() string { return humanize.Bytes(t.MaxSize()) }

// WithinLimit reports whether size fits the type's bound. The bound itself is allowed.
func (t EvidenceType) WithinLimit(size int64) bool {
	if size < 0 || !t.Valid() {
		return false
	}
	return uint64(size) <= t.MaxSize()
}

// LargestEvidenceSize is the biggest bound across all types; HTTP handlers use
// it to cap request bodies before the declared type is known.
func LargestEvidenceSize() uint64 {
	var max uint64
	for _, info := range evidenceTypes {
		if info.MaxSize > max {
			max = info.MaxSize
		}
	}
	return max
}

// CustodyAction is what an actor did to a piece of evidence.
type CustodyAction string

const (
	CustodyUploaded    CustodyAction = "uploaded"
	CustodyAccessed    CustodyAction = "accessed"
	CustodyModified    CustodyAction = "modified"
	CustodyTransferred CustodyAction = "transferred"
	CustodyAnalyzed    CustodyAction = "analyzed"
)

func (a CustodyAction) Valid() bool {
	switch a {
	case CustodyUploaded, CustodyAccessed, CustodyModified, CustodyTransferred, CustodyAnalyzed:
		return true
	}
	return false
}
