package entity

// StaffRole identifies a reviewer in the approval chain.
type StaffRole string

const (
	RoleFaculty       StaffRole = "faculty"
	RoleVicePrincipal StaffRole = "vice principal"
	RolePrincipal     StaffRole = "principal"
	RoleAccountant    StaffRole = "accountant"
)

// ReviewerChain is the ordered sequence of roles a document passes
// through before it is approved. The accountant is the final stage.
var ReviewerChain = []StaffRole{
	RoleFaculty,
	RoleVicePrincipal,
	RolePrincipal,
	RoleAccountant,
}

// IsValid reports whether the role belongs to the reviewer chain.
func (r StaffRole) IsValid() bool {
	for _, role := range ReviewerChain {
		if role == r {
			return true
		}
	}
	return false
}

// NextReviewer returns the role that follows r in the chain. The second
// return value is false when r is the final stage or unknown.
func NextReviewer(r StaffRole) (StaffRole, bool) {
	for i, role := range ReviewerChain {
		if role == r {
			if i+1 < len(ReviewerChain) {
				return ReviewerChain[i+1], true
			}
			return "", false
		}
	}
	return "", false
}

// StaffStatus is the review status of a document.
type StaffStatus string

const (
	StatusPending     StaffStatus = "pending"
	StatusUnderReview StaffStatus = "under_review"
	StatusApproved    StaffStatus = "approved"
	StatusRejected    StaffStatus = "rejected"
)

// IsValid reports whether the status is one of the known statuses.
func (s StaffStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Decision is a reviewer's verdict on a document at their stage.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Allowed MIME types for bill attachments.
const (
	MimePDF  = "application/pdf"
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
)

// AllowedMimeTypes lists the attachment content types the portal accepts.
var AllowedMimeTypes = map[string]bool{
	MimePDF:  true,
	MimeJPEG: true,
	MimePNG:  true,
}
