package domain

// Session is the authenticated identity held by the client. It is either a
// *ReferralAgentSession or a *StaffSession.
type Session interface {
	Type() SessionType
	AccessToken() string
	Subject() ID
	isSession()
}

// ReferralAgentSession belongs to an independent referral agent. It never
// carries a role or a company.
type ReferralAgentSession struct {
	Token  string
	UserID ID
}

func (s *ReferralAgentSession) Type() SessionType   { return SessionTypeReferralAgent }
func (s *ReferralAgentSession) AccessToken() string { return s.Token }
func (s *ReferralAgentSession) Subject() ID         { return s.UserID }
func (*ReferralAgentSession) isSession()            {}

// StaffSession belongs to a company CRM user. Role is RoleNone when the
// server label did not map.
type StaffSession struct {
	Token     string
	UserID    ID
	Role      Role
	CompanyID ID
}

func (s *StaffSession) Type() SessionType   { return SessionTypeCompanyStaff }
func (s *StaffSession) AccessToken() string { return s.Token }
func (s *StaffSession) Subject() ID         { return s.UserID }
func (*StaffSession) isSession()            {}

// RoleOf returns the role carried by s, or RoleNone.
func RoleOf(s Session) Role {
	if staff, ok := s.(*StaffSession); ok && staff != nil {
		return staff.Role
	}
	return RoleNone
}

// SessionRecord is the flat persisted shape of a Session.
type SessionRecord struct {
	SessionType SessionType `json:"sessionType"`
	Token       string      `json:"token"`
	UserID      ID          `json:"userId"`
	Role        Role        `json:"role,omitempty"`
	CompanyID   ID          `json:"companyId,omitempty"`
}

// RecordOf flattens s for persistence.
func RecordOf(s Session) SessionRecord {
	switch v := s.(type) {
	case *ReferralAgentSession:
		return SessionRecord{SessionType: SessionTypeReferralAgent, Token: v.Token, UserID: v.UserID}
	case *StaffSession:
		return SessionRecord{
			SessionType: SessionTypeCompanyStaff,
			Token:       v.Token,
			UserID:      v.UserID,
			Role:        v.Role,
			CompanyID:   v.CompanyID,
		}
	default:
		return SessionRecord{}
	}
}

// Session rebuilds the typed session. It returns false when the record is
// missing sessionType, token or userId. A stored role outside the closed set
// is dropped to RoleNone.
func (r SessionRecord) Session() (Session, bool) {
	if r.Token == "" || r.UserID.IsZero() {
		return nil, false
	}
	switch r.SessionType {
	case SessionTypeReferralAgent:
		return &ReferralAgentSession{Token: r.Token, UserID: r.UserID}, true
	case SessionTypeCompanyStaff:
		role := r.Role
		if !role.Known() {
			role = RoleNone
		}
		return &StaffSession{Token: r.Token, UserID: r.UserID, Role: role, CompanyID: r.CompanyID}, true
	default:
		return nil, false
	}
}
