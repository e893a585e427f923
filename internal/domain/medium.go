package domain

// Medium is the channel a communication travelled over.
type Medium string

const (
	MediumEmail Medium = "Email"
	MediumSMS   Medium = "SMS"
	MediumPhone Medium = "Phone"
	MediumChat  Medium = "Chat"
	MediumOther Medium = "Other"

	// MediumAll is only valid as a room-list filter, never on a record.
	MediumAll Medium = "All"
)

func (m Medium) Valid() bool {
	switch m {
	case MediumEmail, MediumSMS, MediumPhone, MediumChat, MediumOther:
		return true
	}
	return false
}

// UsesPhoneNumber reports whether the counterparty address for this medium
// is a phone number rather than an email address.
func (m Medium) UsesPhoneNumber() bool {
	return m == MediumSMS || m == MediumPhone
}

// Direction marks a communication as outbound or inbound.
type Direction string

const (
	DirectionSent     Direction = "Sent"
	DirectionReceived Direction = "Received"
)
