package poll

// Reason explains why a vote was not accepted. The set is closed: codes
// the client does not know become ReasonUnknown.
type Reason int

const (
	ReasonUnknown Reason = iota
	ReasonAlreadyVoted
	ReasonInvalidOption
	ReasonPollNotFound
)

var reasonCodes = map[Reason]string{
	ReasonUnknown:       "UNKNOWN",
	ReasonAlreadyVoted:  "ALREADY_VOTED",
	ReasonInvalidOption: "INVALID_OPTION",
	ReasonPollNotFound:  "POLL_NOT_FOUND",
}

// String returns the wire code of the reason
func (r Reason) String() string {
	if code, ok := reasonCodes[r]; ok {
		return code
	}
	return reasonCodes[ReasonUnknown]
}

// ParseReason maps a server code to a Reason
func ParseReason(code string) Reason {
	switch code {
	case "ALREADY_VOTED":
		return ReasonAlreadyVoted
	case "INVALID_OPTION":
		return ReasonInvalidOption
	case "POLL_NOT_FOUND":
		return ReasonPollNotFound
	default:
		return ReasonUnknown
	}
}

// MarshalText implements encoding.TextMarshaler
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler; unknown codes never fail
func (r *Reason) UnmarshalText(text []byte) error {
	*r = ParseReason(string(text))
	return nil
}
