package submission

// Failure is one element the backend refused
type Failure struct {
	ElementID    string `json:"elementId"`
	ErrorMessage string `json:"errorMessage"`
}

// Response is the backend's reply to a publish or undo request
type Response struct {
	Success  bool      `json:"success"`
	Failures []Failure `json:"failures,omitempty"`
}

// PartialFailure reports whether some elements were refused
func (r *Response) PartialFailure() bool {
	return len(r.Failures) > 0
}

// Outcome is the result of a submission after marks were reconciled
type Outcome struct {
	SnapshotID string    `json:"snapshotId"`
	Action     string    `json:"action"`
	Sent       int       `json:"sent"`
	Success    bool      `json:"success"`
	Failures   []Failure `json:"failures,omitempty"`
	Cleared    []string  `json:"cleared,omitempty"`
}
