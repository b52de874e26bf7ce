package task

import "firetechnics/site/internal/domain"

const TypeContactInquiry = "ContactInquiryTask"

// ContactInquiryTask delivers one contact form submission to the email relay.
type ContactInquiryTask struct {
	Inquiry domain.Inquiry `json:"inquiry"`
	Attempt int            `json:"attempt"`
	Error   string         `json:"error,omitempty"` // last delivery failure
}

func (t *ContactInquiryTask) TaskType() string {
	return TypeContactInquiry
}

func (t *ContactInquiryTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
