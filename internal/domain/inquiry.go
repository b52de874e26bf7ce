package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Inquiry is a contact form submission handed to the email relay.
type Inquiry struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Program     string    `json:"program,omitempty"`
	Message     string    `json:"message"`
	Lang        Language  `json:"lang"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Normalize trims every free-text field.
func (i *Inquiry) Normalize() {
	i.Name = strings.TrimSpace(i.Name)
	i.Email = strings.TrimSpace(i.Email)
	i.Phone = strings.TrimSpace(i.Phone)
	i.Program = strings.TrimSpace(i.Program)
	i.Message = strings.TrimSpace(i.Message)
}

// Validate requires name, a well-formed email and a message.
func (i Inquiry) Validate() error {
	if i.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInquiry)
	}
	if i.Message == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidInquiry)
	}
	addr, err := mail.ParseAddress(i.Email)
	if err != nil || addr.Address != i.Email {
		return fmt.Errorf("%w: email is malformed", ErrInvalidInquiry)
	}
	return nil
}
