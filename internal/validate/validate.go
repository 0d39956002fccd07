// Package validate gates checkout step progression. Validation is
// synchronous and all-or-nothing: a single failing field blocks submission,
// and each failing field carries its own message. ValidateField supports
// live per-field validation as the user types.
package validate

import (
	"regexp"
	"strings"

	"github.com/JoseFeliciano-spec/tienda-storefront/internal/domain"
)

// Field names, matching the PaymentForm JSON tags.
const (
	FieldCardNumber     = "card_number"
	FieldExpiryDate     = "expiry_date"
	FieldCVV            = "cvv"
	FieldCardholderName = "cardholder_name"
	FieldDocumentType   = "document_type"
	FieldDocumentNumber = "document_number"
	FieldFirstName      = "first_name"
	FieldLastName       = "last_name"
	FieldEmail          = "email"
	FieldPhone          = "phone"
	FieldAddress        = "address"
	FieldCity           = "city"
)

var fields = []string{
	FieldCardNumber, FieldExpiryDate, FieldCVV, FieldCardholderName,
	FieldDocumentType, FieldDocumentNumber, FieldFirstName, FieldLastName,
	FieldEmail, FieldPhone, FieldAddress, FieldCity,
}

// DocumentTypes is the fixed set of accepted identity document types.
var DocumentTypes = []string{"CC", "CE", "NIT", "PP"}

var (
	expiryRe = regexp.MustCompile(`^\d{2}/\d{2}$`)
	cvvRe    = regexp.MustCompile(`^\d{3,4}$`)
	emailRe  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Errors maps field name to a human-readable message. Empty means valid.
type Errors map[string]string

func (e Errors) Valid() bool {
	return len(e) == 0
}

// Validate checks the whole form. Any non-empty result blocks submission.
func Validate(f domain.PaymentForm) Errors {
	errs := Errors{}
	for _, field := range fields {
		if msg := ValidateField(f, field); msg != "" {
			errs[field] = msg
		}
	}
	return errs
}

// ValidateField checks a single field and returns its message, or "" when
// the field is valid.
func ValidateField(f domain.PaymentForm, field string) string {
	switch field {
	case FieldCardNumber:
		return validateCardNumber(f.CardNumber)
	case FieldExpiryDate:
		if !expiryRe.MatchString(f.ExpiryDate) {
			return "expiry date must be MM/YY"
		}
	case FieldCVV:
		if !cvvRe.MatchString(f.CVV) {
			return "CVV must be 3 or 4 digits"
		}
	case FieldCardholderName:
		return minLen(f.CardholderName, 2, "cardholder name")
	case FieldDocumentType:
		for _, dt := range DocumentTypes {
			if f.DocumentType == dt {
				return ""
			}
		}
		return "document type must be one of CC, CE, NIT, PP"
	case FieldDocumentNumber:
		return minLen(f.DocumentNumber, 6, "document number")
	case FieldFirstName:
		return minLen(f.FirstName, 2, "first name")
	case FieldLastName:
		return minLen(f.LastName, 2, "last name")
	case FieldEmail:
		if !emailRe.MatchString(f.Email) {
			return "email is invalid"
		}
	case FieldPhone:
		return minLen(f.Phone, 10, "phone")
	case FieldAddress:
		return minLen(f.Address, 10, "address")
	case FieldCity:
		return minLen(f.City, 2, "city")
	}
	return ""
}

func validateCardNumber(number string) string {
	cleaned := strings.ReplaceAll(number, " ", "")
	if len(cleaned) < 13 || len(cleaned) > 19 {
		return "card number must be 13 to 19 digits"
	}
	if !luhnValid(cleaned) {
		return "card number is invalid"
	}
	return ""
}

// luhnValid runs the Luhn checksum: doubling every second digit from the
// right, subtracting 9 from doubled digits above 9, sum mod 10 must be 0.
func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		digit := int(c - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}

func minLen(value string, min int, name string) string {
	if len(strings.TrimSpace(value)) < min {
		return name + " is too short"
	}
	return ""
}
