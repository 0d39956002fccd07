package domain

type CheckoutStep string

const (
	StepPayment    CheckoutStep = "payment"
	StepSummary    CheckoutStep = "summary"
	StepProcessing CheckoutStep = "processing"
	StepResult     CheckoutStep = "result"
)

func (s CheckoutStep) String() string {
	return string(s)
}

// allowedSteps defines the valid step transitions. The key is the current
// step, the value the set of steps reachable from it. "result" -> "summary"
// is only taken on a declined or errored transaction (manual retry).
var allowedSteps = map[CheckoutStep][]CheckoutStep{
	StepPayment:    {StepSummary},
	StepSummary:    {StepPayment, StepProcessing},
	StepProcessing: {StepResult},
	StepResult:     {StepSummary},
}

func CanTransition(from, to CheckoutStep) bool {
	for _, s := range allowedSteps[from] {
		if s == to {
			return true
		}
	}
	return false
}

// PaymentForm carries the card and delivery fields collected during the
// payment step. Validated by internal/validate before any step progression.
type PaymentForm struct {
	CardNumber     string `json:"card_number"`
	ExpiryDate     string `json:"expiry_date"`
	CVV            string `json:"cvv"`
	CardholderName string `json:"cardholder_name"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	City           string `json:"city"`
}

func (f PaymentForm) Delivery() DeliveryInfo {
	return DeliveryInfo{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Email:     f.Email,
		Phone:     f.Phone,
		Address:   f.Address,
		City:      f.City,
	}
}
