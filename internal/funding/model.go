// File: internal/funding/model.go
package funding

// CheckoutRequest starts a support donation.
type CheckoutRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0,lte=1000000"`
}

// checkoutBody is what the backend expects to open a payment session.
type checkoutBody struct {
	Name               string  `json:"name"`
	Email              string  `json:"email"`
	Amount             float64 `json:"amount"`
	DonationTrackingID string  `json:"donationTrackingId"`
}

// CheckoutSession is where the user pays.
type CheckoutSession struct {
	URL        string `json:"url"`
	TrackingID string `json:"donation_tracking_id"`
}

// Summary is the funding page header.
type Summary struct {
	TotalPaid float64 `json:"total_paid"`
	Count     int     `json:"count"`
}
