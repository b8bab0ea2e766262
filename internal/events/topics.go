package events

// Topic constants for events emitted by the storefront.
const (
	TopicCouponApplied     = "coupon.applied"
	TopicCouponRejected    = "coupon.rejected"
	TopicReferralDetected  = "referral.detected"
	TopicCheckoutSubmitted = "checkout.submitted"
)

// DefaultTopics returns the canonical list of topics.
func DefaultTopics() []string {
	return []string{
		TopicCouponApplied,
		TopicCouponRejected,
		TopicReferralDetected,
		TopicCheckoutSubmitted,
	}
}
