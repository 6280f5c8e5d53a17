package enums

import "fmt"

// NotificationEvent names a workflow milestone that triggers applicant messaging.
type NotificationEvent string

const (
	NotifyApplicationSubmitted NotificationEvent = "application_submitted"
	NotifySentBack             NotificationEvent = "sent_back_for_corrections"
	NotifyReverted             NotificationEvent = "reverted_to_applicant"
	NotifyInspectionScheduled  NotificationEvent = "inspection_scheduled"
	NotifyVerifiedForPayment   NotificationEvent = "verified_for_payment"
	NotifyPaymentConfirmed     NotificationEvent = "payment_confirmed"
	NotifyCertificateIssued    NotificationEvent = "certificate_issued"
	NotifyApplicationRejected  NotificationEvent = "application_rejected"
)

var validNotificationEvents = []NotificationEvent{
	NotifyApplicationSubmitted,
	NotifySentBack,
	NotifyReverted,
	NotifyInspectionScheduled,
	NotifyVerifiedForPayment,
	NotifyPaymentConfirmed,
	NotifyCertificateIssued,
	NotifyApplicationRejected,
}

// NotificationEvents returns every known event type.
func NotificationEvents() []NotificationEvent {
	out := make([]NotificationEvent, len(validNotificationEvents))
	copy(out, validNotificationEvents)
	return out
}

// String implements fmt.Stringer.
func (n NotificationEvent) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationEvent.
func (n NotificationEvent) IsValid() bool {
	for _, candidate := range validNotificationEvents {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationEvent converts raw input into a NotificationEvent.
func ParseNotificationEvent(value string) (NotificationEvent, error) {
	for _, candidate := range validNotificationEvents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification event %q", value)
}

// NotificationChannel selects how a message reaches the applicant.
type NotificationChannel string

const (
	ChannelSMS   NotificationChannel = "sms"
	ChannelEmail NotificationChannel = "email"
)

// OutboxStatus tracks delivery of a queued notification event.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusParked    OutboxStatus = "parked"
)
