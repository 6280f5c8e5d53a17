package notifications

import (
	"fmt"

	"github.com/hptourism/homestay-portal/pkg/enums"
)

// Channel names a delivery route for a notification event.
type Channel string

const (
	ChannelSMS    Channel = "sms"
	ChannelPubSub Channel = "pubsub"
)

// Template binds an event to its delivery channels and DLT-registered SMS
// template. Message text must match the registered template word for word,
// with only the variable slots filled in.
type Template struct {
	SMSTemplateID string
	Channels      []Channel
	Render        func(data EventData) string
}

// EventData is the payload the workflow engine queues with each event.
type EventData struct {
	ApplicationNumber string  `json:"application_number"`
	PreviousStatus    string  `json:"previous_status"`
	NewStatus         string  `json:"new_status"`
	OwnerMobile       string  `json:"owner_mobile"`
	Remarks           *string `json:"remarks"`
}

var templates = map[enums.NotificationEvent]Template{
	enums.NotifyApplicationSubmitted: {
		SMSTemplateID: "1107170000000001",
		Channels:      []Channel{ChannelSMS, ChannelPubSub},
		Render: func(d EventData) string {
			return fmt.Sprintf("Your homestay application %s has been submitted and is pending scrutiny. - HP Tourism", d.ApplicationNumber)
		},
	},
	enums.NotifySentBack: {
		SMSTemplateID: "1107170000000002",
		Channels:      []Channel{ChannelSMS, ChannelPubSub},
		Render: func(d EventData) string {
			return fmt.Sprintf("Your homestay application %s needs corrections: %s. Please resubmit on the portal. - HP Tourism", d.ApplicationNumber, remarksOrDefault(d))
		},
	},
	enums.NotifyReverted: {
		SMSTemplateID: "1107170000000003",
		Channels:      []Channel{ChannelSMS, ChannelPubSub},
		Render: func(d EventData) string {
			return fmt.Sprintf("Your homestay application %s has been returned for clarification: %s. - HP Tourism", d.ApplicationNumber, remarksOrDefault(d))
		},
	},
	enums.NotifyInspectionScheduled: {
		SMSTemplateID: "1107170000000004",
		Channels:      []Channel{ChannelSMS, ChannelPubSub},
		Render: func(d EventData) string {
			return fmt.Sprintf("A site inspection has been scheduled for your homestay application %s. - HP Tourism", d.ApplicationNumber)
		},
	},
	enums.NotifyVerifiedForPayment: {
		SMSTemplateID: "1107170000000005",
		Channels:      []Channel{ChannelSMS, ChannelPubSub},
		Render: func(d EventData) string {
			return fmt.Sprintf("Your homestay application %s is verified. Please pay the registration fee on the portal. - HP Tourism", d.ApplicationNumber)
		},
	},
	enums.NotifyPaymentConfirmed: {
		SMSTemplateID: "1107170000000006",
		Channels:      []Channel{ChannelSMS, ChannelPubSub},
		Render: func(d EventData) string {
			return fmt.Sprintf("Payment received for homestay application %s. Your registration is approved. - HP Tourism", d.ApplicationNumber)
		},
	},
	enums.NotifyCertificateIssued: {
		SMSTemplateID: "1107170000000007",
		Channels:      []Channel{ChannelSMS, ChannelPubSub},
		Render: func(d EventData) string {
			return fmt.Sprintf("Your homestay registration certificate for application %s is ready for download. - HP Tourism", d.ApplicationNumber)
		},
	},
	enums.NotifyApplicationRejected: {
		SMSTemplateID: "1107170000000008",
		Channels:      []Channel{ChannelSMS, ChannelPubSub},
		Render: func(d EventData) string {
			return fmt.Sprintf("Your homestay application %s has been rejected: %s. - HP Tourism", d.ApplicationNumber, remarksOrDefault(d))
		},
	},
}

// TemplateFor resolves the delivery template for an event type.
func TemplateFor(event enums.NotificationEvent) (Template, bool) {
	tpl, ok := templates[event]
	return tpl, ok
}

func remarksOrDefault(d EventData) string {
	if d.Remarks != nil && *d.Remarks != "" {
		return *d.Remarks
	}
	return "see portal for details"
}
