package enums

import "fmt"

// WebhookTopic names the Shopify webhook subscriptions the app consumes.
type WebhookTopic string

const (
	WebhookTopicOrdersPaid           WebhookTopic = "orders/paid"
	WebhookTopicOrdersUpdated        WebhookTopic = "orders/updated"
	WebhookTopicAppUninstalled       WebhookTopic = "app/uninstalled"
	WebhookTopicCustomersRedact      WebhookTopic = "customers/redact"
	WebhookTopicShopRedact           WebhookTopic = "shop/redact"
	WebhookTopicCustomersDataRequest WebhookTopic = "customers/data_request"
)

var validWebhookTopics = []WebhookTopic{
	WebhookTopicOrdersPaid,
	WebhookTopicOrdersUpdated,
	WebhookTopicAppUninstalled,
	WebhookTopicCustomersRedact,
	WebhookTopicShopRedact,
	WebhookTopicCustomersDataRequest,
}

// String implements fmt.Stringer.
func (w WebhookTopic) String() string {
	return string(w)
}

// IsValid reports whether the value is known.
func (w WebhookTopic) IsValid() bool {
	for _, candidate := range validWebhookTopics {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWebhookTopic converts the X-Shopify-Topic header into a WebhookTopic.
func ParseWebhookTopic(value string) (WebhookTopic, error) {
	for _, candidate := range validWebhookTopics {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid webhook topic %q", value)
}
