package notifier

import "github.com/aleister1102/releasewatch/internal/models"

// NotificationBuilder helps in constructing models.Notification values
type NotificationBuilder struct {
	n models.Notification
}

// NewNotificationBuilder creates a builder for a message on topic
func NewNotificationBuilder(topic string) *NotificationBuilder {
	return &NotificationBuilder{
		n: models.Notification{Topic: topic, ExtraHeaders: map[string]string{}},
	}
}

// WithTitle sets the Title header
func (b *NotificationBuilder) WithTitle(title string) *NotificationBuilder {
	b.n.Title = title
	return b
}

// WithBody sets the message body, truncated to what the relay accepts
func (b *NotificationBuilder) WithBody(body string) *NotificationBuilder {
	b.n.Body = truncateString(body, MaxMessageBodyLength)
	return b
}

// WithTags sets the Tags header
func (b *NotificationBuilder) WithTags(tags ...string) *NotificationBuilder {
	b.n.Tags = append([]string(nil), tags...)
	return b
}

// WithClick sets the URL opened when the notification is tapped
func (b *NotificationBuilder) WithClick(url string) *NotificationBuilder {
	return b.WithHeader("Click", url)
}

// WithIcon sets the notification icon
func (b *NotificationBuilder) WithIcon(url string) *NotificationBuilder {
	return b.WithHeader("Icon", url)
}

// WithHeader adds an extra header. Empty values are ignored.
func (b *NotificationBuilder) WithHeader(key, value string) *NotificationBuilder {
	if value != "" {
		b.n.ExtraHeaders[key] = value
	}
	return b
}

// Build returns the constructed notification
func (b *NotificationBuilder) Build() models.Notification {
	return b.n
}
