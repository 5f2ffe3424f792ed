package models

// Notification is one message handed to the push relay
type Notification struct {
	Topic        string
	Title        string
	Body         string
	Tags         []string
	ExtraHeaders map[string]string
}
