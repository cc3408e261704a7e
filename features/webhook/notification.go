package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"recsync/internal/catalog"
)

var ErrMalformedPayload = errors.New("malformed webhook payload")

type Action string

const (
	ActionPublished   Action = "published"
	ActionUnpublished Action = "unpublished"
)

const ObjectTypeContentItem = "content_item"

// ItemRef is the item summary carried by a notification.
type ItemRef struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Codename     string `json:"codename"`
	Type         string `json:"type"`
	Language     string `json:"language"`
	Collection   string `json:"collection"`
	Workflow     string `json:"workflow"`
	LastModified string `json:"last_modified"`
}

type Notification struct {
	Action        Action
	ObjectType    string
	EnvironmentID string
	DeliverySlot  string
	Item          ItemRef
}

// Key identifies the catalog item the notification refers to.
func (n Notification) Key() string {
	return catalog.ItemID(n.Item.ID, n.Item.Language)
}

type payload struct {
	Notifications []struct {
		Data struct {
			System ItemRef `json:"system"`
		} `json:"data"`
		Message struct {
			EnvironmentID string `json:"environment_id"`
			ObjectType    string `json:"object_type"`
			Action        Action `json:"action"`
			DeliverySlot  string `json:"delivery_slot"`
		} `json:"message"`
	} `json:"notifications"`
}

// DecodeNotifications parses a Kontent webhook body, keeping payload order.
func DecodeNotifications(body []byte) ([]Notification, error) {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	out := make([]Notification, 0, len(p.Notifications))
	for _, n := range p.Notifications {
		out = append(out, Notification{
			Action:        n.Message.Action,
			ObjectType:    n.Message.ObjectType,
			EnvironmentID: n.Message.EnvironmentID,
			DeliverySlot:  n.Message.DeliverySlot,
			Item:          n.Data.System,
		})
	}
	return out, nil
}

// ParseList splits a comma separated query value, dropping blanks.
func ParseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
