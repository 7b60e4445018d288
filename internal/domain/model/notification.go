package model

import (
	"encoding/json"
	"strings"
)

type NotificationKind string

const (
	NotificationKindPayment NotificationKind = "payment"
	NotificationKindOrder   NotificationKind = "merchant_order"
	NotificationKindUnknown NotificationKind = ""
)

// GatewayNotification is the decoded inbound webhook event. MercadoPago
// delivers two envelope shapes: the newer one carries "type" and
// "data.id", the IPN one carries "topic" and a "resource" URL whose last
// path segment is the id. Both are normalized here.
type GatewayNotification struct {
	Kind       NotificationKind
	ResourceID string
}

type notificationEnvelope struct {
	Type     string `json:"type"`
	Topic    string `json:"topic"`
	Resource string `json:"resource"`
	Data     struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// ParseGatewayNotification decodes a webhook body. An unrecognized or
// empty event yields KindUnknown, which callers acknowledge and drop.
func ParseGatewayNotification(body []byte) GatewayNotification {
	var env notificationEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return GatewayNotification{Kind: NotificationKindUnknown}
	}
	return env.normalize()
}

func (env notificationEnvelope) normalize() GatewayNotification {
	kind := NotificationKindUnknown
	switch {
	case env.Type == "payment" || env.Topic == "payment":
		kind = NotificationKindPayment
	case env.Type == "merchant_order" || env.Topic == "merchant_order":
		kind = NotificationKindOrder
	}

	id := env.Data.ID.String()
	if id == "" && env.Resource != "" {
		parts := strings.Split(strings.TrimRight(env.Resource, "/"), "/")
		id = parts[len(parts)-1]
	}
	if id == "" {
		kind = NotificationKindUnknown
	}
	return GatewayNotification{Kind: kind, ResourceID: id}
}
