package privacy

import "strings"

// MaskPhoneNumber masks a phone number showing only the last 4 digits.
// Example: "+1234567890" -> "+******7890"
func MaskPhoneNumber(phone string) string {
	if phone == "" {
		return ""
	}

	if strings.HasPrefix(phone, "+") {
		if len(phone) <= 5 {
			return "+" + strings.Repeat("*", len(phone)-1)
		}
		return "+" + strings.Repeat("*", len(phone)-5) + phone[len(phone)-4:]
	}

	if len(phone) <= 4 {
		return strings.Repeat("*", len(phone))
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

// MaskMessageID masks a platform message ID while keeping enough of the
// prefix and suffix to correlate log lines during debugging.
func MaskMessageID(messageID string) string {
	if messageID == "" {
		return ""
	}
	if len(messageID) <= 8 {
		return strings.Repeat("*", len(messageID))
	}
	return messageID[:4] + strings.Repeat("*", len(messageID)-8) + messageID[len(messageID)-4:]
}
