package entity

type ServiceLevel string

const (
	Free    ServiceLevel = "free"
	Premium ServiceLevel = "premium"
)

func ParseServiceLevel(s string) (ServiceLevel, bool) {
	switch ServiceLevel(s) {
	case Free, Premium:
		return ServiceLevel(s), true
	}
	return "", false
}

// OCRTopic is the queue feeding the OCR stage of this tier.
func (l ServiceLevel) OCRTopic() string {
	return string(l) + "-ocr"
}

// TranslationTopic is the queue feeding the translation stage of this tier.
func (l ServiceLevel) TranslationTopic() string {
	return string(l) + "-translation"
}

// Subscription names the consumer group of the worker pool reading topic.
func Subscription(topic string) string {
	return topic + "-workers"
}

type User struct {
	Username     string       `json:"username"`
	ServiceLevel ServiceLevel `json:"service_level"`
}
