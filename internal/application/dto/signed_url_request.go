package dto

import (
	"encoding/json"
	"fmt"
)

// SignedURLRequest запрос пачки подписанных URL. Имена полей JSON фиксированы протоколом сервиса выдачи.
type SignedURLRequest struct {
	IoTEndpoint string `json:"iotEndpoint"`
	Bucket      string `json:"bucket"`
	URLCount    int    `json:"urlCount"`
	ReplyTo     string `json:"replyTo"`
}

// DecodeSignedURLResponse разбирает ответ сервиса выдачи: JSON-массив строк URL
func DecodeSignedURLResponse(payload []byte) ([]string, error) {
	var urls []string
	if err := json.Unmarshal(payload, &urls); err != nil {
		return nil, fmt.Errorf("invalid signed URL response: %w", err)
	}
	return urls, nil
}
