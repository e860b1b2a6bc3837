package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/iyunix/go-lostfound/internal/domain"
)

// CodeEvent asks the mailer to deliver a verification code.
type CodeEvent struct {
	Email   string                      `json:"email"`
	Purpose domain.VerificationCodeType `json:"purpose"`
	Code    string                      `json:"code"`
	Subject string                      `json:"subject"`
	SentAt  time.Time                   `json:"sent_at"`
}

func codeSubject(purpose domain.VerificationCodeType) string {
	if purpose == domain.VerificationTypePassword {
		return "Reset your password"
	}
	return "Your sign-in code"
}

// KafkaCodeSender hands codes to the mailer over Kafka. Writes are
// synchronous so a failed hand-off is reported to the requester.
type KafkaCodeSender struct {
	w   messageWriter
	now func() time.Time
}

func NewKafkaCodeSender(brokers, topic string) (*KafkaCodeSender, error) {
	w, err := newWriter(brokers, topic)
	if err != nil {
		return nil, err
	}
	w.BatchSize = 1
	return &KafkaCodeSender{w: w, now: time.Now}, nil
}

func (s *KafkaCodeSender) SendCode(ctx context.Context, email string, purpose domain.VerificationCodeType, code string) error {
	now := s.now().UTC()
	payload, err := json.Marshal(CodeEvent{
		Email:   email,
		Purpose: purpose,
		Code:    code,
		Subject: codeSubject(purpose),
		SentAt:  now,
	})
	if err != nil {
		return fmt.Errorf("encode code event: %w", err)
	}
	return s.w.WriteMessages(ctx, kafka.Message{Key: []byte(email), Value: payload, Time: now})
}

func (s *KafkaCodeSender) Close() error { return s.w.Close() }
