package kafka

import (
	"reflect"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestParseBrokers(t *testing.T) {
	tests := []struct {
		name    string
		brokers string
		want    []string
	}{
		{name: "empty", brokers: "", want: nil},
		{name: "single", brokers: "localhost:9092", want: []string{"localhost:9092"}},
		{name: "multiple with spaces", brokers: "localhost:9092, localhost:9093", want: []string{"localhost:9092", "localhost:9093"}},
		{name: "trailing comma", brokers: "localhost:9092,", want: []string{"localhost:9092"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseBrokers(tt.brokers)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseBrokers(%q) = %v, want %v", tt.brokers, got, tt.want)
			}
		})
	}
}

func TestValidateConsumerParams(t *testing.T) {
	tests := []struct {
		name    string
		brokers string
		topic   string
		groupID string
		errMsg  string
	}{
		{name: "valid", brokers: "localhost:9092", topic: "report-request-topic", groupID: "report-service-group"},
		{name: "empty brokers", brokers: "", topic: "t", groupID: "g", errMsg: "brokers cannot be empty"},
		{name: "empty topic", brokers: "localhost:9092", topic: "", groupID: "g", errMsg: "topic cannot be empty"},
		{name: "empty group", brokers: "localhost:9092", topic: "t", groupID: "", errMsg: "groupID cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConsumerParams(tt.brokers, tt.topic, tt.groupID)
			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("ValidateConsumerParams() unexpected error = %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.errMsg {
				t.Errorf("ValidateConsumerParams() error = %v, want %q", err, tt.errMsg)
			}
		})
	}
}

func TestValidateProducerParams(t *testing.T) {
	if err := ValidateProducerParams("localhost:9092", "report-created-event"); err != nil {
		t.Errorf("ValidateProducerParams() unexpected error = %v", err)
	}
	if err := ValidateProducerParams(" ", "t"); err == nil || err.Error() != "brokers cannot be empty" {
		t.Errorf("ValidateProducerParams() error = %v, want brokers cannot be empty", err)
	}
	if err := ValidateProducerParams("localhost:9092", ""); err == nil || err.Error() != "topic cannot be empty" {
		t.Errorf("ValidateProducerParams() error = %v, want topic cannot be empty", err)
	}
}

func TestNewReaderConfig(t *testing.T) {
	cfg := NewReaderConfig([]string{"localhost:9092"}, "report-request-topic", "report-service-group")

	if cfg.GroupID != "report-service-group" {
		t.Errorf("GroupID = %q, want report-service-group", cfg.GroupID)
	}
	if cfg.CommitInterval != 0 {
		t.Errorf("CommitInterval = %v, want 0 (synchronous commits)", cfg.CommitInterval)
	}
	if cfg.StartOffset != kafka.FirstOffset {
		t.Errorf("StartOffset = %v, want FirstOffset", cfg.StartOffset)
	}
	if cfg.MaxWait != MaxBrokerWait {
		t.Errorf("MaxWait = %v, want %v", cfg.MaxWait, MaxBrokerWait)
	}
}

func TestNewWriter(t *testing.T) {
	w := NewWriter([]string{"localhost:9092"}, "report-created-event")
	defer w.Close()

	if w.Topic != "report-created-event" {
		t.Errorf("Topic = %q, want report-created-event", w.Topic)
	}
	if w.RequiredAcks != kafka.RequireOne {
		t.Errorf("RequiredAcks = %v, want RequireOne", w.RequiredAcks)
	}
	if w.Async {
		t.Error("Async = true, want synchronous writes")
	}
}
