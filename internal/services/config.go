package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Lllllllleong/documentanalytics/internal/analysis"
	"github.com/Lllllllleong/documentanalytics/internal/gcp"
	"github.com/Lllllllleong/documentanalytics/internal/store"
)

// Record store and notifier backends selectable through the environment.
const (
	RecordStoreFirestore = "firestore"
	RecordStoreRedis     = "redis"

	NotifierPubSub = "pubsub"
	NotifierKafka  = "kafka"
)

const defaultMaxStoredTextBytes = 200000

// StoreConfig selects and configures the record store.
type StoreConfig struct {
	RecordStore    string
	CollectionName string
	RedisAddr      string
	RedisKeyPrefix string
}

// NotifierConfig selects and configures the notification backend.
type NotifierConfig struct {
	NotifierBackend string
	TopicID         string
	KafkaBrokers    []string
	KafkaTopic      string
}

// ProcessorConfig holds configuration for the document-processor service.
type ProcessorConfig struct {
	ProjectID string
	StoreConfig
	NotifierConfig
	WorkflowID         string
	WorkflowLocation   string
	TopK               int
	MaxStoredTextBytes int
}

// AnalyzerConfig holds configuration for the document-analyzer service.
type AnalyzerConfig struct {
	ProjectID string
	StoreConfig
	NotifierConfig
	TopK int
}

// UploadNotifierConfig holds configuration for the upload-notifier service.
type UploadNotifierConfig struct {
	ProjectID string
	NotifierConfig
}

// LoadProcessorConfig loads and validates the processor environment.
func LoadProcessorConfig() (*ProcessorConfig, error) {
	topK, err := getInt("TOP_K", analysis.DefaultTopK)
	if err != nil {
		return nil, err
	}
	maxStoredTextBytes, err := getInt("MAX_STORED_TEXT_BYTES", defaultMaxStoredTextBytes)
	if err != nil {
		return nil, err
	}

	c := &ProcessorConfig{
		ProjectID:          gcp.GetEnv("PROJECT_ID", ""),
		StoreConfig:        loadStoreConfig(),
		NotifierConfig:     loadNotifierConfig("TOPIC_ID"),
		WorkflowID:         gcp.GetEnv("ANALYZER_WORKFLOW_ID", ""),
		WorkflowLocation:   gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		TopK:               topK,
		MaxStoredTextBytes: maxStoredTextBytes,
	}

	if err := c.StoreConfig.validate(c.ProjectID); err != nil {
		return nil, err
	}
	if err := c.NotifierConfig.validate(c.ProjectID, "TOPIC_ID"); err != nil {
		return nil, err
	}
	if c.WorkflowID != "" && c.ProjectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set when ANALYZER_WORKFLOW_ID is set")
	}
	if c.TopK <= 0 {
		return nil, fmt.Errorf("TOP_K must be positive")
	}
	if c.MaxStoredTextBytes <= 0 {
		return nil, fmt.Errorf("MAX_STORED_TEXT_BYTES must be positive")
	}
	return c, nil
}

// LoadAnalyzerConfig loads and validates the document-analyzer environment.
// Reports go to REPORT_TOPIC_ID, falling back to TOPIC_ID.
func LoadAnalyzerConfig() (*AnalyzerConfig, error) {
	topicVar := "REPORT_TOPIC_ID"
	if gcp.GetEnv(topicVar, "") == "" {
		topicVar = "TOPIC_ID"
	}
	topK, err := getInt("TOP_K", 5)
	if err != nil {
		return nil, err
	}

	c := &AnalyzerConfig{
		ProjectID:      gcp.GetEnv("PROJECT_ID", ""),
		StoreConfig:    loadStoreConfig(),
		NotifierConfig: loadNotifierConfig(topicVar),
		TopK:           topK,
	}

	if err := c.StoreConfig.validate(c.ProjectID); err != nil {
		return nil, err
	}
	if err := c.NotifierConfig.validate(c.ProjectID, topicVar); err != nil {
		return nil, err
	}
	if c.TopK <= 0 {
		return nil, fmt.Errorf("TOP_K must be positive")
	}
	return c, nil
}

// LoadUploadNotifierConfig loads and validates the upload-notifier environment.
func LoadUploadNotifierConfig() (*UploadNotifierConfig, error) {
	c := &UploadNotifierConfig{
		ProjectID:      gcp.GetEnv("PROJECT_ID", ""),
		NotifierConfig: loadNotifierConfig("TOPIC_ID"),
	}
	if err := c.NotifierConfig.validate(c.ProjectID, "TOPIC_ID"); err != nil {
		return nil, err
	}
	return c, nil
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{
		RecordStore:    strings.ToLower(gcp.GetEnv("RECORD_STORE", RecordStoreFirestore)),
		CollectionName: gcp.GetEnv("FIRESTORE_COLLECTION", "documents"),
		RedisAddr:      gcp.GetEnv("REDIS_ADDR", ""),
		RedisKeyPrefix: gcp.GetEnv("REDIS_KEY_PREFIX", store.DefaultKeyPrefix),
	}
}

func loadNotifierConfig(topicVar string) NotifierConfig {
	return NotifierConfig{
		NotifierBackend: strings.ToLower(gcp.GetEnv("NOTIFIER_BACKEND", NotifierPubSub)),
		TopicID:         gcp.GetEnv(topicVar, ""),
		KafkaBrokers:    splitAndTrim(gcp.GetEnv("KAFKA_BROKERS", "")),
		KafkaTopic:      gcp.GetEnv("KAFKA_TOPIC", ""),
	}
}

func (c StoreConfig) validate(projectID string) error {
	switch c.RecordStore {
	case RecordStoreFirestore:
		if projectID == "" {
			return fmt.Errorf("PROJECT_ID environment variable must be set")
		}
	case RecordStoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR must be set when RECORD_STORE=redis")
		}
	default:
		return fmt.Errorf("unsupported RECORD_STORE %q", c.RecordStore)
	}
	return nil
}

func (c NotifierConfig) validate(projectID, topicVar string) error {
	switch c.NotifierBackend {
	case NotifierPubSub:
		if projectID == "" {
			return fmt.Errorf("PROJECT_ID environment variable must be set")
		}
		if c.TopicID == "" {
			return fmt.Errorf("%s environment variable must be set", topicVar)
		}
	case NotifierKafka:
		if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" {
			return fmt.Errorf("KAFKA_BROKERS and KAFKA_TOPIC must be set when NOTIFIER_BACKEND=kafka")
		}
	default:
		return fmt.Errorf("unsupported NOTIFIER_BACKEND %q", c.NotifierBackend)
	}
	return nil
}

// getInt parses key as an integer, returning fallback when it is unset.
func getInt(key string, fallback int) (int, error) {
	v := gcp.GetEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return parsed, nil
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
