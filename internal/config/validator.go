package config

import (
	"fmt"
	"strings"
)

// Validator provides configuration validation utilities
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateTopicName validates a topic name
func (v *Validator) ValidateTopicName(name string) error {
	if name == "" {
		return fmt.Errorf("topic name cannot be empty")
	}

	invalidChars := []string{"/", "\\", ",", "\x00"}
	for _, char := range invalidChars {
		if strings.Contains(name, char) {
			return fmt.Errorf("topic name contains invalid character: %s", char)
		}
	}

	return nil
}

// ValidateStorageType validates storage type
func (v *Validator) ValidateStorageType(storageType string) error {
	validTypes := []string{"s3", "local"}

	for _, valid := range validTypes {
		if storageType == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid storage type: %s. Valid types: %v", storageType, validTypes)
}

// ValidateSecurityProtocol validates Kafka security protocol
func (v *Validator) ValidateSecurityProtocol(protocol string) error {
	validProtocols := []string{"PLAINTEXT", "SASL_PLAINTEXT", "SASL_SSL", "SSL"}

	for _, valid := range validProtocols {
		if protocol == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid security protocol: %s. Valid protocols: %v", protocol, validProtocols)
}
