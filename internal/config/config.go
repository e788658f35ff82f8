package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"formextract/internal/extraction"
	"formextract/internal/logger"
	"formextract/internal/ocr"
	"formextract/internal/validation"
)

type Config struct {
	// OCR Configuration
	OCRBackend string

	// Google Cloud Configuration
	GoogleCloudProject           string
	GoogleCloudLocation          string
	DocumentAIProcessorID        string
	DocumentAIProcessorVersion   string
	GoogleCredentials            string
	GoogleApplicationCredentials string

	// Tesseract Configuration
	TesseractLanguages []string

	// OpenAI Configuration
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	// Azure OpenAI Configuration
	AzureOpenAIEndpoint   string
	AzureOpenAIKey        string
	AzureOpenAIDeployment string
	AzureOpenAIAPIVersion string

	ExtractionMaxRetries int

	// Validation Configuration
	ValidationRulesFile string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads the configuration from the environment. Nothing is required at
// load time; commands call RequireOCR or RequireLLM for what they use.
func Load() (*Config, error) {
	config := &Config{
		OCRBackend:                   getEnv("OCR_BACKEND", string(ocr.BackendVision)),
		GoogleCloudProject:           getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:          getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:        getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		DocumentAIProcessorVersion:   getEnv("DOCUMENT_AI_PROCESSOR_VERSION", ""),
		GoogleCredentials:            getEnv("GOOGLE_CREDENTIALS", ""),
		GoogleApplicationCredentials: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		TesseractLanguages:           splitList(getEnv("TESSERACT_LANGUAGES", "heb,eng")),
		OpenAIAPIKey:                 getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:                  getEnv("OPENAI_MODEL", extraction.DefaultModel),
		OpenAIBaseURL:                getEnv("OPENAI_BASE_URL", ""),
		AzureOpenAIEndpoint:          getEnv("AZURE_OPENAI_ENDPOINT", ""),
		AzureOpenAIKey:               getEnv("AZURE_OPENAI_KEY", ""),
		AzureOpenAIDeployment:        getEnv("AZURE_OPENAI_DEPLOYMENT_NAME", ""),
		AzureOpenAIAPIVersion:        getEnv("AZURE_OPENAI_API_VERSION", extraction.DefaultAzureAPIVersion),
		ValidationRulesFile:          getEnv("VALIDATION_RULES_FILE", ""),
		LogLevel:                     getEnv("LOG_LEVEL", "info"),
		LogFormat:                    getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:                getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                    getEnv("LOG_OUTPUT", "stderr"),
	}

	retries, err := strconv.Atoi(getEnv("EXTRACTION_MAX_RETRIES", strconv.Itoa(extraction.DefaultMaxRetries)))
	if err != nil || retries < 1 {
		return nil, fmt.Errorf("config validation failed: EXTRACTION_MAX_RETRIES must be a positive integer")
	}
	config.ExtractionMaxRetries = retries

	if _, err := ocr.ParseBackend(config.OCRBackend); err != nil {
		return nil, fmt.Errorf("config validation failed: OCR_BACKEND: %w", err)
	}

	return config, nil
}

// RequireOCR checks the settings the configured OCR backend needs.
func (c *Config) RequireOCR() error {
	backend, err := ocr.ParseBackend(c.OCRBackend)
	if err != nil {
		return err
	}
	if backend == ocr.BackendDocumentAI {
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required")
		}
		if c.DocumentAIProcessorID == "" {
			return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required")
		}
	}
	return nil
}

// RequireLLM checks that OpenAI or Azure OpenAI credentials are present.
func (c *Config) RequireLLM() error {
	if c.AzureOpenAIEndpoint != "" {
		if c.AzureOpenAIKey == "" {
			return fmt.Errorf("AZURE_OPENAI_KEY is required")
		}
		if c.AzureOpenAIDeployment == "" {
			return fmt.Errorf("AZURE_OPENAI_DEPLOYMENT_NAME is required")
		}
		return nil
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY (or AZURE_OPENAI_ENDPOINT) is required")
	}
	return nil
}

// OCRConfig returns the OCR service configuration.
func (c *Config) OCRConfig() ocr.Config {
	backend, _ := ocr.ParseBackend(c.OCRBackend)
	return ocr.Config{
		Backend:          backend,
		CredentialsJSON:  c.GoogleCredentials,
		CredentialsFile:  c.GoogleApplicationCredentials,
		ProjectID:        c.GoogleCloudProject,
		Location:         c.GoogleCloudLocation,
		ProcessorID:      c.DocumentAIProcessorID,
		ProcessorVersion: c.DocumentAIProcessorVersion,
		Languages:        c.TesseractLanguages,
	}
}

// ExtractionConfig returns the LLM extractor configuration.
func (c *Config) ExtractionConfig() extraction.Config {
	return extraction.Config{
		APIKey:          c.OpenAIAPIKey,
		Model:           c.OpenAIModel,
		BaseURL:         c.OpenAIBaseURL,
		AzureEndpoint:   c.AzureOpenAIEndpoint,
		AzureKey:        c.AzureOpenAIKey,
		AzureDeployment: c.AzureOpenAIDeployment,
		AzureAPIVersion: c.AzureOpenAIAPIVersion,
		MaxRetries:      c.ExtractionMaxRetries,
	}
}

// ValidationRules loads the rules file, or the built-in rules when none is set.
func (c *Config) ValidationRules() (validation.Rules, error) {
	return validation.LoadRules(c.ValidationRulesFile)
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == '+' }) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
