package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formextract/internal/ocr"
	"formextract/internal/validation"
)

// clearEnv blanks every variable Load reads so the host environment does not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OCR_BACKEND", "GOOGLE_CLOUD_PROJECT", "GOOGLE_CLOUD_LOCATION", "DOCUMENT_AI_PROCESSOR_ID",
		"DOCUMENT_AI_PROCESSOR_VERSION", "GOOGLE_CREDENTIALS", "GOOGLE_APPLICATION_CREDENTIALS",
		"TESSERACT_LANGUAGES", "OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
		"AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_KEY", "AZURE_OPENAI_DEPLOYMENT_NAME",
		"AZURE_OPENAI_API_VERSION", "EXTRACTION_MAX_RETRIES", "VALIDATION_RULES_FILE",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_TIME_FORMAT", "LOG_OUTPUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "vision", cfg.OCRBackend)
	assert.Equal(t, "us", cfg.GoogleCloudLocation)
	assert.Equal(t, []string{"heb", "eng"}, cfg.TesseractLanguages)
	assert.Equal(t, 3, cfg.ExtractionMaxRetries)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "stderr", cfg.LogOutput)

	assert.NoError(t, cfg.RequireOCR())
	assert.Error(t, cfg.RequireLLM())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("OCR_BACKEND", "documentai")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "claims-prod")
	t.Setenv("GOOGLE_CLOUD_LOCATION", "eu")
	t.Setenv("DOCUMENT_AI_PROCESSOR_ID", "abc123")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/secrets/sa.json")
	t.Setenv("TESSERACT_LANGUAGES", "heb+eng, ara")
	t.Setenv("EXTRACTION_MAX_RETRIES", "5")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.RequireOCR())

	ocrCfg := cfg.OCRConfig()
	assert.Equal(t, ocr.BackendDocumentAI, ocrCfg.Backend)
	assert.Equal(t, "claims-prod", ocrCfg.ProjectID)
	assert.Equal(t, "eu", ocrCfg.Location)
	assert.Equal(t, "abc123", ocrCfg.ProcessorID)
	assert.Equal(t, "/secrets/sa.json", ocrCfg.CredentialsFile)
	assert.Equal(t, []string{"heb", "eng", "ara"}, ocrCfg.Languages)

	assert.Equal(t, 5, cfg.ExtractionConfig().MaxRetries)
	assert.Equal(t, "json", cfg.GetLoggerConfig().Format)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXTRACTION_MAX_RETRIES", "zero")
	_, err := Load()
	assert.ErrorContains(t, err, "EXTRACTION_MAX_RETRIES")

	clearEnv(t)
	t.Setenv("OCR_BACKEND", "azure")
	_, err = Load()
	assert.ErrorIs(t, err, ocr.ErrInvalidConfiguration)
}

func TestRequireOCR_DocumentAI(t *testing.T) {
	cfg := &Config{OCRBackend: "documentai"}
	assert.ErrorContains(t, cfg.RequireOCR(), "GOOGLE_CLOUD_PROJECT")

	cfg.GoogleCloudProject = "p"
	assert.ErrorContains(t, cfg.RequireOCR(), "DOCUMENT_AI_PROCESSOR_ID")
}

func TestRequireLLM(t *testing.T) {
	assert.NoError(t, (&Config{OpenAIAPIKey: "sk"}).RequireLLM())

	azure := &Config{AzureOpenAIEndpoint: "https://example.openai.azure.com"}
	assert.ErrorContains(t, azure.RequireLLM(), "AZURE_OPENAI_KEY")

	azure.AzureOpenAIKey = "key"
	assert.ErrorContains(t, azure.RequireLLM(), "AZURE_OPENAI_DEPLOYMENT_NAME")

	azure.AzureOpenAIDeployment = "forms"
	assert.NoError(t, azure.RequireLLM())
	assert.Equal(t, "forms", azure.ExtractionConfig().AzureDeployment)
}

func TestValidationRules(t *testing.T) {
	cfg := &Config{}
	rules, err := cfg.ValidationRules()
	require.NoError(t, err)
	assert.Equal(t, validation.DefaultRules().RequiredFields, rules.RequiredFields)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("required_fields: [lastName]\n"), 0o600))
	cfg.ValidationRulesFile = path

	rules, err = cfg.ValidationRules()
	require.NoError(t, err)
	assert.Equal(t, []string{"lastName"}, rules.RequiredFields)
}
