package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/born-ml/sft/internal/align"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	suite.tempDir = suite.T().TempDir()
	require.NoError(suite.T(), os.Chdir(suite.tempDir))

	// Keep the user's real config out of the search path.
	suite.T().Setenv("HOME", suite.tempDir)
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		_ = os.Chdir(suite.origDir)
	}
}

func (suite *ConfigTestSuite) writeConfig(name, content string) string {
	path := filepath.Join(suite.tempDir, name)
	require.NoError(suite.T(), os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	cfg, err := Load("")

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), 128, cfg.Encoder.MaxLength)
	assert.Equal(suite.T(), int32(-100), cfg.Encoder.IgnoreIndex)
	assert.True(suite.T(), cfg.Encoder.LeadingSpaceFallback)
	assert.Equal(suite.T(), "auto", cfg.Tokenizer.Kind)
	assert.Equal(suite.T(), "cl100k_base", cfg.Tokenizer.Source)
	assert.Greater(suite.T(), cfg.Batch.Workers, 0)
	assert.InDelta(suite.T(), 0.05, cfg.Batch.MaxUnsupervisedRate, 1e-9)
	assert.Equal(suite.T(), "question", cfg.Input.QuestionField)
	assert.Equal(suite.T(), "answer", cfg.Input.AnswerField)
	assert.Equal(suite.T(), "info", cfg.Log.Level)
}

func (suite *ConfigTestSuite) TestLoadConfigFromSearchPath() {
	suite.writeConfig("sftlabel.yaml", `
encoder:
  maxLength: 256
  leadingSpaceFallback: false
tokenizer:
  kind: bpe
  source: ./model
`)

	cfg, err := Load("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), 256, cfg.Encoder.MaxLength)
	assert.False(suite.T(), cfg.Encoder.LeadingSpaceFallback)
	assert.Equal(suite.T(), "bpe", cfg.Tokenizer.Kind)
	assert.Equal(suite.T(), "./model", cfg.Tokenizer.Source)
	assert.Equal(suite.T(), int32(-100), cfg.Encoder.IgnoreIndex)
}

func (suite *ConfigTestSuite) TestLoadConfigExplicitPath() {
	path := suite.writeConfig("custom.yaml", `
encoder:
  ignoreIndex: -1
batch:
  workers: 3
  maxUnsupervisedRate: 0.2
input:
  questionField: "0"
  answerField: "2"
log:
  level: debug
  pretty: true
`)

	cfg, err := Load(path)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), int32(-1), cfg.Encoder.IgnoreIndex)
	assert.Equal(suite.T(), 3, cfg.Batch.Workers)
	assert.InDelta(suite.T(), 0.2, cfg.Batch.MaxUnsupervisedRate, 1e-9)
	assert.Equal(suite.T(), "0", cfg.Input.QuestionField)
	assert.Equal(suite.T(), "2", cfg.Input.AnswerField)
	assert.Equal(suite.T(), "debug", cfg.Log.Level)
	assert.True(suite.T(), cfg.Log.Pretty)
}

func (suite *ConfigTestSuite) TestLoadConfigMissingExplicitPath() {
	_, err := Load(filepath.Join(suite.tempDir, "missing.yaml"))
	assert.Error(suite.T(), err)
}

func (suite *ConfigTestSuite) TestEnvironmentOverride() {
	suite.T().Setenv("SFT_ENCODER_MAXLENGTH", "64")
	suite.T().Setenv("SFT_TOKENIZER_SOURCE", "p50k_base")

	cfg, err := Load("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), 64, cfg.Encoder.MaxLength)
	assert.Equal(suite.T(), "p50k_base", cfg.Tokenizer.Source)
}

func (suite *ConfigTestSuite) TestBoundValueWins() {
	v := viper.New()
	v.Set("encoder.maxLength", 32)

	cfg, err := LoadWith(v, "")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 32, cfg.Encoder.MaxLength)
}

func (suite *ConfigTestSuite) TestInvalidValues() {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"zero length", "encoder:\n  maxLength: 0\n", ErrInvalidMaxLength},
		{"non-negative ignore", "encoder:\n  ignoreIndex: 5\n", ErrInvalidIgnoreIndex},
		{"rate above one", "batch:\n  maxUnsupervisedRate: 1.5\n", ErrInvalidRate},
		{"unknown kind", "tokenizer:\n  kind: sentencepiece\n", ErrUnknownKind},
		{"empty answer field", "input:\n  answerField: \"\"\n", ErrEmptyField},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			path := suite.writeConfig("invalid.yaml", tt.content)
			_, err := Load(path)
			assert.ErrorIs(suite.T(), err, tt.wantErr)
		})
	}
}

func TestAlignConfig(t *testing.T) {
	cfg := &Config{
		Encoder: EncoderConfig{MaxLength: 64, IgnoreIndex: -7, LeadingSpaceFallback: true},
	}

	assert.Equal(t, align.Config{MaxLength: 64, IgnoreIndex: -7, LeadingSpaceFallback: true}, cfg.AlignConfig())
}
