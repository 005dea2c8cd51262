// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"bytes"
	"os"
	"strings"

	"github.com/gorse-io/mtlprep/pipeline"
	"github.com/gorse-io/mtlprep/split"
	"github.com/gorse-io/mtlprep/table"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const (
	HoldoutSplit     = "holdout"
	RatioSplit       = "ratio"
	LeaveOneOutSplit = "leave_one_out"
	BenchmarkSplit   = "benchmark"
)

const (
	RandomOrder = "random"
	TimeOrder   = "time"
)

// partitionPlaceholder is replaced by partition names in paths of pre-split inputs.
const partitionPlaceholder = "{partition}"

// Config is the configuration of a preprocessing run.
type Config struct {
	Dataset     string        `mapstructure:"dataset" validate:"required"`
	Description string        `mapstructure:"description"`
	Input       InputConfig   `mapstructure:"input"`
	Stages      []StageConfig `mapstructure:"stages"`
	Split       SplitConfig   `mapstructure:"split"`
	Output      OutputConfig  `mapstructure:"output"`
	Storage     StorageConfig `mapstructure:"storage"`
}

// SourceConfig describes a delimited file.
type SourceConfig struct {
	Path          string   `mapstructure:"path" validate:"required"`
	Separator     string   `mapstructure:"separator" validate:"required"`
	Header        string   `mapstructure:"header" validate:"oneof=typed plain none"`
	Columns       []string `mapstructure:"columns" validate:"required_if=Header none"`
	NullValues    []string `mapstructure:"null_values"`
	LoadColumns   []string `mapstructure:"load_columns"`
	UnloadColumns []string `mapstructure:"unload_columns" validate:"excluded_with=LoadColumns"`
	SeqSeparator  string   `mapstructure:"seq_separator"`
	Progress      bool     `mapstructure:"progress"`
}

// ReadOptions converts the source description into reader options.
func (c *SourceConfig) ReadOptions() table.ReadOptions {
	opts := table.DefaultReadOptions()
	opts.Separator = c.Separator
	opts.Header = table.HeaderMode(c.Header)
	opts.Columns = c.Columns
	if c.NullValues != nil {
		opts.NullValues = c.NullValues
	}
	opts.LoadColumns = c.LoadColumns
	opts.UnloadColumns = c.UnloadColumns
	if c.SeqSeparator != "" {
		opts.SeqSeparator = c.SeqSeparator
	}
	opts.Progress = c.Progress
	return opts
}

type InputConfig struct {
	SourceConfig `mapstructure:",squash"`
	Joins        []JoinConfig `mapstructure:"joins" validate:"dive"`
}

// Presplit returns true if the path names pre-split train, validation and test files.
func (c *InputConfig) Presplit() bool {
	return strings.Contains(c.Path, partitionPlaceholder)
}

// PartitionPaths expands the path of pre-split files in train, validation, test order.
func (c *InputConfig) PartitionPaths() []string {
	return lo.Map([]string{split.Train, split.Valid, split.Test}, func(partition string, _ int) string {
		return strings.ReplaceAll(c.Path, partitionPlaceholder, partition)
	})
}

// JoinConfig describes a side table joined to the input on a key column. Input rows without a
// match keep missing cells, or are removed when Inner is set.
type JoinConfig struct {
	SourceConfig `mapstructure:",squash"`
	On           string `mapstructure:"on" validate:"required"`
	Inner        bool   `mapstructure:"inner"`
}

// StageConfig is a stage type and its parameters.
type StageConfig map[string]any

func (c StageConfig) Type() string {
	typ, _ := c["type"].(string)
	return typ
}

// Params returns the parameters without the type.
func (c StageConfig) Params() map[string]any {
	return lo.OmitByKeys(map[string]any(c), []string{"type"})
}

type SplitConfig struct {
	Mode         string    `mapstructure:"mode" validate:"oneof=holdout ratio leave_one_out benchmark"`
	Order        string    `mapstructure:"order" validate:"oneof=random time"`
	TimeField    string    `mapstructure:"time_field" validate:"required_if=Order time"`
	Holdout      float64   `mapstructure:"holdout" validate:"required_if=Mode holdout,gte=0,lt=1"`
	Ratios       []float64 `mapstructure:"ratios" validate:"required_if=Mode ratio"`
	GroupBy      string    `mapstructure:"group_by" validate:"required_if=Mode leave_one_out"`
	LeaveOneMode string    `mapstructure:"leave_one_mode" validate:"oneof=valid_and_test valid_only test_only"`
	Seed         int64     `mapstructure:"seed"`
}

type OutputConfig struct {
	URL          string `mapstructure:"url" validate:"required"`
	Separator    string `mapstructure:"separator" validate:"required"`
	TypedHeader  bool   `mapstructure:"typed_header"`
	SeqSeparator string `mapstructure:"seq_separator" validate:"required"`
	Pattern      string `mapstructure:"pattern" validate:"required,contains={partition}"`
	Vocabulary   string `mapstructure:"vocabulary"`
	Descriptor   string `mapstructure:"descriptor"`
}

// FileName expands the pattern of output files.
func (c *OutputConfig) FileName(dataset, partition string) string {
	return strings.NewReplacer("{dataset}", dataset, "{partition}", partition).Replace(c.Pattern)
}

// VocabularyName returns the name of the vocabulary artifact, or an empty string if disabled.
func (c *OutputConfig) VocabularyName(dataset string) string {
	return strings.ReplaceAll(c.Vocabulary, "{dataset}", dataset)
}

// DescriptorName returns the name of the dataset descriptor, or an empty string if disabled.
func (c *OutputConfig) DescriptorName(dataset string) string {
	return strings.ReplaceAll(c.Descriptor, "{dataset}", dataset)
}

type StorageConfig struct {
	S3    S3Config        `mapstructure:"s3"`
	GCS   GCSConfig       `mapstructure:"gcs"`
	Azure AzureBlobConfig `mapstructure:"azure"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

type GCSConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
}

type AzureBlobConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	Endpoint         string `mapstructure:"endpoint"`
}

// Pipeline builds the configured stages.
func (config *Config) Pipeline() (*pipeline.Pipeline, error) {
	stages := make([]pipeline.Stage, len(config.Stages))
	for i, stage := range config.Stages {
		if stage.Type() == "" {
			return nil, errors.NotValidf("stage %d without type", i)
		}
		var err error
		if stages[i], err = pipeline.Build(stage.Type(), stage.Params()); err != nil {
			return nil, errors.Annotatef(err, "stage %d", i)
		}
	}
	return pipeline.New(stages...), nil
}

func GetDefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			SourceConfig: SourceConfig{
				Separator: ",",
				Header:    string(table.HeaderPlain),
			},
		},
		Split: SplitConfig{
			Mode:         HoldoutSplit,
			Order:        RandomOrder,
			Holdout:      0.2,
			LeaveOneMode: split.ValidAndTest,
			Seed:         42,
		},
		Output: OutputConfig{
			URL:          "output",
			Separator:    ",",
			TypedHeader:  true,
			SeqSeparator: " ",
			Pattern:      "{dataset}.{partition}.inter",
			Vocabulary:   "{dataset}.vocab.yaml",
			Descriptor:   "{dataset}.yaml",
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [input]
	v.SetDefault("input.separator", defaultConfig.Input.Separator)
	v.SetDefault("input.header", defaultConfig.Input.Header)
	// [split]
	v.SetDefault("split.mode", defaultConfig.Split.Mode)
	v.SetDefault("split.order", defaultConfig.Split.Order)
	v.SetDefault("split.holdout", defaultConfig.Split.Holdout)
	v.SetDefault("split.leave_one_mode", defaultConfig.Split.LeaveOneMode)
	v.SetDefault("split.seed", defaultConfig.Split.Seed)
	// [output]
	v.SetDefault("output.url", defaultConfig.Output.URL)
	v.SetDefault("output.separator", defaultConfig.Output.Separator)
	v.SetDefault("output.typed_header", defaultConfig.Output.TypedHeader)
	v.SetDefault("output.seq_separator", defaultConfig.Output.SeqSeparator)
	v.SetDefault("output.pattern", defaultConfig.Output.Pattern)
	v.SetDefault("output.vocabulary", defaultConfig.Output.Vocabulary)
	v.SetDefault("output.descriptor", defaultConfig.Output.Descriptor)
}

type configBinding struct {
	key string
	env string
}

var bindings = []configBinding{
	{"input.path", "MTLPREP_INPUT_PATH"},
	{"output.url", "MTLPREP_OUTPUT_URL"},
	{"split.seed", "MTLPREP_SPLIT_SEED"},
	{"storage.s3.endpoint", "MTLPREP_S3_ENDPOINT"},
	{"storage.s3.access_key_id", "MTLPREP_S3_ACCESS_KEY_ID"},
	{"storage.s3.secret_access_key", "MTLPREP_S3_SECRET_ACCESS_KEY"},
	{"storage.gcs.credentials_file", "MTLPREP_GCS_CREDENTIALS_FILE"},
	{"storage.azure.connection_string", "MTLPREP_AZURE_CONNECTION_STRING"},
	{"storage.azure.account_name", "MTLPREP_AZURE_ACCOUNT_NAME"},
	{"storage.azure.account_key", "MTLPREP_AZURE_ACCOUNT_KEY"},
}

// LoadConfig loads configuration from a YAML file. Environment variables override the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	config, err := parse(data)
	if err != nil {
		return nil, errors.Annotatef(err, "load config %s", path)
	}
	return config, nil
}

func parse(data []byte) (*Config, error) {
	v := viper.New()
	setDefault(v)
	for _, binding := range bindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return nil, errors.Trace(err)
		}
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, errors.NewNotValid(err, "parse config")
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.NewNotValid(err, "unmarshal config")
	}
	config.Input.inheritJoins()
	return &config, nil
}

// inheritJoins fills unset reader options of joined files from the input.
func (c *InputConfig) inheritJoins() {
	for i := range c.Joins {
		join := &c.Joins[i]
		if join.Separator == "" {
			join.Separator = c.Separator
		}
		if join.Header == "" {
			join.Header = c.Header
		}
		if join.NullValues == nil {
			join.NullValues = c.NullValues
		}
		if join.SeqSeparator == "" {
			join.SeqSeparator = c.SeqSeparator
		}
	}
}
