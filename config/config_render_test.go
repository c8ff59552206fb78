package config

import (
	"fmt"
	"testing"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/require"
)

type testCaseData struct {
	name                 string
	contents             []string
	envVars              map[string]string
	expectedMerged       string
	expectedRenderConfig string
	expectedError        error
}

func TestConfigRenderMerge(t *testing.T) {
	var tests = []testCaseData{
		{
			name:                 "Merge 2 elements",
			contents:             []string{"A=1\n", "B=2\n"},
			expectedRenderConfig: "A = 1\nB = 2\n",
		},
		{
			name:                 "Merge 3 elements",
			contents:             []string{"A=1\n", "B=2\n", "C=3\n"},
			expectedRenderConfig: "A = 1\nB = 2\nC = 3\n",
		},
		{
			name:                 "Merge 3 elements, overlapped",
			contents:             []string{"A=1\n", "A=2\nB=2\n", "A=3\nC=3\n"},
			expectedRenderConfig: "A = 3\nB = 2\nC = 3\n",
		},
		{
			name:                 "Merge 3 elements, overlapped final var",
			contents:             []string{"A=1\n", "A=2\nB=2\n", "A={{VAR}}\nC=3\n"},
			expectedRenderConfig: "A = {{VAR}}\nB = 2\nC = 3\n",
			expectedError:        ErrMissingVars,
		},
	}
	executeCases(t, tests)
}

func TestConfigRenderDetectCycle(t *testing.T) {
	var tests = []testCaseData{
		{
			name:                 "Cycle 3 elements",
			contents:             []string{"A= {{B}}\n", "B= {{C}}\nC={{A}}\n"},
			expectedMerged:       "A = {{B}}\nB = {{C}}\nC = {{A}}\n",
			expectedRenderConfig: "A = {{B}}\nB = {{C}}\nC = {{A}}\n",
			expectedError:        ErrCycleVars,
		},
		{
			name:                 "Cycle 2 elements",
			contents:             []string{"A= {{B}}\n", "B= {{A}}\n"},
			expectedRenderConfig: "A = {{B}}\nB = {{A}}\n",
			expectedError:        ErrCycleVars,
		},
		{
			name:                 "Cycle 1 elements",
			contents:             []string{"A= {{A}}\n", ""},
			expectedRenderConfig: "A = {{A}}\n",
			expectedError:        ErrCycleVars,
		},
	}
	executeCases(t, tests)
}

func TestConfigRenderTypes(t *testing.T) {
	var tests = []testCaseData{
		{
			name: "Cycle 3 elements B, break var",
			contents: []string{"INT_VALUE={{MY_INT}}\n STR_VALUE= \"{{MY_STR}}\"\n MYBOOL={{MY_BOOL}}\n",
				"MY_STR=\"a string\"\nMY_INT=4\nMY_BOOL=true\nNO_RESOLVED={{NOT_DEFINED_VAR}}\n"},
			envVars:              map[string]string{"UTCR_B": "4"},
			expectedError:        ErrMissingVars,
			expectedRenderConfig: "INT_VALUE = 4\nMYBOOL = true\nMY_BOOL = true\nMY_INT = 4\nMY_STR = \"a string\"\nNO_RESOLVED = {{NOT_DEFINED_VAR}}\nSTR_VALUE = \"a string\"\n",
		},
	}
	executeCases(t, tests)
}

func TestConfigRenderComposedValues(t *testing.T) {
	var tests = []testCaseData{
		{
			name:                 "Composed var",
			contents:             []string{"A=\"path\"\n", "B= \"{{A}}to\"\n"},
			expectedRenderConfig: "A = \"path\"\nB = \"pathto\"\n",
		},
	}
	executeCases(t, tests)
}

func TestConfigRenderCycleBrokenByEnvVar(t *testing.T) {
	var tests = []testCaseData{
		{
			name:                 "Cycle 3 elements B, break var",
			contents:             []string{"A= {{B}}\n", "B= {{C}}\nC={{A}}\n"},
			envVars:              map[string]string{"UTCR_B": "4"},
			expectedRenderConfig: "A = 4\nB = 4\nC = 4\n",
		},
		{
			name:                 "Cycle 3 elements A, break var",
			contents:             []string{"A= {{B}}\n", "B= {{C}}\nC={{A}}\n"},
			envVars:              map[string]string{"UTCR_A": "4"},
			expectedRenderConfig: "A = 4\nB = 4\nC = 4\n",
		},
		{
			name:                 "Cycle 3 elements C, break var",
			contents:             []string{"A= {{B}}\n", "B= {{C}}\nC={{A}}\n"},
			envVars:              map[string]string{"UTCR_C": "4"},
			expectedRenderConfig: "A = 4\nB = 4\nC = 4\n",
		},
	}
	executeCases(t, tests)
}

func TestConfigRenderOverrideByEnvVars(t *testing.T) {
	var tests = []testCaseData{
		{
			name:                 "Variable is not set in config file but override  as number",
			contents:             []string{"A={{C}}\n"},
			envVars:              map[string]string{"UTCR_C": "4"},
			expectedRenderConfig: "A = 4\n",
		},
		// Notice that the exported variable have the quotes
		{
			name:                 "Variable is not set in config file but override  as string",
			contents:             []string{"A={{C}}\n"},
			envVars:              map[string]string{"UTCR_C": "\"4\""},
			expectedRenderConfig: "A = \"4\"\n",
		},
	}
	executeCases(t, tests)
}

func TestConfigRenderPropagateType(t *testing.T) {
	var tests = []testCaseData{
		{
			name:                 "propagateType: set directly",
			contents:             []string{"A=\"hello\"\n", "B= \"{{A}}\"\n"},
			expectedRenderConfig: "A = \"hello\"\nB = \"hello\"\n",
		},
		{
			name:                 "propagateType: set directly",
			contents:             []string{"A=\"hello\"\n", "B=\"{{A}}\"\n"},
			envVars:              map[string]string{"UTCR_A": "you"},
			expectedRenderConfig: "A = \"hello\"\nB = \"you\"\n",
		},
	}
	executeCases(t, tests)
}

func TestConfigRenderComplexStruct(t *testing.T) {
	defaultValues := `
		[Engine]
	DataDir="/tmp/chains"
	RestartBackoffMin="1s"
	[Engine.WalletSync]
		DBPath="/tmp/walletsync.sqlite"
`
	configFile := `
		[Engine.WalletSync]
		DBPath="{{Engine.DataDir}}"
	`
	var tests = []testCaseData{
		{
			name:                 "Complex struct merge",
			contents:             []string{defaultValues, configFile},
			expectedRenderConfig: "\n[Engine]\n  DataDir = \"/tmp/chains\"\n  RestartBackoffMin = \"1s\"\n\n  [Engine.WalletSync]\n    DBPath = \"/tmp/chains\"\n",
		},
		// Engine.DataDir is not a var, the env var changes it on the viper stage
		{
			name:                 "Complex struct merge override env-var, but we must propagate the string type",
			contents:             []string{defaultValues, configFile},
			envVars:              map[string]string{"UTCR_Engine_DataDir": "env"},
			expectedRenderConfig: "\n[Engine]\n  DataDir = \"/tmp/chains\"\n  RestartBackoffMin = \"1s\"\n\n  [Engine.WalletSync]\n    DBPath = \"env\"\n",
		},
	}
	executeCases(t, tests)
}

func parseToml(t *testing.T, data string) *koanf.Koanf {
	t.Helper()
	k := koanf.New(".")
	require.NoError(t, k.Load(rawbytes.Provider([]byte(data)), toml.Parser()))
	return k
}

func TestConfigRenderConvertFileToToml(t *testing.T) {
	jsonFile := `{
  "PathRWData": "/data",
  "Testnet": true,
  "Engine": {
    "DataDir": "/data/chains",
    "RestartBackoffMin": "2s",
    "SourcePool": {"MaxHeadLag": 5}
  }
}
`
	yamlFile := `
PathRWData: /data
Testnet: true
Engine:
  DataDir: /data/chains
  RestartBackoffMin: 2s
  SourcePool:
    MaxHeadLag: 5
`
	for fileType, content := range map[string]string{"json": jsonFile, "yaml": yamlFile, "yml": yamlFile} {
		t.Run(fileType, func(t *testing.T) {
			data, err := convertFileToToml(content, fileType)
			require.NoError(t, err)
			k := parseToml(t, data)
			require.Equal(t, "/data", k.String("PathRWData"))
			require.True(t, k.Bool("Testnet"))
			require.Equal(t, "/data/chains", k.String("Engine.DataDir"))
			require.Equal(t, "2s", k.String("Engine.RestartBackoffMin"))
			require.Equal(t, 5, k.Int("Engine.SourcePool.MaxHeadLag"))
		})
	}

	_, err := convertFileToToml("a=1", "ini")
	require.ErrorIs(t, err, ErrUnsupportedConfigFileType)

	data, err := convertFileToToml("A = 1\n", "conf")
	require.NoError(t, err)
	require.Equal(t, "A = 1\n", data)

	_, err = convertFileToToml("{", "json")
	require.Error(t, err)
}

type configRenderTestData struct {
	Sut     *ConfigRender
	EnvMock *osLookupEnvMock
}

func newConfigRenderTestData(data []string) configRenderTestData {
	envMock := &osLookupEnvMock{
		Env: map[string]string{},
	}
	filesData := make([]FileData, len(data))
	for i, d := range data {
		filesData[i] = FileData{Name: fmt.Sprintf("file%d", i), Content: d}
	}
	return configRenderTestData{
		EnvMock: envMock,
		Sut: &ConfigRender{
			FilesData:     filesData,
			LookupEnvFunc: envMock.LookupEnv,
			EnvPrefix:     "UTCR",
		},
	}
}

type osLookupEnvMock struct {
	Env map[string]string
}

func (m *osLookupEnvMock) LookupEnv(key string) (string, bool) {
	val, exists := m.Env[key]
	return val, exists
}

func executeCases(t *testing.T, tests []testCaseData) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testData := newConfigRenderTestData(tt.contents)
			if tt.envVars != nil {
				testData.EnvMock.Env = tt.envVars
			}
			if tt.expectedMerged != "" {
				merged, err := testData.Sut.Merge()
				require.NoError(t, err)
				require.Equal(t, tt.expectedMerged, merged)
			}
			res, err := testData.Sut.Render()
			if tt.expectedError != nil {
				require.Error(t, err)
				require.ErrorIs(t, err, tt.expectedError)
			} else {
				require.NoError(t, err)
			}
			if len(tt.expectedRenderConfig) > 0 {
				require.Equal(t, tt.expectedRenderConfig, res)
			}
		})
	}
}
