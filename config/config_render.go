package config

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/horizontalsystems/chainsync/log"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/valyala/fasttemplate"
	"gopkg.in/yaml.v3"
)

const (
	startTag = "{{"
	endTag   = "}}"
)

var (
	ErrCycleVars                 = fmt.Errorf("cycle vars")
	ErrMissingVars               = fmt.Errorf("missing vars")
	ErrUnsupportedConfigFileType = fmt.Errorf("unsupported config file type")

	unquotedVarRe = regexp.MustCompile(`=\s*\{\{([^}:]+)\}\}`)
	quotedVarRe   = regexp.MustCompile(`=\s*\"\{\{([^}:]+:int)\}\}\"`)
	typeMarkRe    = regexp.MustCompile(`\{\{([^}:]+:int)\}\}`)
)

type FileData struct {
	Name    string
	Content string
}

// ConfigRender merges TOML files and resolves the {{var}} references between their values.
// A var is resolved from the environment (EnvPrefix_var) before the files
type ConfigRender struct {
	// Later files override the earlier ones
	FilesData []FileData
	// LookupEnvFunc resolves environment variables, typically os.LookupEnv
	LookupEnvFunc func(key string) (string, bool)
	EnvPrefix     string
}

func NewConfigRender(filesData []FileData, envPrefix string) *ConfigRender {
	return &ConfigRender{
		FilesData:     filesData,
		LookupEnvFunc: os.LookupEnv,
		EnvPrefix:     envPrefix,
	}
}

// Render merges all the files and resolves the vars
func (c *ConfigRender) Render() (string, error) {
	mergedData, err := c.Merge()
	if err != nil {
		return "", fmt.Errorf("fail to merge files. Err: %w", err)
	}
	return c.ResolveVars(mergedData)
}

// Merge loads the files in order into a single TOML document. Vars are kept unresolved
func (c *ConfigRender) Merge() (string, error) {
	k := koanf.New(".")
	for _, data := range c.FilesData {
		dataToml := markUnquotedVars(data.Content)
		if err := k.Load(rawbytes.Provider([]byte(dataToml)), toml.Parser()); err != nil {
			log.Errorf("error loading file %s. Err:%v. FileData: %v", data.Name, err, dataToml)
			return "", fmt.Errorf("fail to load converted template %s to toml. Err: %w", data.Name, err)
		}
	}
	marshaled, err := k.Marshal(toml.Parser())
	if err != nil {
		return "", fmt.Errorf("fail to marshal to toml. Err: %w", err)
	}
	return RemoveQuotesForVars(string(marshaled)), nil
}

// ResolveVars replaces every var by its value. Vars that reference each other are resolved
// in rounds, a round that resolves nothing means there is a cycle
func (c *ConfigRender) ResolveVars(fullConfigData string) (string, error) {
	tpl, valuesDefined, err := c.readTemplateAndDefinedValues(fullConfigData)
	if err != nil {
		return "", err
	}
	// undefined vars keep the template form: A={{B}}
	rendered := c.executeTemplate(tpl, valuesDefined)
	rendered = RemoveTypeMarks(rendered)
	if unresolved := c.GetUnresolvedVars(tpl, valuesDefined); len(unresolved) > 0 {
		return rendered, fmt.Errorf("missing vars: %v. Err: %w", unresolved, ErrMissingVars)
	}
	finalConfigData, err := c.ResolveCycle(rendered)
	if err != nil {
		return fullConfigData, err
	}
	return finalConfigData, nil
}

// ResolveCycle renders the data until no var is left. Every round must reduce the
// amount of vars, otherwise there is a cycle: A={{B}} and B={{A}}
func (c *ConfigRender) ResolveCycle(partialResolvedConfigData string) (string, error) {
	tmpData := RemoveQuotesForVars(partialResolvedConfigData)
	pendingVars := c.GetVars(tmpData)
	if len(pendingVars) == 0 {
		return partialResolvedConfigData, nil
	}
	log.Debugf("ResolveCycle: pending vars: %v", pendingVars)
	previousData := tmpData
	for len(pendingVars) > 0 {
		previousVars := pendingVars
		tpl, valuesDefined, err := c.readTemplateAndDefinedValues(previousData)
		if err != nil {
			log.Errorf("resolveCycle: fails readTemplateAndDefinedValues. Err: %v. Data:%s", err, previousData)
			return "", fmt.Errorf("fails to read template ResolveCycle. Err: %w", err)
		}
		tmpData = RemoveQuotesForVars(c.executeTemplate(tpl, valuesDefined))
		tmpData = RemoveTypeMarks(tmpData)

		pendingVars = c.GetVars(tmpData)
		if len(pendingVars) == len(previousVars) {
			return partialResolvedConfigData, fmt.Errorf("not resolved cycle vars: %v. Err: %w", pendingVars, ErrCycleVars)
		}
		previousData = tmpData
	}
	return previousData, nil
}

// readTemplateAndDefinedValues expects vars in template form: A={{B}}, not A="{{B}}"
func (c *ConfigRender) readTemplateAndDefinedValues(data string) (*fasttemplate.Template,
	map[string]interface{}, error) {
	tpl, err := fasttemplate.NewTemplate(data, startTag, endTag)
	if err != nil {
		return nil, nil, fmt.Errorf("fail to load template. Err:%w", err)
	}
	k := koanf.New(".")
	out := markUnquotedVars(data)
	if err := k.Load(rawbytes.Provider([]byte(out)), toml.Parser()); err != nil {
		return nil, nil, fmt.Errorf("error parsing data koanf.Load.Content: %s. Err: %w", out, err)
	}
	return tpl, k.All(), nil
}

// markUnquotedVars quotes A={{B}} as A="{{B:int}}" so the document is valid TOML
func markUnquotedVars(data string) string {
	return unquotedVarRe.ReplaceAllString(data, `= "{{${1}:int}}"`)
}

// RemoveQuotesForVars reverts markUnquotedVars
func RemoveQuotesForVars(data string) string {
	return quotedVarRe.ReplaceAllStringFunc(data, func(match string) string {
		submatch := quotedVarRe.FindStringSubmatch(match)
		if len(submatch) > 1 {
			parts := strings.Split(submatch[1], ":")
			return "= {{" + parts[0] + "}}"
		}
		return match
	})
}

// RemoveTypeMarks drops the :int mark of the vars left
func RemoveTypeMarks(data string) string {
	return typeMarkRe.ReplaceAllStringFunc(data, func(match string) string {
		submatch := typeMarkRe.FindStringSubmatch(match)
		if len(submatch) > 1 {
			parts := strings.Split(submatch[1], ":")
			return "{{" + parts[0] + "}}"
		}
		return match
	})
}

func (c *ConfigRender) executeTemplate(tpl *fasttemplate.Template, data map[string]interface{}) string {
	return tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		if v, ok := c.findTagInEnvironment(tag); ok {
			return w.Write([]byte(v))
		}
		if v, ok := data[tag]; ok {
			return w.Write([]byte(fmt.Sprintf("%v", v)))
		}
		return w.Write([]byte(startTag + tag + endTag))
	})
}

// GetUnresolvedVars returns the vars of tpl defined neither in data nor in the environment
func (c *ConfigRender) GetUnresolvedVars(tpl *fasttemplate.Template, data map[string]interface{}) []string {
	var unresolved []string
	tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		if _, ok := c.findTagInEnvironment(tag); ok {
			return 0, nil
		}
		if _, ok := data[tag]; !ok && !contains(unresolved, tag) {
			unresolved = append(unresolved, tag)
		}
		return 0, nil
	})
	return unresolved
}

// GetVars returns the vars in configData
func (c *ConfigRender) GetVars(configData string) []string {
	tpl, err := fasttemplate.NewTemplate(configData, startTag, endTag)
	if err != nil {
		return []string{}
	}
	var vars []string
	tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		vars = append(vars, tag)
		return 0, nil
	})
	return vars
}

func (c *ConfigRender) findTagInEnvironment(tag string) (string, bool) {
	return c.LookupEnvFunc(c.EnvPrefix + "_" + strings.ReplaceAll(tag, ".", "_"))
}

func contains(vars []string, search string) bool {
	for _, v := range vars {
		if v == search {
			return true
		}
	}
	return false
}

func readFileToString(filename string) (string, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func convertFileToToml(fileData string, fileType string) (string, error) {
	var raw map[string]interface{}
	switch strings.ToLower(fileType) {
	case "json":
		k := koanf.New(".")
		if err := k.Load(rawbytes.Provider([]byte(fileData)), json.Parser()); err != nil {
			return fileData, fmt.Errorf("error loading json file. Err: %w", err)
		}
		raw = k.Raw()
	case "yml", "yaml":
		if err := yaml.Unmarshal([]byte(fileData), &raw); err != nil {
			return fileData, fmt.Errorf("error loading yaml file. Err: %w", err)
		}
	case "ini":
		return fileData, fmt.Errorf("cant convert from %s to TOML. Err: %w", fileType, ErrUnsupportedConfigFileType)
	default:
		log.Warnf("filetype %s unknown, assuming is a TOML file", fileType)
		return fileData, nil
	}
	tomlData, err := toml.Parser().Marshal(raw)
	if err != nil {
		return fileData, fmt.Errorf("error converting %s to toml. Err: %w", fileType, err)
	}
	return string(tomlData), nil
}
