// Package config holds the column and sheet labels the processors look for
// and write. Labels come from a built-in preset or a YAML file.
//
// Example file (every key is optional; omitted keys keep the "en" preset):
//
//	columns:
//	  original_code: 原物料代码
//	  new_code: 新编码
//	sheets:
//	  report: 物料报表
package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Columns names the headers each task reads or adds.
type Columns struct {
	// map-codes
	OriginalCode  string `yaml:"original_code"`
	NewCode       string `yaml:"new_code"`
	Code          string `yaml:"code"`
	NewSystemCode string `yaml:"new_system_code"`

	// sync-inventory
	StockQty     string `yaml:"stock_qty"`
	MaterialCode string `yaml:"material_code"`
	BaseUnitQty  string `yaml:"base_unit_qty"`

	// plan-purchase
	RequiredQty  string `yaml:"required_qty"`
	UnitPrice    string `yaml:"unit_price"`
	MaterialName string `yaml:"material_name"`
	Shortfall    string `yaml:"shortfall"`
	Demand       string `yaml:"demand"`
	Cost         string `yaml:"cost"`
}

// Sheets names the output worksheets.
type Sheets struct {
	Data     string `yaml:"data"`
	Report   string `yaml:"report"`
	Purchase string `yaml:"purchase"`
	Summary  string `yaml:"summary"`
}

// Summary labels the cost summary sheet.
type Summary struct {
	Item      string `yaml:"item"`
	Amount    string `yaml:"amount"`
	CostLabel string `yaml:"cost_label"`
}

// Labels is the complete label set.
type Labels struct {
	Columns Columns `yaml:"columns"`
	Sheets  Sheets  `yaml:"sheets"`
	Summary Summary `yaml:"summary"`
}

// English labels are the identifiers used throughout the code and docs.
var English = Labels{
	Columns: Columns{
		OriginalCode:  "original_code",
		NewCode:       "new_code",
		Code:          "code",
		NewSystemCode: "new_system_code",
		StockQty:      "stock_qty",
		MaterialCode:  "material_code",
		BaseUnitQty:   "base_unit_qty",
		RequiredQty:   "required_qty",
		UnitPrice:     "unit_price",
		MaterialName:  "material_name",
		Shortfall:     "shortfall",
		Demand:        "demand",
		Cost:          "cost",
	},
	Sheets: Sheets{
		Data:     "Sheet1",
		Report:   "report",
		Purchase: "purchase list",
		Summary:  "cost summary",
	},
	Summary: Summary{Item: "item", Amount: "amount", CostLabel: "cost"},
}

// Chinese labels match the workbooks the tool was first deployed against.
var Chinese = Labels{
	Columns: Columns{
		OriginalCode:  "原物料代码",
		NewCode:       "新编码",
		Code:          "编码",
		NewSystemCode: "新系统编码",
		StockQty:      "库存",
		MaterialCode:  "物料代码",
		BaseUnitQty:   "基本计量单位数量",
		RequiredQty:   "数量",
		UnitPrice:     "参考材料单价",
		MaterialName:  "物料名称",
		Shortfall:     "缺口量",
		Demand:        "需求量",
		Cost:          "成本",
	},
	Sheets: Sheets{
		Data:     "Sheet1",
		Report:   "物料报表",
		Purchase: "购买清单",
		Summary:  "成本汇总",
	},
	Summary: Summary{Item: "项目", Amount: "金额", CostLabel: "成本"},
}

var presets = map[string]Labels{
	"en": English,
	"zh": Chinese,
}

// Resolve returns a preset by name, or loads a YAML file when the argument
// is not a preset name. The empty string selects "en".
func Resolve(nameOrPath string) (Labels, error) {
	key := strings.ToLower(strings.TrimSpace(nameOrPath))
	if key == "" {
		return English, nil
	}
	if l, ok := presets[key]; ok {
		return l, nil
	}
	return Load(nameOrPath)
}

// Load reads a YAML label file and merges it over the English preset.
func Load(path string) (Labels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Labels{}, fmt.Errorf("failed to read labels file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML label overrides on top of the English preset.
func Parse(data []byte) (Labels, error) {
	l := English
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Labels{}, fmt.Errorf("failed to parse labels: %w", err)
	}
	if err := l.Validate(); err != nil {
		return Labels{}, err
	}
	return l, nil
}

// Validate rejects blank labels and sheet labels a workbook cannot hold.
func (l Labels) Validate() error {
	var blank []string
	collectBlank(reflect.ValueOf(l), "", &blank)
	if len(blank) > 0 {
		return fmt.Errorf("labels must not be blank: %s", strings.Join(blank, ", "))
	}
	return l.Sheets.validate()
}

// validate applies the worksheet naming rules up front so a bad label fails
// before any processing rather than at write time.
func (s Sheets) validate() error {
	names := []struct{ key, value string }{
		{"sheets.data", s.Data},
		{"sheets.report", s.Report},
		{"sheets.purchase", s.Purchase},
		{"sheets.summary", s.Summary},
	}
	for _, n := range names {
		if utf8.RuneCountInString(n.value) > excelize.MaxSheetNameLength {
			return fmt.Errorf("label %s %q is longer than %d characters", n.key, n.value, excelize.MaxSheetNameLength)
		}
		if strings.ContainsAny(n.value, `:\/?*[]`) {
			return fmt.Errorf("label %s %q contains one of : \\ / ? * [ ]", n.key, n.value)
		}
		if strings.HasPrefix(n.value, "'") || strings.HasSuffix(n.value, "'") {
			return fmt.Errorf("label %s %q must not start or end with an apostrophe", n.key, n.value)
		}
	}
	// report, purchase and summary share one workbook.
	seen := map[string]string{}
	for _, n := range names[1:] {
		k := strings.ToLower(n.value)
		if prev, ok := seen[k]; ok {
			return fmt.Errorf("labels %s and %s name the same sheet %q", prev, n.key, n.value)
		}
		seen[k] = n.key
	}
	return nil
}

func collectBlank(v reflect.Value, prefix string, out *[]string) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		name := t.Field(i).Tag.Get("yaml")
		if prefix != "" {
			name = prefix + "." + name
		}
		switch f.Kind() {
		case reflect.Struct:
			collectBlank(f, name, out)
		case reflect.String:
			if strings.TrimSpace(f.String()) == "" {
				*out = append(*out, name)
			}
		}
	}
}

// Names lists the preset names.
func Names() []string {
	return []string{"en", "zh"}
}
